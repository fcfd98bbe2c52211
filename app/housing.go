package app

import (
	"context"
	"strings"

	"github.com/artpar/minapi/domain/entity"
	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
	"github.com/artpar/minapi/domain/resource"
	"github.com/artpar/minapi/domain/route"
	"github.com/artpar/minapi/ports"
	"golang.org/x/text/cases"
)

// HousingHandlers serves housing locations with a city search.
type HousingHandlers struct {
	*ResourceHandlers[entity.HousingLocation]
}

// NewHousingHandlers creates housing handlers.
func NewHousingHandlers(store ports.ResourceStore[entity.HousingLocation]) *HousingHandlers {
	return &HousingHandlers{
		ResourceHandlers: NewResourceHandlers[entity.HousingLocation]("housing", store),
	}
}

// Search lists locations whose city contains the "city" query value,
// ignoring case. An empty query matches every location.
func (h *HousingHandlers) Search() route.Endpoint {
	return route.Endpoint{
		Name:      "housing.search",
		Signature: filter.Sig(filter.QueryString("city")),
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			return outcome.Ok(h.FilterByCity(inv.Context(), filter.MustArg[string](inv, 0)))
		},
	}
}

// FilterByCity returns the locations matching query.
func (h *HousingHandlers) FilterByCity(ctx context.Context, query string) []resource.Record[entity.HousingLocation] {
	return h.store.Find(ctx, CityMatcher(query))
}

// CityMatcher returns a predicate for a case-insensitive substring match on
// the city. Matching uses Unicode case folding. The predicate must not be
// shared between goroutines.
func CityMatcher(query string) func(entity.HousingLocation) bool {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	return func(l entity.HousingLocation) bool {
		return strings.Contains(fold.String(l.City), needle)
	}
}
