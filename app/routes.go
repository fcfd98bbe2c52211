package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/artpar/minapi/domain/entity"
	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
	"github.com/artpar/minapi/domain/route"
	"github.com/rs/zerolog"
)

// Greeting is the body of GET /.
const Greeting = "Hello."

// Handlers bundles the endpoint handlers mounted by RegisterRoutes.
type Handlers struct {
	People   *ResourceHandlers[entity.Person]
	Products *ResourceHandlers[entity.Product]
	Housing  *HousingHandlers
	Accounts *ResourceHandlers[entity.Account]
}

// RoutesConfig contains configuration for the route table.
type RoutesConfig struct {
	AdminTag    string // Tag required on the /account group
	DebugRoutes bool   // Mount GET /throw
}

// NewRegistry creates the registry with the global factories every route
// gets: the route tag check.
func NewRegistry() *route.Registry {
	return route.NewRegistry(filter.RequireTags)
}

// RegisterRoutes mounts the API on reg.
func RegisterRoutes(reg *route.Registry, h Handlers, cfg RoutesConfig, logger zerolog.Logger) error {
	if cfg.AdminTag == "" {
		cfg.AdminTag = "admin"
	}
	logging := LoggingFilter(logger)

	if _, err := reg.Register(http.MethodGet, "/", route.Endpoint{
		Name: "root.greeting",
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			return outcome.Ok(Greeting)
		},
	}); err != nil {
		return err
	}

	if h.People != nil {
		if err := registerResource(reg, h.People, logging); err != nil {
			return err
		}
	}
	if h.Products != nil {
		if err := registerResource(reg, h.Products, logging); err != nil {
			return err
		}
	}

	if h.Housing != nil {
		if err := addAll(reg,
			route.Registration{Method: http.MethodGet, Template: "/housing", Endpoint: h.Housing.Search()},
			route.Registration{Method: http.MethodGet, Template: "/housing/{id}", Endpoint: h.Housing.Get(), Factories: []filter.Factory{filter.ValidateID}},
		); err != nil {
			return err
		}
	}

	if h.Accounts != nil {
		accounts := reg.Group("/account").WithTags(cfg.AdminTag)
		for _, r := range []route.Registration{
			{Method: http.MethodGet, Template: "/", Endpoint: h.Accounts.List()},
			{Method: http.MethodGet, Template: "/{id}", Endpoint: h.Accounts.Get(), Factories: []filter.Factory{filter.ValidateID}},
			{Method: http.MethodDelete, Template: "/{id}", Endpoint: h.Accounts.Delete(), Factories: []filter.Factory{filter.ValidateID}, Filters: []filter.Filter{logging}},
		} {
			if _, err := accounts.Add(r); err != nil {
				return fmt.Errorf("register account route %s %s: %w", r.Method, r.Template, err)
			}
		}
	}

	if cfg.DebugRoutes {
		if _, err := reg.Register(http.MethodGet, "/throw", route.Endpoint{
			Name: "debug.throw",
			Handler: func(inv *filter.Invocation) outcome.Outcome {
				panic(errors.New("random exception"))
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

// registerResource mounts the standard route set for one resource:
// list and add on /{name}, get, insert, replace and delete on /{name}/{id}.
// Get, replace and delete get the id validator from the factory; insert has
// it attached statically along with the logging filter.
func registerResource[V entity.Validator](reg *route.Registry, h *ResourceHandlers[V], logging filter.Filter) error {
	base := "/" + h.Name()
	item := base + "/{id}"
	validateID := []filter.Factory{filter.ValidateID}

	return addAll(reg,
		route.Registration{Method: http.MethodGet, Template: base, Endpoint: h.List()},
		route.Registration{Method: http.MethodPost, Template: base, Endpoint: h.Add()},
		route.Registration{Method: http.MethodGet, Template: item, Endpoint: h.Get(), Factories: validateID},
		route.Registration{
			Method:   http.MethodPost,
			Template: item,
			Endpoint: h.Insert(),
			Filters:  []filter.Filter{filter.PositiveInt(0, filter.IDParam), logging},
		},
		route.Registration{Method: http.MethodPut, Template: item, Endpoint: h.Replace(), Factories: validateID},
		route.Registration{Method: http.MethodDelete, Template: item, Endpoint: h.Delete(), Factories: validateID},
	)
}

func addAll(reg *route.Registry, regs ...route.Registration) error {
	for _, r := range regs {
		if _, err := reg.Add(r); err != nil {
			return fmt.Errorf("register route %s %s: %w", r.Method, r.Template, err)
		}
	}
	return nil
}
