package filter

import (
	"fmt"

	"github.com/artpar/minapi/domain/outcome"
)

// FactoryContext is what a factory may inspect at registration time.
// It describes the route, never a request.
type FactoryContext struct {
	Method    string
	Template  string
	Signature Signature
	Tags      []string
}

// Factory synthesizes a filter for one route at registration time.
type Factory func(fc FactoryContext) Filter

// IDParam is the parameter name the id validator looks for.
const IDParam = "id"

// BuildFilter inspects the signature once and returns the id validator bound
// to the position of the "id" parameter, or Passthrough when there is none.
func BuildFilter(sig Signature) Filter {
	idx := sig.Index(IDParam)
	if idx < 0 {
		return Passthrough
	}
	return PositiveInt(idx, IDParam)
}

// ValidateID is the Factory form of BuildFilter.
func ValidateID(fc FactoryContext) Filter {
	return BuildFilter(fc.Signature)
}

// PositiveInt rejects requests whose integer argument at index is not
// positive. The argument must already be bound.
func PositiveInt(index int, name string) Filter {
	return Named(fmt.Sprintf("positive(%s#%d)", name, index), FilterFunc(func(inv *Invocation, next Handler) outcome.Outcome {
		v, ok := ArgAs[int](inv, index)
		if !ok || v <= 0 {
			return outcome.ValidationField(name, name+" must be positive")
		}
		return next(inv)
	}))
}

// NotAuthorized is the detail returned when a tag check fails.
const NotAuthorized = "You are not authorized."

// RequireTags is a Factory that enforces the route's declared tags. Routes
// without tags get Passthrough.
func RequireTags(fc FactoryContext) Filter {
	if len(fc.Tags) == 0 {
		return Passthrough
	}
	tags := append([]string(nil), fc.Tags...)
	return Named(fmt.Sprintf("require-tags%v", tags), FilterFunc(func(inv *Invocation, next Handler) outcome.Outcome {
		for _, tag := range tags {
			if !inv.HasCallerTag(tag) {
				return outcome.Forbidden(NotAuthorized)
			}
		}
		return next(inv)
	}))
}
