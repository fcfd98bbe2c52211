// Package app provides application services that orchestrate domain logic:
// the endpoint handlers built on the resource stores, the route table and the
// dispatcher that runs a request through it.
package app

import (
	"errors"
	"fmt"

	"github.com/artpar/minapi/domain/entity"
	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
	"github.com/artpar/minapi/domain/resource"
	"github.com/artpar/minapi/domain/route"
	"github.com/artpar/minapi/ports"
)

// InvalidData is the message reported under the resource name when a payload
// fails validation.
const InvalidData = "invalid data"

// ResourceHandlers provides CRUD endpoints for one entity type backed by a
// resource store.
type ResourceHandlers[V entity.Validator] struct {
	name  string
	store ports.ResourceStore[V]
}

// NewResourceHandlers creates handlers for the resource called name
// ("person" serves /person and /person/{id}).
func NewResourceHandlers[V entity.Validator](name string, store ports.ResourceStore[V]) *ResourceHandlers[V] {
	return &ResourceHandlers[V]{name: name, store: store}
}

// Name returns the resource name.
func (h *ResourceHandlers[V]) Name() string {
	return h.name
}

// List returns every record in id order.
func (h *ResourceHandlers[V]) List() route.Endpoint {
	return route.Endpoint{
		Name: h.name + ".list",
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			return outcome.Ok(h.store.List(inv.Context()))
		},
	}
}

// Get returns one payload by id.
func (h *ResourceHandlers[V]) Get() route.Endpoint {
	return route.Endpoint{
		Name:      h.name + ".get",
		Signature: filter.Sig(filter.PathInt("id")),
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			rec, err := h.store.Get(inv.Context(), filter.MustArg[int](inv, 0))
			if err != nil {
				return h.failure(err)
			}
			return outcome.Ok(rec.Data)
		},
	}
}

// Add validates the body and stores it under a new id.
func (h *ResourceHandlers[V]) Add() route.Endpoint {
	return route.Endpoint{
		Name:      h.name + ".add",
		Signature: filter.Sig(filter.Body[V](h.name)),
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			v := filter.MustArg[V](inv, 0)
			if out, ok := h.validate(v); !ok {
				return out
			}
			rec := h.store.Add(inv.Context(), v)
			return outcome.Created(resource.Location(h.name, rec.ID), rec.Data)
		},
	}
}

// Insert validates the body and stores it under the id from the path.
func (h *ResourceHandlers[V]) Insert() route.Endpoint {
	return route.Endpoint{
		Name:      h.name + ".insert",
		Signature: filter.Sig(filter.PathInt("id"), filter.Body[V](h.name)),
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			id := filter.MustArg[int](inv, 0)
			v := filter.MustArg[V](inv, 1)
			if out, ok := h.validate(v); !ok {
				return out
			}
			rec, err := h.store.Insert(inv.Context(), id, v)
			if err != nil {
				return h.failure(err)
			}
			return outcome.Created(resource.Location(h.name, rec.ID), rec.Data)
		},
	}
}

// Replace overwrites an existing payload. A missing record is reported before
// the body is validated.
func (h *ResourceHandlers[V]) Replace() route.Endpoint {
	return route.Endpoint{
		Name:      h.name + ".replace",
		Signature: filter.Sig(filter.PathInt("id"), filter.Body[V](h.name)),
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			id := filter.MustArg[int](inv, 0)
			if _, err := h.store.Get(inv.Context(), id); err != nil {
				return h.failure(err)
			}
			v := filter.MustArg[V](inv, 1)
			if out, ok := h.validate(v); !ok {
				return out
			}
			if _, err := h.store.Replace(inv.Context(), id, v); err != nil {
				return h.failure(err)
			}
			return outcome.NoContent()
		},
	}
}

// Delete removes a record.
func (h *ResourceHandlers[V]) Delete() route.Endpoint {
	return route.Endpoint{
		Name:      h.name + ".delete",
		Signature: filter.Sig(filter.PathInt("id")),
		Handler: func(inv *filter.Invocation) outcome.Outcome {
			if err := h.store.Delete(inv.Context(), filter.MustArg[int](inv, 0)); err != nil {
				return h.failure(err)
			}
			return outcome.NoContent()
		},
	}
}

func (h *ResourceHandlers[V]) validate(v V) (outcome.Outcome, bool) {
	fields := v.Missing()
	if len(fields) == 0 {
		return outcome.Outcome{}, true
	}
	errs := map[string][]string{h.name: {InvalidData}}
	for _, f := range fields {
		errs[f] = append(errs[f], "required")
	}
	return outcome.Validation(errs), false
}

// failure maps store errors to outcomes. Anything unexpected becomes a fault.
func (h *ResourceHandlers[V]) failure(err error) outcome.Outcome {
	switch {
	case errors.Is(err, resource.ErrNotFound):
		return outcome.NotFound()
	case errors.Is(err, resource.ErrConflict):
		return outcome.Conflict(fmt.Sprintf("A %s with this ID already exists.", h.name))
	default:
		return outcome.Fault(err)
	}
}
