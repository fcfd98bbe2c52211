// Package filter provides the request filter chain: composable units that wrap
// a handler, run before and after it, and may short-circuit with their own
// outcome. Chains are composed once at route registration; every request gets
// its own Invocation and shares no mutable chain state.
package filter

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/artpar/minapi/domain/outcome"
)

// Handler produces an outcome for an invocation. The terminal route handler
// and every "rest of the chain" continuation share this type.
type Handler func(inv *Invocation) outcome.Outcome

// Filter wraps the rest of the chain. It may call next and pass the result
// through, call next and post-process the result, or return an outcome
// without calling next.
type Filter interface {
	Invoke(inv *Invocation, next Handler) outcome.Outcome
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(inv *Invocation, next Handler) outcome.Outcome

// Invoke calls f.
func (f FilterFunc) Invoke(inv *Invocation, next Handler) outcome.Outcome {
	return f(inv, next)
}

// Namer is implemented by filters that describe themselves in route listings.
type Namer interface {
	Name() string
}

type namedFilter struct {
	name string
	Filter
}

func (n namedFilter) Name() string { return n.name }

// Named attaches a display name to f.
func Named(name string, f Filter) Filter {
	return namedFilter{name: name, Filter: f}
}

// NameOf returns the display name of f, or "anonymous".
func NameOf(f Filter) string {
	if n, ok := f.(Namer); ok {
		return n.Name()
	}
	return "anonymous"
}

// Passthrough calls next immediately.
var Passthrough Filter = Named("passthrough", FilterFunc(func(inv *Invocation, next Handler) outcome.Outcome {
	return next(inv)
}))

// Compose folds filters around h from the right, so filters[0] is outermost:
// for [A, B] the pre-handler order is A, B, h and the post-handler order is
// B, A.
//
// A filter that called next may decorate the inner outcome but cannot change
// its kind; if it tries, the inner outcome is returned instead.
func Compose(h Handler, filters ...Filter) Handler {
	next := h
	for i := len(filters) - 1; i >= 0; i-- {
		next = wrap(filters[i], next)
	}
	return next
}

func wrap(f Filter, inner Handler) Handler {
	return func(inv *Invocation) outcome.Outcome {
		var (
			called   bool
			innerOut outcome.Outcome
		)
		out := f.Invoke(inv, func(inv *Invocation) outcome.Outcome {
			called = true
			innerOut = inner(inv)
			return innerOut
		})
		if called && out.Kind != innerOut.Kind {
			return innerOut
		}
		return out
	}
}

// Invocation is the per-request context a chain runs against.
type Invocation struct {
	ctx context.Context

	Method     string
	Path       string
	Template   string            // Template of the matched route
	PathParams map[string]string // Captured (or defaulted) path segments
	Query      url.Values
	Body       []byte

	// Args holds the bound handler arguments, positionally matching the
	// route's Signature.
	Args []any

	CallerTags []string // Capabilities presented by the caller
	RouteTags  []string // Capabilities declared by the route

	early *outcome.Outcome
}

// NewInvocation creates an invocation for one request.
func NewInvocation(ctx context.Context, method, path string) *Invocation {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Invocation{
		ctx:        ctx,
		Method:     method,
		Path:       path,
		PathParams: map[string]string{},
		Query:      url.Values{},
	}
}

// Context returns the request context.
func (inv *Invocation) Context() context.Context {
	return inv.ctx
}

// Arg returns the bound argument at index i, or nil if out of range.
func (inv *Invocation) Arg(i int) any {
	if i < 0 || i >= len(inv.Args) {
		return nil
	}
	return inv.Args[i]
}

// ShortCircuit records a result decided while binding arguments. The
// dispatcher reads it once, before the chain starts; filters end a chain by
// returning an outcome without calling next.
func (inv *Invocation) ShortCircuit(o outcome.Outcome) {
	inv.early = &o
}

// Early returns the recorded early result, if any.
func (inv *Invocation) Early() (outcome.Outcome, bool) {
	if inv.early == nil {
		return outcome.Outcome{}, false
	}
	return *inv.early, true
}

// HasCallerTag reports whether the caller presented tag.
func (inv *Invocation) HasCallerTag(tag string) bool {
	return slices.Contains(inv.CallerTags, tag)
}

// ArgAs returns the argument at index i converted to T. The second result is
// false when the index is out of range or the value has another type.
func ArgAs[T any](inv *Invocation, i int) (T, bool) {
	v, ok := inv.Arg(i).(T)
	return v, ok
}

// MustArg returns the argument at index i as T and panics otherwise. Handlers
// use it for arguments their own signature guarantees; a panic here is a
// programming error and surfaces as an internal error.
func MustArg[T any](inv *Invocation, i int) T {
	v, ok := ArgAs[T](inv, i)
	if !ok {
		panic(fmt.Sprintf("filter: argument %d is %T, not %T", i, inv.Arg(i), v))
	}
	return v
}
