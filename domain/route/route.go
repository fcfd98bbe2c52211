// Package route provides the route registry: path templates, registration of
// endpoints with their filters, and request path resolution.
//
// Routes are registered once at startup. Every registration composes the
// route's filter chain up front, and the registry is sealed before serving;
// after that it is read-only and resolution takes no locks.
package route

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
)

// ErrSealed is returned when registering on a sealed registry.
var ErrSealed = errors.New("route registry is sealed")

// Endpoint is the terminal handler of a route plus its declared signature.
type Endpoint struct {
	Name      string
	Signature filter.Signature
	Handler   filter.Handler
}

// FilterKind tells how a filter was attached.
type FilterKind string

const (
	FilterStatic  FilterKind = "static"  // Attached explicitly to the route or its group
	FilterFactory FilterKind = "factory" // Synthesized from the route at registration
)

// FilterDescriptor describes one filter in a route's chain (value type).
type FilterDescriptor struct {
	Kind   FilterKind
	Order  int // Position in the chain, 0 is outermost
	Name   string
	Filter filter.Filter
}

// Route is a registered endpoint. Routes are immutable once registered.
type Route struct {
	Method   string
	Template Template
	Endpoint Endpoint
	Tags     []string
	Filters  []FilterDescriptor

	seq   int
	chain filter.Handler
}

// Invoke runs the composed chain for inv.
func (r *Route) Invoke(inv *filter.Invocation) outcome.Outcome {
	return r.chain(inv)
}

// Key returns the uniqueness key of the route.
func (r *Route) Key() string {
	return routeKey(r.Method, r.Template)
}

func (r *Route) String() string {
	return r.Method + " " + r.Template.String()
}

func routeKey(method string, t Template) string {
	return method + " " + t.Key()
}

// Match is a resolved route plus the extracted path parameters.
type Match struct {
	Route      *Route
	PathParams map[string]string
}

// DuplicateRouteError is returned when a (method, template) pair is already
// registered.
type DuplicateRouteError struct {
	Method   string
	Template string
	Existing string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("route %s %s conflicts with existing route %s", e.Method, e.Template, e.Existing)
}

// NoRouteMatchError is returned when no route matches a request.
type NoRouteMatchError struct {
	Method string
	Path   string
}

func (e *NoRouteMatchError) Error() string {
	return fmt.Sprintf("no route matches %s %s", e.Method, e.Path)
}

// Registration is the full description of a route to register.
type Registration struct {
	Method    string
	Template  string
	Endpoint  Endpoint
	Filters   []filter.Filter  // Static filters, in order
	Factories []filter.Factory // Route factories, run after the registry's global factories
	Tags      []string         // Capabilities a caller must present
}

// Registry holds all registered routes.
type Registry struct {
	mu        sync.Mutex
	factories []filter.Factory
	routes    []*Route
	byKey     map[string]*Route
	sealed    bool

	// Snapshot read by Resolve. Replaced on every registration.
	table atomic.Pointer[[]*Route]
}

// NewRegistry creates a registry. Global factories are applied to every
// route, in order, before the route's own filters.
func NewRegistry(factories ...filter.Factory) *Registry {
	r := &Registry{
		factories: factories,
		byKey:     make(map[string]*Route),
	}
	empty := []*Route{}
	r.table.Store(&empty)
	return r
}

// Register registers an endpoint with static filters.
func (r *Registry) Register(method, template string, ep Endpoint, filters ...filter.Filter) (*Route, error) {
	return r.Add(Registration{Method: method, Template: template, Endpoint: ep, Filters: filters})
}

// Add registers a route from a full registration.
func (r *Registry) Add(reg Registration) (*Route, error) {
	t, err := ParseTemplate(reg.Template)
	if err != nil {
		return nil, err
	}
	return r.add(reg, t, nil)
}

func (r *Registry) add(reg Registration, t Template, groupFilters []filter.Filter) (*Route, error) {
	method := strings.ToUpper(strings.TrimSpace(reg.Method))
	if method == "" {
		return nil, fmt.Errorf("route %s: method is required", t)
	}
	if reg.Endpoint.Handler == nil {
		return nil, fmt.Errorf("route %s %s: handler is required", method, t)
	}
	if err := reg.Endpoint.Signature.Validate(); err != nil {
		return nil, fmt.Errorf("route %s %s: %w", method, t, err)
	}
	for _, p := range reg.Endpoint.Signature {
		if p.Source == filter.SourcePath && !t.HasParam(p.Name) {
			return nil, fmt.Errorf("route %s %s: path parameter %q is not in the template", method, t, p.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil, ErrSealed
	}
	key := routeKey(method, t)
	if existing, ok := r.byKey[key]; ok {
		return nil, &DuplicateRouteError{Method: method, Template: t.String(), Existing: existing.String()}
	}

	rt := &Route{
		Method:   method,
		Template: t,
		Endpoint: reg.Endpoint,
		Tags:     append([]string(nil), reg.Tags...),
		seq:      len(r.routes),
	}

	fc := filter.FactoryContext{
		Method:    method,
		Template:  t.String(),
		Signature: reg.Endpoint.Signature,
		Tags:      rt.Tags,
	}
	var chain []filter.Filter
	appendFilter := func(kind FilterKind, f filter.Filter) {
		if f == nil {
			return
		}
		rt.Filters = append(rt.Filters, FilterDescriptor{Kind: kind, Order: len(chain), Name: filter.NameOf(f), Filter: f})
		chain = append(chain, f)
	}
	for _, factory := range r.factories {
		appendFilter(FilterFactory, factory(fc))
	}
	for _, factory := range reg.Factories {
		appendFilter(FilterFactory, factory(fc))
	}
	for _, f := range groupFilters {
		appendFilter(FilterStatic, f)
	}
	for _, f := range reg.Filters {
		appendFilter(FilterStatic, f)
	}
	rt.chain = filter.Compose(reg.Endpoint.Handler, chain...)

	r.routes = append(r.routes, rt)
	r.byKey[key] = rt
	snapshot := append([]*Route(nil), r.routes...)
	r.table.Store(&snapshot)
	return rt, nil
}

// Seal makes the registry read-only. Further registrations fail with
// ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether the registry is sealed.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []*Route {
	return append([]*Route(nil), *r.table.Load()...)
}

// Resolve finds the route for method and path. When several templates match,
// the one with more literal segments wins, then the one omitting fewer
// segments, then the earliest registered.
func (r *Registry) Resolve(method, path string) (Match, error) {
	method = strings.ToUpper(method)

	var (
		best        *Route
		bestParams  map[string]string
		bestOmitted int
	)
	for _, rt := range *r.table.Load() {
		if rt.Method != method {
			continue
		}
		params, omitted, ok := rt.Template.Match(path)
		if !ok {
			continue
		}
		if best == nil || better(rt, omitted, best, bestOmitted) {
			best, bestParams, bestOmitted = rt, params, omitted
		}
	}
	if best == nil {
		return Match{}, &NoRouteMatchError{Method: method, Path: path}
	}
	return Match{Route: best, PathParams: bestParams}, nil
}

func better(a *Route, aOmitted int, b *Route, bOmitted int) bool {
	if la, lb := a.Template.Literals(), b.Template.Literals(); la != lb {
		return la > lb
	}
	if aOmitted != bOmitted {
		return aOmitted < bOmitted
	}
	return a.seq < b.seq
}

// AllowedMethods returns the methods registered for routes matching path.
func (r *Registry) AllowedMethods(path string) []string {
	var methods []string
	seen := make(map[string]bool)
	for _, rt := range *r.table.Load() {
		if seen[rt.Method] {
			continue
		}
		if _, _, ok := rt.Template.Match(path); ok {
			seen[rt.Method] = true
			methods = append(methods, rt.Method)
		}
	}
	return methods
}

// Group registers routes under a shared prefix, filter set and tag set.
type Group struct {
	registry *Registry
	prefix   Template
	filters  []filter.Filter
	tags     []string
	err      error
}

// Group creates a route group. Group filters run before each member route's
// own filters.
func (r *Registry) Group(prefix string, filters ...filter.Filter) *Group {
	t, err := ParseTemplate(prefix)
	return &Group{registry: r, prefix: t, filters: filters, err: err}
}

// WithTags returns the group with tags added to every member route.
func (g *Group) WithTags(tags ...string) *Group {
	g.tags = append(g.tags, tags...)
	return g
}

// Prefix returns the group's template prefix.
func (g *Group) Prefix() string {
	return g.prefix.String()
}

// Register registers an endpoint relative to the group prefix.
func (g *Group) Register(method, template string, ep Endpoint, filters ...filter.Filter) (*Route, error) {
	return g.Add(Registration{Method: method, Template: template, Endpoint: ep, Filters: filters})
}

// Add registers a full registration relative to the group prefix.
func (g *Group) Add(reg Registration) (*Route, error) {
	if g.err != nil {
		return nil, g.err
	}
	child, err := ParseTemplate(reg.Template)
	if err != nil {
		return nil, err
	}
	t, err := g.prefix.Join(child)
	if err != nil {
		return nil, err
	}
	reg.Tags = append(append([]string(nil), g.tags...), reg.Tags...)
	return g.registry.add(reg, t, g.filters)
}
