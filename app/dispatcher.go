package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/artpar/minapi/domain/filter"
	"github.com/artpar/minapi/domain/outcome"
	"github.com/artpar/minapi/domain/route"
	"github.com/artpar/minapi/domain/wire"
	"github.com/artpar/minapi/pkg/problem"
	"github.com/artpar/minapi/ports"
	"github.com/rs/zerolog"
)

// Kinds reported for requests that never reach a route.
const (
	KindRouteNotFound    = "route_not_found"
	KindMethodNotAllowed = "method_not_allowed"
)

// Dispatcher resolves requests to routes, binds their arguments, runs the
// filter chain and translates the outcome to a wire response.
type Dispatcher struct {
	registry *route.Registry
	ids      ports.IDGenerator
	outcomes ports.OutcomeRecorder
	logger   zerolog.Logger
}

// DispatcherDeps contains dependencies for Dispatcher.
type DispatcherDeps struct {
	Registry *route.Registry
	IDGen    ports.IDGenerator     // Trace ids for internal errors
	Outcomes ports.OutcomeRecorder // Optional
	Logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher and seals the registry: no routes can be
// added once requests may be served.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	deps.Registry.Seal()
	return &Dispatcher{
		registry: deps.Registry,
		ids:      deps.IDGen,
		outcomes: deps.Outcomes,
		logger:   deps.Logger.With().Str("service", "dispatcher").Logger(),
	}
}

// Registry returns the sealed route registry.
func (d *Dispatcher) Registry() *route.Registry {
	return d.registry
}

// HealthCheck reports whether the dispatcher can serve: the registry must be
// sealed and hold at least one route.
func (d *Dispatcher) HealthCheck(ctx context.Context) error {
	if !d.registry.Sealed() {
		return errors.New("route registry is not sealed")
	}
	if len(d.registry.Routes()) == 0 {
		return errors.New("no routes registered")
	}
	return nil
}

// Dispatch handles one request. It never panics and never returns an error:
// every failure is expressed as a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req wire.Request) wire.Response {
	m, err := d.registry.Resolve(req.Method, req.Path)
	if err != nil {
		return d.miss(req, err)
	}

	inv := filter.NewInvocation(ctx, m.Route.Method, req.Path)
	inv.Template = m.Route.Template.String()
	inv.PathParams = m.PathParams
	if req.Query != nil {
		inv.Query = req.Query
	}
	inv.Body = req.Body
	inv.CallerTags = req.CallerTags
	inv.RouteTags = m.Route.Tags

	if err := m.Route.Endpoint.Signature.Bind(inv); err != nil {
		inv.ShortCircuit(bindingOutcome(err))
	}

	out, ok := inv.Early()
	if !ok {
		out = d.invoke(m.Route, inv)
	}

	resp := d.translate(req, out)
	resp.Route = inv.Template
	d.record(m.Route.Method, resp.Route, resp.Kind)
	return resp
}

// invoke runs the chain and converts a panic into a fault.
func (d *Dispatcher) invoke(rt *route.Route, inv *filter.Invocation) (out outcome.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			out = outcome.Fault(&PanicError{Value: err, Stack: debug.Stack()})
		}
	}()
	return rt.Invoke(inv)
}

// PanicError wraps a value recovered from a handler or filter.
type PanicError struct {
	Value error
	Stack []byte
}

func (e *PanicError) Error() string {
	return "panic: " + e.Value.Error()
}

func (e *PanicError) Unwrap() error {
	return e.Value
}

func bindingOutcome(err error) outcome.Outcome {
	var be *filter.BindingError
	if errors.As(err, &be) {
		return outcome.BadRequest(map[string][]string{be.Param: {be.Reason}}).
			WithDetail(fmt.Sprintf("Failed to bind %s parameter %q.", be.Source, be.Param))
	}
	return outcome.BadRequest(nil).WithDetail(err.Error())
}

func (d *Dispatcher) miss(req wire.Request, err error) wire.Response {
	var nm *route.NoRouteMatchError
	if !errors.As(err, &nm) {
		return d.translate(req, outcome.Fault(err))
	}

	var resp wire.Response
	if allowed := d.registry.AllowedMethods(req.Path); len(allowed) > 0 {
		resp = problemResponse(problem.New(http.StatusMethodNotAllowed).
			Detailf("The %s method is not allowed for this resource", nm.Method).
			Instance(req.Path).
			Build())
		resp.Headers = map[string]string{"Allow": strings.Join(allowed, ", ")}
		resp.Kind = KindMethodNotAllowed
	} else {
		resp = problemResponse(problem.New(http.StatusNotFound).Instance(req.Path).Build())
		resp.Kind = KindRouteNotFound
	}
	d.record(nm.Method, "", resp.Kind)
	return resp
}

// translate maps an outcome to a wire response.
func (d *Dispatcher) translate(req wire.Request, out outcome.Outcome) wire.Response {
	resp := wire.Response{
		Status: out.StatusCode(),
		Kind:   out.Kind.String(),
	}

	switch out.Kind {
	case outcome.KindOk, outcome.KindCreated:
		resp.Body = out.Payload
		resp.ContentType = wire.ContentTypeJSON
		if _, isText := out.Payload.(string); isText {
			resp.ContentType = wire.ContentTypeText
		}
	case outcome.KindNoContent:
	case outcome.KindInternal:
		resp.TraceID = d.traceID(req)
		d.logFault(req, out, resp.TraceID)
		p := problem.Internal(resp.TraceID)
		resp.Body = p
		resp.ContentType = wire.ContentTypeProblem
	default:
		resp.Body = problemFor(req, out)
		resp.ContentType = wire.ContentTypeProblem
	}

	if len(out.Headers) > 0 || out.Location != "" {
		resp.Headers = make(map[string]string, len(out.Headers)+1)
		for k, v := range out.Headers {
			resp.Headers[k] = v
		}
		if out.Location != "" {
			resp.Headers["Location"] = out.Location
		}
	}
	return resp
}

func problemFor(req wire.Request, out outcome.Outcome) problem.Problem {
	b := problem.New(out.StatusCode()).Instance(req.Path).Errors(out.Errors)
	switch out.Kind {
	case outcome.KindValidation:
		b.Title("One or more validation errors occurred.")
	case outcome.KindBadRequest:
		b.Title("The request could not be bound to the endpoint parameters.")
	}
	if out.Detail != "" {
		b.Detail(out.Detail)
	}
	return b.Build()
}

func problemResponse(p problem.Problem) wire.Response {
	return wire.Response{
		Status:      p.Status,
		Body:        p,
		ContentType: wire.ContentTypeProblem,
	}
}

func (d *Dispatcher) traceID(req wire.Request) string {
	if d.ids != nil {
		return d.ids.New()
	}
	return req.RequestID
}

func (d *Dispatcher) logFault(req wire.Request, out outcome.Outcome, traceID string) {
	ev := d.logger.Error().
		Str("trace_id", traceID).
		Str("request_id", req.RequestID).
		Str("method", req.Method).
		Str("path", req.Path)
	if out.Cause != nil {
		ev = ev.Err(out.Cause)
	}
	var pe *PanicError
	if errors.As(out.Cause, &pe) {
		ev = ev.Bytes("stack", pe.Stack)
	}
	ev.Msg("unhandled fault")
}

func (d *Dispatcher) record(method, routeTemplate, kind string) {
	if d.outcomes != nil {
		d.outcomes.RecordOutcome(method, routeTemplate, kind)
	}
}
