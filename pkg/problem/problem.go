// Package problem builds RFC 7807 problem details documents
// (application/problem+json).
package problem

import (
	"fmt"
	"net/http"
)

// Problem is an RFC 7807 problem details object. Errors and TraceID are
// extension members.
type Problem struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	TraceID  string              `json:"traceId,omitempty"`
}

// Builder provides a fluent API for building Problem objects.
type Builder struct {
	p Problem
}

// New creates a Builder for status with the default type and title for that
// status.
func New(status int) *Builder {
	return &Builder{
		p: Problem{
			Type:   TypeFor(status),
			Title:  http.StatusText(status),
			Status: status,
		},
	}
}

// Title overrides the title.
func (b *Builder) Title(title string) *Builder {
	b.p.Title = title
	return b
}

// Detail sets the detail message.
func (b *Builder) Detail(detail string) *Builder {
	b.p.Detail = detail
	return b
}

// Detailf sets the detail message with formatting.
func (b *Builder) Detailf(format string, args ...any) *Builder {
	b.p.Detail = fmt.Sprintf(format, args...)
	return b
}

// Instance sets the URI reference of this occurrence, normally the request
// path.
func (b *Builder) Instance(instance string) *Builder {
	b.p.Instance = instance
	return b
}

// Errors sets field level messages. The map is copied.
func (b *Builder) Errors(errs map[string][]string) *Builder {
	if len(errs) == 0 {
		return b
	}
	if b.p.Errors == nil {
		b.p.Errors = make(map[string][]string, len(errs))
	}
	for k, v := range errs {
		b.p.Errors[k] = append([]string(nil), v...)
	}
	return b
}

// Field adds messages for one field.
func (b *Builder) Field(name string, messages ...string) *Builder {
	if b.p.Errors == nil {
		b.p.Errors = make(map[string][]string)
	}
	b.p.Errors[name] = append(b.p.Errors[name], messages...)
	return b
}

// TraceID sets the trace identifier used to correlate logs.
func (b *Builder) TraceID(id string) *Builder {
	b.p.TraceID = id
	return b
}

// Build returns the constructed Problem.
func (b *Builder) Build() Problem {
	return b.p
}

// TypeFor returns the RFC 9110 section reference for status, used as the
// problem type.
func TypeFor(status int) string {
	if section, ok := rfc9110Sections[status]; ok {
		return "https://tools.ietf.org/html/rfc9110#section-" + section
	}
	return "about:blank"
}

var rfc9110Sections = map[int]string{
	http.StatusBadRequest:            "15.5.1",
	http.StatusUnauthorized:          "15.5.2",
	http.StatusForbidden:             "15.5.4",
	http.StatusNotFound:              "15.5.5",
	http.StatusMethodNotAllowed:      "15.5.6",
	http.StatusConflict:              "15.5.10",
	http.StatusRequestEntityTooLarge: "15.5.14",
	http.StatusUnprocessableEntity:   "15.5.21",
	http.StatusInternalServerError:   "15.6.1",
}

// Common problem constructors

// BadRequest creates a 400 problem.
func BadRequest(detail string) Problem {
	return New(http.StatusBadRequest).Detail(detail).Build()
}

// Validation creates a 400 problem carrying field level messages.
func Validation(errs map[string][]string) Problem {
	return New(http.StatusBadRequest).
		Title("One or more validation errors occurred.").
		Errors(errs).
		Build()
}

// Forbidden creates a 403 problem.
func Forbidden(detail string) Problem {
	if detail == "" {
		detail = "Access denied"
	}
	return New(http.StatusForbidden).Detail(detail).Build()
}

// NotFound creates a 404 problem.
func NotFound(detail string) Problem {
	return New(http.StatusNotFound).Detail(detail).Build()
}

// MethodNotAllowed creates a 405 problem.
func MethodNotAllowed(method string) Problem {
	return New(http.StatusMethodNotAllowed).
		Detailf("The %s method is not allowed for this resource", method).
		Build()
}

// Conflict creates a 409 problem.
func Conflict(detail string) Problem {
	return New(http.StatusConflict).Detail(detail).Build()
}

// Internal creates a 500 problem. The detail never carries the cause; callers
// pass a trace id so the failure can be found in the logs.
func Internal(traceID string) Problem {
	return New(http.StatusInternalServerError).
		Title("An error occurred while processing your request.").
		TraceID(traceID).
		Build()
}
