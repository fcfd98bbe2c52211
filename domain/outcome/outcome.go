// Package outcome provides the result value produced by handlers and filters.
// Outcomes are plain values: validation failures, conflicts and missing records
// travel through the filter chain like any other result.
package outcome

import (
	"net/http"
)

// Kind is the status category of an outcome.
type Kind int

const (
	KindOk Kind = iota
	KindCreated
	KindNoContent
	KindNotFound
	KindConflict
	KindValidation
	KindBadRequest // argument binding failed
	KindForbidden  // caller lacks a declared route tag
	KindInternal
)

var kindNames = map[Kind]string{
	KindOk:         "ok",
	KindCreated:    "created",
	KindNoContent:  "no_content",
	KindNotFound:   "not_found",
	KindConflict:   "conflict",
	KindValidation: "validation_error",
	KindBadRequest: "bad_request",
	KindForbidden:  "forbidden",
	KindInternal:   "internal_error",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// StatusCode returns the HTTP status code any hosting transport must use.
func (k Kind) StatusCode() int {
	switch k {
	case KindOk:
		return http.StatusOK
	case KindCreated:
		return http.StatusCreated
	case KindNoContent:
		return http.StatusNoContent
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsError reports whether the kind is a 4xx or 5xx category.
func (k Kind) IsError() bool {
	return k.StatusCode() >= 400
}

// Outcome is the result of a handler or filter (value type).
type Outcome struct {
	Kind     Kind
	Payload  any
	Location string              // Created only: /{resource}/{id}
	Headers  map[string]string   // Extra response headers
	Errors   map[string][]string // Field -> messages, for validation and binding failures
	Detail   string              // Human readable detail for problem responses

	// Cause is the underlying fault of an internal error. It is logged, never
	// sent to the caller.
	Cause error
}

// Ok returns a 200 outcome carrying v.
func Ok(v any) Outcome {
	return Outcome{Kind: KindOk, Payload: v}
}

// Created returns a 201 outcome with a location reference.
func Created(location string, v any) Outcome {
	return Outcome{Kind: KindCreated, Payload: v, Location: location}
}

// NoContent returns a 204 outcome.
func NoContent() Outcome {
	return Outcome{Kind: KindNoContent}
}

// NotFound returns a 404 outcome.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound}
}

// Conflict returns a 409 outcome.
func Conflict(detail string) Outcome {
	return Outcome{Kind: KindConflict, Detail: detail}
}

// Validation returns a validation outcome with field-level messages.
func Validation(errs map[string][]string) Outcome {
	return Outcome{Kind: KindValidation, Errors: errs}
}

// ValidationField is shorthand for a single-field validation outcome.
func ValidationField(field string, messages ...string) Outcome {
	return Validation(map[string][]string{field: messages})
}

// BadRequest returns an argument binding outcome.
func BadRequest(errs map[string][]string) Outcome {
	return Outcome{Kind: KindBadRequest, Errors: errs}
}

// Forbidden returns a 403 outcome.
func Forbidden(detail string) Outcome {
	return Outcome{Kind: KindForbidden, Detail: detail}
}

// Fault wraps an unexpected error as an internal outcome.
func Fault(err error) Outcome {
	return Outcome{Kind: KindInternal, Cause: err}
}

// StatusCode returns the status code for the outcome's kind.
func (o Outcome) StatusCode() int {
	return o.Kind.StatusCode()
}

// WithHeader returns a copy of the outcome with a header set.
func (o Outcome) WithHeader(name, value string) Outcome {
	headers := make(map[string]string, len(o.Headers)+1)
	for k, v := range o.Headers {
		headers[k] = v
	}
	headers[name] = value
	o.Headers = headers
	return o
}

// WithDetail returns a copy of the outcome with a detail message.
func (o Outcome) WithDetail(detail string) Outcome {
	o.Detail = detail
	return o
}
