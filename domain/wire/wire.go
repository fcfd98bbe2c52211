// Package wire provides transport-neutral request/response value types.
// Transports convert to and from these; the dispatcher never sees net/http.
package wire

import "net/url"

// Request represents an incoming API request (value type).
type Request struct {
	// HTTP request details
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte

	// Caller capabilities, taken from the configured tags header
	CallerTags []string

	// Metadata
	RemoteIP  string
	UserAgent string
	RequestID string
}

// Response represents the translated outcome of a request (value type).
// Body is nil for empty responses and is otherwise serialized by the
// transport.
type Response struct {
	Status      int
	Headers     map[string]string
	ContentType string
	Body        any

	// Metadata (for logging and metrics)
	Route   string // Template of the matched route, empty on a miss
	Kind    string // Outcome kind
	TraceID string // Set for internal errors
}

// Content types written by transports.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeProblem = "application/problem+json"
	ContentTypeText    = "text/plain; charset=utf-8"
)

// HasBody reports whether the response carries a body.
func (r Response) HasBody() bool {
	return r.Body != nil
}
