package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Source is where a handler parameter's value comes from.
type Source int

const (
	SourcePath Source = iota
	SourceQuery
	SourceBody
)

func (s Source) String() string {
	switch s {
	case SourcePath:
		return "path"
	case SourceQuery:
		return "query"
	case SourceBody:
		return "body"
	default:
		return "unknown"
	}
}

// Type is the declared type of a handler parameter.
type Type int

const (
	TypeInt Type = iota
	TypeString
	TypeBody // decoded into a concrete Go value
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeBody:
		return "body"
	default:
		return "unknown"
	}
}

// Param describes one handler parameter (value type).
type Param struct {
	Name     string
	Type     Type
	Source   Source
	Optional bool // Missing values bind to the zero value instead of failing

	decode func(data []byte) (any, error)
}

// PathInt declares an integer path parameter.
func PathInt(name string) Param {
	return Param{Name: name, Type: TypeInt, Source: SourcePath}
}

// PathString declares a string path parameter.
func PathString(name string) Param {
	return Param{Name: name, Type: TypeString, Source: SourcePath}
}

// QueryString declares an optional string query parameter.
func QueryString(name string) Param {
	return Param{Name: name, Type: TypeString, Source: SourceQuery, Optional: true}
}

// QueryInt declares an optional integer query parameter.
func QueryInt(name string) Param {
	return Param{Name: name, Type: TypeInt, Source: SourceQuery, Optional: true}
}

// Body declares a required request body decoded as JSON into T.
// The bound argument has type T.
func Body[T any](name string) Param {
	return Param{
		Name:   name,
		Type:   TypeBody,
		Source: SourceBody,
		decode: func(data []byte) (any, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// AsOptional returns a copy of p that binds the zero value when missing.
func (p Param) AsOptional() Param {
	p.Optional = true
	return p
}

func (p Param) zero() any {
	switch p.Type {
	case TypeInt:
		return 0
	case TypeString:
		return ""
	default:
		return nil
	}
}

// Signature is the ordered parameter list of a handler, captured once at
// registration.
type Signature []Param

// Sig builds a signature.
func Sig(params ...Param) Signature {
	return Signature(params)
}

// Index returns the position of the first parameter named name, or -1.
func (s Signature) Index(name string) int {
	for i, p := range s {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Validate checks the signature is well formed: unique names and at most one
// body parameter.
func (s Signature) Validate() error {
	seen := make(map[string]bool, len(s))
	bodies := 0
	for _, p := range s {
		if p.Name == "" {
			return fmt.Errorf("parameter name is required")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true
		if p.Source == SourceBody {
			bodies++
			if p.decode == nil {
				return fmt.Errorf("body parameter %q has no decoder, declare it with filter.Body", p.Name)
			}
		}
	}
	if bodies > 1 {
		return fmt.Errorf("at most one body parameter is allowed, got %d", bodies)
	}
	return nil
}

// BindingError is returned when a request value cannot be bound to a declared
// parameter.
type BindingError struct {
	Param  string
	Source Source
	Reason string
	Err    error
}

func (e *BindingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bind %s parameter %q: %s: %v", e.Source, e.Param, e.Reason, e.Err)
	}
	return fmt.Sprintf("bind %s parameter %q: %s", e.Source, e.Param, e.Reason)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// Bind reads the invocation's path, query and body values into inv.Args,
// positionally. It does not inspect the values beyond type coercion.
func (s Signature) Bind(inv *Invocation) error {
	args := make([]any, len(s))
	for i, p := range s {
		v, err := p.bind(inv)
		if err != nil {
			return err
		}
		args[i] = v
	}
	inv.Args = args
	return nil
}

func (p Param) bind(inv *Invocation) (any, error) {
	switch p.Source {
	case SourcePath:
		raw, ok := inv.PathParams[p.Name]
		if !ok {
			if p.Optional {
				return p.zero(), nil
			}
			return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "missing value"}
		}
		return p.coerce(raw)

	case SourceQuery:
		raw := inv.Query.Get(p.Name)
		if raw == "" {
			if p.Optional {
				return p.zero(), nil
			}
			return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "missing value"}
		}
		return p.coerce(raw)

	case SourceBody:
		if len(inv.Body) == 0 {
			if p.Optional {
				return nil, nil
			}
			return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "request body is required"}
		}
		v, err := p.decode(inv.Body)
		if err != nil {
			return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "malformed body", Err: err}
		}
		return v, nil
	}
	return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "unsupported source"}
}

func (p Param) coerce(raw string) (any, error) {
	switch p.Type {
	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "must be an integer", Err: err}
		}
		return n, nil
	case TypeString:
		return raw, nil
	}
	return nil, &BindingError{Param: p.Name, Source: p.Source, Reason: "unsupported type " + p.Type.String()}
}
