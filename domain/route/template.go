package route

import (
	"fmt"
	"strings"
)

// SegmentKind classifies one template segment.
type SegmentKind int

const (
	SegmentLiteral   SegmentKind = iota // person
	SegmentRequired                     // {id}
	SegmentOptional                     // {id?}, final segment only
	SegmentDefaulted                    // {page=1}
)

// Segment is one slash-separated part of a template (value type).
type Segment struct {
	Kind    SegmentKind
	Value   string // Literal text, or the capture name
	Default string // SegmentDefaulted only
}

// Omittable reports whether a request path may leave the segment out.
func (s Segment) Omittable() bool {
	return s.Kind == SegmentOptional || s.Kind == SegmentDefaulted
}

func (s Segment) String() string {
	switch s.Kind {
	case SegmentRequired:
		return "{" + s.Value + "}"
	case SegmentOptional:
		return "{" + s.Value + "?}"
	case SegmentDefaulted:
		return "{" + s.Value + "=" + s.Default + "}"
	default:
		return s.Value
	}
}

// Template is a parsed path template (immutable value type).
type Template struct {
	segments []Segment
	required int // Number of leading segments a path must supply
}

// TemplateError is returned for malformed templates.
type TemplateError struct {
	Template string
	Reason   string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("invalid route template %q: %s", e.Template, e.Reason)
}

// ParseTemplate parses a path template such as "/person/{id}".
// Leading and trailing slashes are ignored.
func ParseTemplate(raw string) (Template, error) {
	parts := splitPath(raw)
	t := Template{segments: make([]Segment, 0, len(parts)), required: len(parts)}
	seen := make(map[string]bool)
	fail := func(format string, args ...any) (Template, error) {
		return Template{}, &TemplateError{Template: raw, Reason: fmt.Sprintf(format, args...)}
	}

	for i, part := range parts {
		if part == "" {
			return fail("empty segment at position %d", i)
		}
		seg, err := parseSegment(part)
		if err != nil {
			return fail("%s", err.Error())
		}
		if seg.Kind != SegmentLiteral {
			if seen[seg.Value] {
				return fail("duplicate parameter %q", seg.Value)
			}
			seen[seg.Value] = true
		}

		switch seg.Kind {
		case SegmentOptional:
			if i != len(parts)-1 {
				return fail("optional parameter %q must be the final segment", seg.Value)
			}
		case SegmentLiteral, SegmentRequired:
			if t.required < len(parts) {
				return fail("segment %q follows an omittable segment", part)
			}
		}
		if seg.Omittable() && t.required == len(parts) {
			t.required = i
		}
		t.segments = append(t.segments, seg)
	}
	return t, nil
}

// MustParseTemplate is like ParseTemplate but panics on error.
func MustParseTemplate(raw string) Template {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func parseSegment(part string) (Segment, error) {
	if !strings.HasPrefix(part, "{") {
		if strings.ContainsAny(part, "{}") {
			return Segment{}, fmt.Errorf("literal segment %q contains a brace", part)
		}
		return Segment{Kind: SegmentLiteral, Value: part}, nil
	}
	if !strings.HasSuffix(part, "}") {
		return Segment{}, fmt.Errorf("unterminated parameter %q", part)
	}
	inner := part[1 : len(part)-1]

	seg := Segment{Kind: SegmentRequired, Value: inner}
	if name, def, ok := strings.Cut(inner, "="); ok {
		seg = Segment{Kind: SegmentDefaulted, Value: name, Default: def}
	} else if name, ok := strings.CutSuffix(inner, "?"); ok {
		seg = Segment{Kind: SegmentOptional, Value: name}
	}

	if !validName(seg.Value) {
		return Segment{}, fmt.Errorf("invalid parameter name %q", seg.Value)
	}
	if strings.ContainsAny(seg.Default, "{}/") {
		return Segment{}, fmt.Errorf("invalid default for %q", seg.Value)
	}
	return seg, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// splitPath trims the outer slashes and splits on "/". The root path has no
// segments.
func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// String returns the normalized template, e.g. "/person/{id}".
func (t Template) String() string {
	var b strings.Builder
	for _, s := range t.segments {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Key returns the resolved form used for uniqueness: capture names and
// defaults are erased, so "/person/{id}" and "/person/{pid}" share a key.
func (t Template) Key() string {
	var b strings.Builder
	for _, s := range t.segments {
		b.WriteByte('/')
		switch s.Kind {
		case SegmentLiteral:
			b.WriteString(s.Value)
		case SegmentRequired:
			b.WriteString("{}")
		default:
			b.WriteString("{?}")
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// Segments returns a copy of the parsed segments.
func (t Template) Segments() []Segment {
	return append([]Segment(nil), t.segments...)
}

// Params returns the capture names in order.
func (t Template) Params() []string {
	var names []string
	for _, s := range t.segments {
		if s.Kind != SegmentLiteral {
			names = append(names, s.Value)
		}
	}
	return names
}

// HasParam reports whether the template captures name.
func (t Template) HasParam(name string) bool {
	for _, s := range t.segments {
		if s.Kind != SegmentLiteral && s.Value == name {
			return true
		}
	}
	return false
}

// Literals returns the number of literal segments.
func (t Template) Literals() int {
	n := 0
	for _, s := range t.segments {
		if s.Kind == SegmentLiteral {
			n++
		}
	}
	return n
}

// Join appends child's segments to t. Used for group prefixes.
func (t Template) Join(child Template) (Template, error) {
	return ParseTemplate(strings.TrimSuffix(t.String(), "/") + child.String())
}

// Match matches a request path against the template. It returns the captured
// parameters (defaults filled in for omitted defaulted segments) and the
// number of omitted segments.
func (t Template) Match(path string) (map[string]string, int, bool) {
	parts := splitPath(path)
	if len(parts) < t.required || len(parts) > len(t.segments) {
		return nil, 0, false
	}

	params := make(map[string]string, len(t.segments))
	for i, seg := range t.segments {
		if i >= len(parts) {
			if seg.Kind == SegmentDefaulted {
				params[seg.Value] = seg.Default
			}
			continue
		}
		part := parts[i]
		switch seg.Kind {
		case SegmentLiteral:
			if part != seg.Value {
				return nil, 0, false
			}
		default:
			if part == "" {
				return nil, 0, false
			}
			params[seg.Value] = part
		}
	}
	return params, len(t.segments) - len(parts), true
}
