// Package formatter renders tabular CLI output as a table, JSON or YAML.
package formatter

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Formatter writes a dataset in one output format.
type Formatter interface {
	// Name returns the formatter name (e.g., "table", "json", "yaml").
	Name() string

	// FormatList formats every row of the dataset.
	FormatList(w io.Writer, data Dataset, opts FormatOptions) error
}

// Dataset is a named list of rows sharing a column order.
type Dataset struct {
	Kind    string
	Columns []string
	Rows    []map[string]any
}

// FormatOptions configures formatting behavior.
type FormatOptions struct {
	// Columns restricts and orders the output (nil = dataset columns).
	Columns []string

	// NoHeader disables the header row for tables.
	NoHeader bool

	// Compact minimizes whitespace in JSON.
	Compact bool

	// MaxWidth truncates long table cells (0 = no limit).
	MaxWidth int
}

func (o FormatOptions) columns(d Dataset) []string {
	if len(o.Columns) > 0 {
		return o.Columns
	}
	return d.Columns
}

// project keeps only the selected columns of every row.
func project(d Dataset, columns []string) []map[string]any {
	out := make([]map[string]any, len(d.Rows))
	for i, row := range d.Rows {
		m := make(map[string]any, len(columns))
		for _, col := range columns {
			if v, ok := row[col]; ok {
				m[col] = v
			}
		}
		out[i] = m
	}
	return out
}

// Registry manages registered formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
}

// NewRegistry creates a registry holding the table, json and yaml formatters.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[string]Formatter)}
	for _, f := range []Formatter{Table{}, JSON{}, YAML{}} {
		r.formatters[f.Name()] = f
	}
	return r
}

// Register adds a formatter to the registry.
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Name()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Name())
	}
	r.formatters[f.Name()] = f
	return nil
}

// Get returns a formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.names())
	}
	return f, nil
}

// List returns all registered formatter names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}
