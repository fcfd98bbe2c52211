package formatter

import (
	"encoding/json"
	"io"
)

// JSON formats output as a JSON document.
type JSON struct{}

func (JSON) Name() string { return "json" }

// FormatList writes {"kind", "count", "data"}.
func (JSON) FormatList(w io.Writer, data Dataset, opts FormatOptions) error {
	rows := project(data, opts.columns(data))
	out := map[string]any{
		"kind":  data.Kind,
		"count": len(rows),
		"data":  rows,
	}

	encoder := json.NewEncoder(w)
	if !opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(out)
}
