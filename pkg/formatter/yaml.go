package formatter

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAML formats output as a YAML document.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

// FormatList writes the same document shape as JSON.
func (YAML) FormatList(w io.Writer, data Dataset, opts FormatOptions) error {
	rows := project(data, opts.columns(data))
	out := map[string]any{
		"kind":  data.Kind,
		"count": len(rows),
		"data":  rows,
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(out)
}
