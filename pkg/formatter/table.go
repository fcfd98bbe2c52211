package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table formats output as aligned text columns.
type Table struct{}

func (Table) Name() string { return "table" }

// FormatList writes one line per row under an upper-cased header.
func (t Table) FormatList(w io.Writer, data Dataset, opts FormatOptions) error {
	if len(data.Rows) == 0 {
		fmt.Fprintf(w, "No %s found.\n", data.Kind)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	columns := opts.columns(data)

	if !opts.NoHeader {
		headers := make([]string, len(columns))
		for i, col := range columns {
			headers[i] = strings.ToUpper(col)
		}
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}

	for _, row := range data.Rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = FormatValue(row[col], opts.MaxWidth)
		}
		fmt.Fprintln(tw, strings.Join(values, "\t"))
	}

	return tw.Flush()
}

// FormatValue renders one cell. Slices of strings are joined with " > ".
func FormatValue(val any, maxWidth int) string {
	var str string
	switch v := val.(type) {
	case nil:
		return "-"
	case string:
		str = v
	case []string:
		if len(v) == 0 {
			return "-"
		}
		str = strings.Join(v, " > ")
	case bool:
		if v {
			str = "yes"
		} else {
			str = "no"
		}
	case int:
		str = fmt.Sprintf("%d", v)
	default:
		b, _ := json.Marshal(v)
		str = string(b)
	}

	if str == "" {
		return "-"
	}
	if maxWidth > 3 && len(str) > maxWidth {
		str = str[:maxWidth-3] + "..."
	}
	return str
}
