package formatter

import (
	"fmt"
	"io"

	"github.com/penwyp/go-bubble-hist/internal/data/histogram"
)

// Report is what the formatters print after a run.
type Report struct {
	Title  string            `json:"title"`
	Input  string            `json:"input"`
	Output string            `json:"output"`
	Result *histogram.Result `json:"result"`
}

// Formatter prints a Report.
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// New returns the formatter for a --summary value.
func New(kind string, color bool) (Formatter, error) {
	switch kind {
	case "", "table":
		return NewTableFormatter(color), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown summary format %q (want table or json)", kind)
	}
}
