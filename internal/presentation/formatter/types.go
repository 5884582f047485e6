package formatter

import (
	"fmt"
	"io"
)

// Report is command output in tabular form. Data, when set, is what the
// JSON formatter encodes instead of the rows.
type Report struct {
	Headers []string
	Rows    [][]string
	// RightAlign marks numeric columns by index
	RightAlign map[int]bool
	Data       interface{}
}

// Formatter writes a report
type Formatter interface {
	Format(w io.Writer, report Report) error
}

// Output formats accepted by --output
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// New returns the formatter for name
func New(name string) (Formatter, error) {
	switch name {
	case "", FormatTable:
		return NewTableFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatCSV:
		return NewCSVFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (table, json, csv)", name)
	}
}
