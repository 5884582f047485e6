package formatter

import (
	"encoding/csv"
	"io"
)

type CSVFormatter struct{}

func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

func (f *CSVFormatter) Format(w io.Writer, report Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(report.Rows); err != nil {
		return err
	}
	return cw.Error()
}
