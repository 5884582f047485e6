package formatter

import (
	"io"

	"github.com/bytedance/sonic"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format encodes report.Data, or the rows keyed by header when Data is nil
func (f *JSONFormatter) Format(w io.Writer, report Report) error {
	data := report.Data
	if data == nil {
		data = rowsAsObjects(report)
	}
	out, err := sonic.ConfigStd.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

func rowsAsObjects(report Report) []map[string]string {
	objects := make([]map[string]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		obj := make(map[string]string, len(report.Headers))
		for i, h := range report.Headers {
			if i < len(row) {
				obj[h] = row[i]
			}
		}
		objects = append(objects, obj)
	}
	return objects
}
