package activity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// FormatRecord renders a record as `<team> <event_type> => <result>`
func FormatRecord(r model.ActivityRecord) string {
	return fmt.Sprintf("%s %s => %s", r.Team, r.EventType, FormatResult(r.Result))
}

// FormatResult renders opaque result JSON on one line with a space after
// every ':' and ',' outside string literals, e.g. {"ok": true, "n": 1}.
// Missing results render as "null"; invalid JSON is returned verbatim.
func FormatResult(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}

	src := compact.Bytes()
	out := make([]byte, 0, len(src)+len(src)/4)
	inString, escaped := false, false
	for _, c := range src {
		out = append(out, c)
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case !inString && (c == ':' || c == ','):
			out = append(out, ' ')
		}
	}
	return string(out)
}
