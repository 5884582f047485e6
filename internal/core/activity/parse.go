package activity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// ErrEmptyPayload is wrapped by ParseError for blank stream data
var ErrEmptyPayload = errors.New("empty payload")

// ParseError describes a stream payload that could not be decoded. The
// payload is dropped; callers may log it.
type ParseError struct {
	Data string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed activity payload %q: %v", truncate(e.Data, 64), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Payload is a decoded activity message
type Payload struct {
	model.ActivityPayload
}

// EventType returns the event's type, or "unknown" when absent
func (p Payload) EventType() string {
	if p.Event == nil || p.Event.Type == "" {
		return model.UnknownEventType
	}
	return p.Event.Type
}

// ParsePayload decodes the JSON carried on the activity channel
func ParsePayload(data string) (Payload, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" || trimmed == "null" {
		return Payload{}, &ParseError{Data: data, Err: ErrEmptyPayload}
	}

	var p Payload
	if err := sonic.UnmarshalString(data, &p.ActivityPayload); err != nil {
		return Payload{}, &ParseError{Data: data, Err: err}
	}
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
