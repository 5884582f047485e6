// Package eventform submits events to a team and reports the response.
package eventform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// DefaultPayload is what an untouched payload field holds
const DefaultPayload = "{}"

// Submitter posts an event to a team
type Submitter interface {
	SubmitEvent(ctx context.Context, team string, event model.Event) (*api.EventResult, error)
}

// Input is the form contents
type Input struct {
	Team    string
	Type    string
	Payload string
}

// Form composes events from free-text input. Every failure is kept as a
// visible error string; a successful submit clears it.
type Form struct {
	submitter Submitter
	onResult  func(*api.EventResult)

	mu  sync.Mutex
	err string
}

// NewForm creates a form; onResult receives each decoded response
func NewForm(submitter Submitter, onResult func(*api.EventResult)) *Form {
	return &Form{submitter: submitter, onResult: onResult}
}

// Submit parses the payload as JSON, posts {type, payload} and hands the
// decoded response to the result callback. Blank text is not JSON and is
// rejected like any other parse failure. The response shape is not checked.
func (f *Form) Submit(ctx context.Context, in Input) (*api.EventResult, error) {
	payload := in.Payload
	if strings.TrimSpace(payload) == "" {
		return nil, f.fail(fmt.Errorf("invalid payload JSON: payload is empty"))
	}

	var decoded interface{}
	if err := sonic.UnmarshalString(payload, &decoded); err != nil {
		return nil, f.fail(fmt.Errorf("invalid payload JSON: %w", err))
	}

	event := model.Event{Type: in.Type, Payload: json.RawMessage(payload)}
	result, err := f.submitter.SubmitEvent(context.WithValue(ctx, util.TeamKey, in.Team), in.Team, event)
	if err != nil {
		return nil, f.fail(err)
	}

	f.mu.Lock()
	f.err = ""
	f.mu.Unlock()

	if f.onResult != nil {
		f.onResult(result)
	}
	return result, nil
}

// Err returns the visible error, empty after a successful submit
func (f *Form) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Form) fail(err error) error {
	f.mu.Lock()
	f.err = err.Error()
	f.mu.Unlock()
	util.LogDebug("event submission failed", util.Err(err))
	return err
}

// FormatResult renders a response as "HTTP <code>" followed by the body,
// pretty-printed when it is JSON
func FormatResult(result *api.EventResult) string {
	body := string(result.Body)
	var decoded interface{}
	if err := sonic.Unmarshal(result.Body, &decoded); err == nil {
		if pretty, err := sonic.ConfigStd.MarshalIndent(decoded, "", "  "); err == nil {
			body = string(pretty)
		}
	}
	return fmt.Sprintf("HTTP %d\n%s", result.StatusCode, body)
}
