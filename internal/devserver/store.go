package devserver

import (
	"context"
	"errors"

	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// ErrWorkflowNotFound is returned by LoadWorkflow for an unknown name
var ErrWorkflowNotFound = errors.New("unknown workflow")

// Store persists what the API server needs to answer reads
type Store interface {
	// RecordEvent appends to the event history and returns the stored record
	RecordEvent(ctx context.Context, rec model.ActivityRecord) (model.ActivityRecord, error)
	// History returns records newest first
	History(ctx context.Context, limit, offset int) ([]model.ActivityRecord, error)
	// SaveWorkflow stores wf under its name and returns a location string
	SaveWorkflow(ctx context.Context, wf model.Workflow) (string, error)
	LoadWorkflow(ctx context.Context, name string) (*model.Workflow, error)
	SaveSettings(ctx context.Context, s model.Settings) error
	Settings(ctx context.Context) (*model.Settings, error)
	Close() error
}
