package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu        sync.RWMutex
	history   []model.ActivityRecord
	workflows map[string]model.Workflow
	settings  *model.Settings
	nextID    int64
	now       func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]model.Workflow),
		now:       time.Now,
	}
}

func (s *MemoryStore) RecordEvent(_ context.Context, rec model.ActivityRecord) (model.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	if rec.Timestamp == "" {
		rec.Timestamp = s.now().UTC().Format(timestampLayout)
	}
	s.history = append(s.history, rec)
	return rec, nil
}

func (s *MemoryStore) History(_ context.Context, limit, offset int) ([]model.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ActivityRecord, 0, limit)
	for i := len(s.history) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.history[i])
	}
	return out, nil
}

func (s *MemoryStore) SaveWorkflow(_ context.Context, wf model.Workflow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.Name] = wf
	return "memory://workflows/" + wf.Name, nil
}

func (s *MemoryStore) LoadWorkflow(_ context.Context, name string) (*model.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[name]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return &wf, nil
}

func (s *MemoryStore) SaveSettings(_ context.Context, settings model.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

func (s *MemoryStore) Settings(_ context.Context) (*model.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return &model.Settings{DisabledTeams: []string{}}, nil
	}
	copied := *s.settings
	return &copied, nil
}

func (s *MemoryStore) Close() error { return nil }
