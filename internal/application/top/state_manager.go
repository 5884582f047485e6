package top

import (
	"sync"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// EventOutcome is what the last-event pane shows
type EventOutcome struct {
	EventType string
	Result    string
	Err       string
	At        time.Time
}

// StateManager manages dashboard state in a thread-safe manner
type StateManager struct {
	mu sync.RWMutex

	isLoading      bool
	loadingMessage string

	interactionState model.InteractionState

	lastEvent  EventOutcome
	lastRender time.Time
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{}
}

// GetLoadingState returns current loading state and message
func (sm *StateManager) GetLoadingState() (bool, string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.isLoading, sm.loadingMessage
}

// SetLoadingState updates loading state and message
func (sm *StateManager) SetLoadingState(isLoading bool, message string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.isLoading = isLoading
	sm.loadingMessage = message
}

// GetInteractionState returns a copy of the interaction state, with the
// loading fields filled in
func (sm *StateManager) GetInteractionState() model.InteractionState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	state := sm.interactionState
	state.IsLoading = sm.isLoading
	state.LoadingMessage = sm.loadingMessage
	return state
}

// UpdateInteractionState updates specific fields of interaction state
func (sm *StateManager) UpdateInteractionState(updateFunc func(*model.InteractionState)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	updateFunc(&sm.interactionState)
}

// SetEventOutcome records the latest event submission
func (sm *StateManager) SetEventOutcome(outcome EventOutcome) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.lastEvent = outcome
}

// GetEventOutcome returns the latest event submission
func (sm *StateManager) GetEventOutcome() EventOutcome {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastEvent
}

// MarkRendered records when a frame was last drawn
func (sm *StateManager) MarkRendered(at time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.lastRender = at
}

// GetLastRender returns when a frame was last drawn
func (sm *StateManager) GetLastRender() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastRender
}
