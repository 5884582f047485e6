package top

import (
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/presentation/interaction"
)

// DisplayController handles terminal display operations
type DisplayController interface {
	EnterAlternateScreen()
	ExitAlternateScreen()
	ClearScreen()
	// RenderWithState draws one dashboard frame
	RenderWithState(view model.DashboardView, state model.InteractionState)
}

// InputHandler processes keyboard input
type InputHandler interface {
	Events() <-chan interaction.KeyEvent
	Close() error
}

// StateStore manages dashboard state
type StateStore interface {
	GetLoadingState() (bool, string)
	SetLoadingState(isLoading bool, message string)
	GetInteractionState() model.InteractionState
	UpdateInteractionState(updateFunc func(*model.InteractionState))
}
