package top

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/application/eventform"
	"github.com/penwyp/go-team-monitor/internal/application/history"
	"github.com/penwyp/go-team-monitor/internal/application/status"
	"github.com/penwyp/go-team-monitor/internal/application/streamview"
	"github.com/penwyp/go-team-monitor/internal/core/activity"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/presentation/display"
	"github.com/penwyp/go-team-monitor/internal/presentation/interaction"
	"github.com/penwyp/go-team-monitor/internal/presentation/layout"
	"github.com/penwyp/go-team-monitor/internal/stream"
	"github.com/penwyp/go-team-monitor/internal/util"
	"golang.org/x/sync/errgroup"
)

// Orchestrator composes the status, history, stream and event panes into
// the live dashboard
type Orchestrator struct {
	config *TopConfig
	client *api.Client

	poller  *status.Poller
	stream  *streamview.Viewer
	history *history.Viewer
	form    *eventform.Form

	stateManager *StateManager
	display      DisplayController
	keyboard     InputHandler

	dirty chan struct{}
	wg    sync.WaitGroup
	now   func() time.Time
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithDisplay replaces the terminal display
func WithDisplay(d DisplayController) Option {
	return func(o *Orchestrator) { o.display = d }
}

// WithInput replaces the raw-mode keyboard reader
func WithInput(in InputHandler) Option {
	return func(o *Orchestrator) { o.keyboard = in }
}

// WithStreamOptions passes options to both stream subscriptions
func WithStreamOptions(opts ...stream.SubscriberOption) Option {
	return func(o *Orchestrator) {
		o.stream = streamview.NewViewer(o.config.BaseURL, o.config.StreamBuffer, opts...)
		o.history = history.NewViewer(o.client, o.config.BaseURL, o.config.HistoryLimit, opts...)
	}
}

// NewOrchestrator creates a new Orchestrator instance
func NewOrchestrator(config *TopConfig, opts ...Option) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := api.NewClient(config.BaseURL, config.Credential, api.WithTimeout(config.Timeout))
	o := &Orchestrator{
		config:       config,
		client:       client,
		stateManager: NewStateManager(),
		dirty:        make(chan struct{}, 1),
		now:          time.Now,
	}
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.LayoutStyle = config.LayoutStyle
	})
	o.stream = streamview.NewViewer(config.BaseURL, config.StreamBuffer)
	o.history = history.NewViewer(client, config.BaseURL, config.HistoryLimit)

	for _, opt := range opts {
		opt(o)
	}
	if o.display == nil {
		o.display = display.NewTerminalDisplay()
	}

	o.poller = status.NewPoller(client, config.Team, config.PollInterval,
		status.WithOnChange(func(status.State) { o.markDirty() }))
	o.form = eventform.NewForm(client, o.handleEventResult)
	o.stream.OnUpdate(func(string) { o.markDirty() })
	o.history.OnUpdate(o.markDirty)
	return o, nil
}

// Run starts the dashboard and blocks until the user quits or ctx ends
func (o *Orchestrator) Run(ctx context.Context) error {
	util.LogInfo("Starting team monitor dashboard", util.String("team", o.config.Team))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if o.keyboard == nil {
		keyboard, err := interaction.NewKeyboardReader()
		if err != nil {
			return fmt.Errorf("failed to initialize keyboard: %w", err)
		}
		o.keyboard = keyboard
	}
	defer o.keyboard.Close()

	o.display.EnterAlternateScreen()
	defer o.display.ExitAlternateScreen()

	o.stateManager.SetLoadingState(true, "Connecting to "+o.config.BaseURL+"...")
	o.updateDisplay()

	o.start(ctx)
	defer func() {
		cancel()
		o.Close()
	}()
	o.stateManager.SetLoadingState(false, "")
	o.updateDisplay()

	uiTicker := time.NewTicker(o.config.uiInterval())
	defer uiTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogInfo("Shutting down team monitor dashboard")
			return nil

		case <-uiTicker.C:
			if !o.stateManager.GetInteractionState().IsPaused {
				o.updateDisplay()
			}

		case <-o.dirty:
			if !o.stateManager.GetInteractionState().IsPaused {
				o.updateDisplay()
			}

		case keyEvent, ok := <-o.keyboard.Events():
			if !ok {
				return nil
			}
			if o.handleKeyboard(ctx, keyEvent) {
				return nil
			}
			o.updateDisplay()
		}
	}
}

func (o *Orchestrator) start(ctx context.Context) {
	o.poller.Start(ctx)
	o.history.Start(ctx, o.config.Team, o.config.Credential)
	if o.config.Team != "" {
		o.stream.Open(ctx, o.config.Team, o.config.Credential)
	}
}

// Snapshot fetches status and history once, concurrently, without
// opening any stream. A failed history fetch does not cut the status
// request short; each pane keeps its own error.
func (o *Orchestrator) Snapshot(ctx context.Context) (model.DashboardView, error) {
	view := model.DashboardView{Team: o.config.Team, BaseURL: o.config.BaseURL, Now: o.now()}

	var g errgroup.Group
	g.Go(func() error {
		if o.config.Team == "" {
			return nil
		}
		st := o.poller.Poll(ctx)
		view.Status, view.StatusErr, view.StatusUpdated = st.Status, st.Err, st.UpdatedAt
		return nil
	})
	g.Go(func() error {
		records, err := o.client.GetHistory(ctx, o.config.HistoryLimit, 0)
		if err != nil {
			view.HistoryErr = err.Error()
			return fmt.Errorf("failed to load history: %w", err)
		}
		for _, rec := range records {
			view.History = append(view.History, activity.FormatRecord(rec))
		}
		return nil
	})
	return view, g.Wait()
}

// View assembles the current dashboard frame
func (o *Orchestrator) View() model.DashboardView {
	st := o.poller.State()
	view := model.DashboardView{
		Team:           o.config.Team,
		BaseURL:        o.config.BaseURL,
		Status:         st.Status,
		StatusErr:      st.Err,
		StatusUpdated:  st.UpdatedAt,
		StreamLines:    o.stream.Lines(),
		History:        o.history.Lines(),
		HistoryDropped: o.history.Dropped(),
		Now:            o.now(),
	}
	if o.config.Team != "" {
		view.StreamState = o.stream.State().String()
	}
	if err := o.history.Err(); err != nil {
		view.HistoryErr = err.Error()
	}

	outcome := o.stateManager.GetEventOutcome()
	view.LastEvent = outcome.EventType
	view.EventResult = outcome.Result
	view.EventErr = outcome.Err
	return view
}

func (o *Orchestrator) updateDisplay() {
	o.display.RenderWithState(o.View(), o.stateManager.GetInteractionState())
	o.stateManager.MarkRendered(o.now())
}

func (o *Orchestrator) markDirty() {
	select {
	case o.dirty <- struct{}{}:
	default:
	}
}

// handleKeyboard applies a key press; it reports whether to quit
func (o *Orchestrator) handleKeyboard(ctx context.Context, event interaction.KeyEvent) bool {
	switch event.Type {
	case interaction.KeyEscape:
		if o.stateManager.GetInteractionState().ShowHelp {
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = false
			})
			return false
		}
		return true

	case interaction.KeyChar:
		switch event.Key {
		case 'q', 'Q', interaction.KeyCtrlC:
			return true
		case 'r', 'R':
			o.refresh(ctx)
		case 'e', 'E':
			o.submitEvent(ctx)
		case 'p', 'P':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.IsPaused = !s.IsPaused
			})
		case 'h', 'H':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.ShowHelp = !s.ShowHelp
			})
		case 't', 'T':
			o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
				s.LayoutStyle = layout.NextStyle(s.LayoutStyle)
			})
		}
	}
	return false
}

// refresh polls status once and reloads the history snapshot
func (o *Orchestrator) refresh(ctx context.Context) {
	o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
		s.ForceRefresh = true
	})
	o.history.Start(ctx, o.config.Team, o.config.Credential)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.poller.Poll(ctx)
		o.stateManager.UpdateInteractionState(func(s *model.InteractionState) {
			s.ForceRefresh = false
		})
		o.markDirty()
	}()
}

func (o *Orchestrator) submitEvent(ctx context.Context) {
	if o.config.EventType == "" {
		o.stateManager.SetEventOutcome(EventOutcome{Err: "no event configured (use --event-type)", At: o.now()})
		return
	}
	if o.config.Team == "" {
		o.stateManager.SetEventOutcome(EventOutcome{EventType: o.config.EventType, Err: "no team selected", At: o.now()})
		return
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, err := o.form.Submit(ctx, eventform.Input{
			Team:    o.config.Team,
			Type:    o.config.EventType,
			Payload: o.config.EventPayload,
		})
		if err != nil {
			o.stateManager.SetEventOutcome(EventOutcome{EventType: o.config.EventType, Err: err.Error(), At: o.now()})
		}
		o.markDirty()
	}()
}

func (o *Orchestrator) handleEventResult(result *api.EventResult) {
	o.stateManager.SetEventOutcome(EventOutcome{
		EventType: o.config.EventType,
		Result:    eventform.FormatResult(result),
		At:        o.now(),
	})
}

// Close stops every pane and waits for in-flight requests
func (o *Orchestrator) Close() error {
	o.poller.Stop()
	o.history.Stop()
	o.stream.Close()
	o.wg.Wait()
	return nil
}
