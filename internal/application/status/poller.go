// Package status polls a team's status endpoint on a fixed interval.
package status

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// Fetcher reads a team's status
type Fetcher interface {
	GetStatus(ctx context.Context, team string) (*model.StatusResponse, error)
}

// Ticker abstracts time.Ticker so tests can drive the poll loop
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

// NewTicker returns a Ticker backed by time.Ticker
func NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

// State is what the status pane shows. Exactly one of Status and Err is
// set after the first completed cycle.
type State struct {
	Status    string
	Err       string
	Seq       uint64
	UpdatedAt time.Time
}

// Poller fetches status immediately on Start and then on every tick.
// Ticks do not wait for earlier requests; responses older than the newest
// applied one are discarded, as is anything arriving after Stop.
type Poller struct {
	fetcher   Fetcher
	team      string
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	onChange  func(State)
	now       func() time.Time

	next atomic.Uint64

	mu      sync.RWMutex
	state   State
	applied uint64
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option customizes a Poller
type Option func(*Poller)

// WithTicker replaces the ticker factory
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(p *Poller) {
		p.newTicker = fn
	}
}

// WithOnChange registers a callback invoked after each applied update
func WithOnChange(fn func(State)) Option {
	return func(p *Poller) {
		p.onChange = fn
	}
}

// NewPoller creates an idle poller for team
func NewPoller(fetcher Fetcher, team string, interval time.Duration, opts ...Option) *Poller {
	p := &Poller{
		fetcher:   fetcher,
		team:      team,
		interval:  interval,
		newTicker: NewTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling. It is a no-op for an empty team or a poller that
// is already running or stopped.
func (p *Poller) Start(ctx context.Context) {
	if p.team == "" {
		return
	}

	p.mu.Lock()
	if p.cancel != nil || p.stopped {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.WithValue(ctx, util.TeamKey, p.team))
	p.cancel = cancel
	ticker := p.newTicker(p.interval)
	p.wg.Add(1)
	p.mu.Unlock()

	util.LogCtx(ctx).Debug("status poller started", util.String("interval", p.interval.String()))

	go func() {
		defer p.wg.Done()
		defer ticker.Stop()

		p.spawn(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				p.spawn(ctx)
			}
		}
	}()
}

// Stop halts the ticker, cancels in-flight requests and waits for them.
// No state update happens after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Poll runs one synchronous cycle and returns the resulting state
func (p *Poller) Poll(ctx context.Context) State {
	p.cycle(ctx)
	return p.State()
}

// State returns the latest applied state
func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Poller) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.cycle(ctx)
	}()
}

func (p *Poller) cycle(ctx context.Context) {
	seq := p.next.Add(1)
	resp, err := p.fetcher.GetStatus(ctx, p.team)
	if ctx.Err() != nil {
		return
	}

	next := State{Seq: seq, UpdatedAt: p.now()}
	if err != nil {
		next.Err = err.Error()
		util.LogCtx(ctx).Debug("status poll failed", util.Err(err))
	} else {
		next.Status = resp.Status
	}

	p.apply(next)
}

func (p *Poller) apply(next State) {
	p.mu.Lock()
	if p.stopped || next.Seq < p.applied {
		p.mu.Unlock()
		return
	}
	p.applied = next.Seq
	p.state = next
	onChange := p.onChange
	p.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
}
