// Package history layers live activity from a team stream on top of a
// one-shot history snapshot.
package history

import (
	"context"
	"errors"
	"sync"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/core/activity"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/stream"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// Fetcher reads the persisted event history
type Fetcher interface {
	GetHistory(ctx context.Context, limit, offset int) ([]model.ActivityRecord, error)
}

// Viewer owns one activity log for the lifetime of a Start/Stop pair
type Viewer struct {
	fetcher Fetcher
	baseURL string
	log     *activity.Log
	sub     *stream.Subscriber

	mu       sync.Mutex
	team     string
	fetchErr error
	loaded   bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	onUpdate func()
}

// NewViewer creates a viewer keeping at most capacity records
func NewViewer(fetcher Fetcher, baseURL string, capacity int, opts ...stream.SubscriberOption) *Viewer {
	if capacity <= 0 {
		capacity = activity.DefaultCapacity
	}
	v := &Viewer{
		fetcher: fetcher,
		baseURL: baseURL,
		log:     activity.NewLog(capacity),
	}
	v.sub = stream.NewSubscriber([]string{model.ChannelActivity}, v.handle, opts...)
	return v
}

// OnUpdate registers a callback run whenever the log changes
func (v *Viewer) OnUpdate(fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onUpdate = fn
}

// Start loads the history snapshot and subscribes to team's activity
// channel. A running viewer is stopped first and its records are
// discarded. The snapshot request is bound to ctx and to the viewer's
// lifetime.
func (v *Viewer) Start(ctx context.Context, team, credential string) {
	v.Stop()

	ctx = context.WithValue(ctx, util.TeamKey, team)
	ctx, cancel := context.WithCancel(ctx)

	v.mu.Lock()
	v.team = team
	v.fetchErr = nil
	v.loaded = false
	v.log.Replace(nil)
	v.cancel = cancel
	v.mu.Unlock()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		v.loadSnapshot(ctx)
	}()

	if team != "" {
		v.sub.Open(ctx, api.StreamURL(v.baseURL, team, credential))
	}
}

// Stop closes the stream and abandons any pending snapshot request
func (v *Viewer) Stop() {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	v.sub.Close()
	v.wg.Wait()
}

func (v *Viewer) loadSnapshot(ctx context.Context) {
	records, err := v.fetcher.GetHistory(ctx, v.log.Cap(), 0)
	if ctx.Err() != nil {
		return
	}

	v.mu.Lock()
	if err != nil {
		v.fetchErr = err
		v.mu.Unlock()
		util.LogCtx(ctx).Warn("history snapshot failed", util.Err(err))
		v.notify()
		return
	}

	// keep live records that raced ahead of the snapshot
	merged := make([]model.ActivityRecord, 0, len(records)+v.log.Len())
	for _, r := range v.log.Records() {
		if r.Seq > 0 {
			merged = append(merged, r)
		}
	}
	merged = append(merged, records...)
	v.log.Replace(merged)
	v.loaded = true
	v.mu.Unlock()

	util.LogCtx(ctx).Debug("history snapshot loaded", util.Int("records", len(records)))
	v.notify()
}

func (v *Viewer) handle(msg model.StreamMessage) {
	v.mu.Lock()
	team := v.team
	_, err := v.log.Apply(team, msg.Data)
	v.mu.Unlock()

	if err != nil {
		var parseErr *activity.ParseError
		if errors.As(err, &parseErr) {
			util.LogDebug("dropping malformed activity payload", util.String("team", team), util.Err(err))
		}
		return
	}
	v.notify()
}

func (v *Viewer) notify() {
	v.mu.Lock()
	fn := v.onUpdate
	v.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Records returns the log, newest first
func (v *Viewer) Records() []model.ActivityRecord {
	return v.log.Records()
}

// Lines renders each record as "<team> <event_type> => <result>"
func (v *Viewer) Lines() []string {
	records := v.log.Records()
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = activity.FormatRecord(r)
	}
	return lines
}

// Loaded reports whether the snapshot has been applied
func (v *Viewer) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Err returns the snapshot error, if any. Malformed stream payloads never
// surface here.
func (v *Viewer) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetchErr
}

// Dropped returns how many stream payloads failed to parse
func (v *Viewer) Dropped() int {
	return v.log.Dropped()
}

// StreamURL returns the URL of the current stream connection
func (v *Viewer) StreamURL() string {
	return v.sub.URL()
}

// StreamState returns the state of the activity subscription
func (v *Viewer) StreamState() stream.State {
	return v.sub.State()
}
