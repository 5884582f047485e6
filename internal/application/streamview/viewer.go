// Package streamview keeps a bounded, human-readable transcript of a team
// stream.
package streamview

import (
	"context"
	"strings"
	"sync"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/core/ring"
	"github.com/penwyp/go-team-monitor/internal/stream"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// DefaultBuffer is the number of transcript lines kept
const DefaultBuffer = 200

// Viewer subscribes to the status and activity channels of one team and
// records every message as "<channel>: <data>". When the buffer is full
// the oldest line is evicted.
type Viewer struct {
	baseURL string
	lines   *ring.Ring[string]
	sub     *stream.Subscriber

	mu       sync.Mutex
	team     string
	onUpdate func(line string)
}

// NewViewer creates a viewer for the API at baseURL. opts configure the
// underlying subscriber.
func NewViewer(baseURL string, buffer int, opts ...stream.SubscriberOption) *Viewer {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	v := &Viewer{
		baseURL: baseURL,
		lines:   ring.New[string](buffer),
	}
	v.sub = stream.NewSubscriber([]string{model.ChannelStatus, model.ChannelActivity}, v.handle, opts...)
	return v
}

// OnUpdate registers a callback run after each appended line
func (v *Viewer) OnUpdate(fn func(line string)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onUpdate = fn
}

// Open connects to team's stream, closing any previous connection first.
// An empty team just closes the current connection.
func (v *Viewer) Open(ctx context.Context, team, credential string) {
	v.mu.Lock()
	v.team = team
	v.mu.Unlock()

	if team == "" {
		v.sub.Close()
		return
	}
	ctx = context.WithValue(ctx, util.TeamKey, team)
	v.sub.Open(ctx, api.StreamURL(v.baseURL, team, credential))
}

// Close tears down the stream connection. The transcript is kept.
func (v *Viewer) Close() {
	v.sub.Close()
}

// URL returns the current stream URL
func (v *Viewer) URL() string {
	return v.sub.URL()
}

// State reports the connection state
func (v *Viewer) State() stream.State {
	return v.sub.State()
}

// Done is closed when the current connection gives up or is closed
func (v *Viewer) Done() <-chan struct{} {
	return v.sub.Done()
}

// Err returns what ended the most recent connection attempt
func (v *Viewer) Err() error {
	return v.sub.Err()
}

// Lines returns the transcript, oldest first
func (v *Viewer) Lines() []string {
	return v.lines.Oldest()
}

// Text renders the transcript newline-joined
func (v *Viewer) Text() string {
	return strings.Join(v.lines.Oldest(), "\n")
}

func (v *Viewer) handle(msg model.StreamMessage) {
	line := msg.Channel + ": " + msg.Data
	v.lines.Push(line)

	v.mu.Lock()
	onUpdate := v.onUpdate
	v.mu.Unlock()
	if onUpdate != nil {
		onUpdate(line)
	}
}
