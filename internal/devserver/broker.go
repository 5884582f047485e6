package devserver

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/penwyp/go-team-monitor/internal/core/ring"
	"github.com/penwyp/go-team-monitor/internal/util"
)

const (
	subscriberQueue = 64
	recentActivity  = 100
	initialStatus   = "idle"
)

// Broker tracks team status and fans stream messages out to subscribers.
// With no configured teams every team name is accepted on first use.
type Broker struct {
	mu       sync.RWMutex
	open     bool
	statuses map[string]string
	subs     map[string]map[chan []byte]struct{}
	activity *ring.Ring[json.RawMessage]
}

// NewBroker creates a broker for teams; an empty list accepts any team
func NewBroker(teams []string) *Broker {
	b := &Broker{
		open:     len(teams) == 0,
		statuses: make(map[string]string, len(teams)),
		subs:     make(map[string]map[chan []byte]struct{}),
		activity: ring.New[json.RawMessage](recentActivity),
	}
	for _, t := range teams {
		b.statuses[t] = initialStatus
	}
	return b
}

// Known reports whether team exists, registering it in open mode
func (b *Broker) Known(team string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.statuses[team]; ok {
		return true
	}
	if b.open && team != "" {
		b.statuses[team] = initialStatus
		return true
	}
	return false
}

// Teams lists registered teams in name order
func (b *Broker) Teams() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	teams := make([]string, 0, len(b.statuses))
	for t := range b.statuses {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}

// Status returns a team's last reported status
func (b *Broker) Status(team string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	status, ok := b.statuses[team]
	return status, ok
}

// Subscribe registers a queue for team's messages
func (b *Broker) Subscribe(team string) (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberQueue)

	b.mu.Lock()
	if b.subs[team] == nil {
		b.subs[team] = make(map[chan []byte]struct{})
	}
	b.subs[team][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[team], ch)
		if len(b.subs[team]) == 0 {
			delete(b.subs, team)
		}
	}
}

// Subscribers counts open subscriptions for team
func (b *Broker) Subscribers(team string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[team])
}

// ReportStatus updates team's status and publishes it
func (b *Broker) ReportStatus(team, status string) {
	b.mu.Lock()
	b.statuses[team] = status
	b.mu.Unlock()

	b.Publish(team, map[string]interface{}{"type": "status", "status": status})
}

// ReportActivity publishes an activity message and keeps it in the
// recent activity feed
func (b *Broker) ReportActivity(team string, event, result json.RawMessage) {
	msg := map[string]interface{}{"type": "activity", "event": event, "result": result}
	if data, err := marshalMessage(msg); err == nil {
		b.activity.Push(data)
	}
	b.Publish(team, msg)
}

// RecentActivity returns up to limit activity messages, oldest first
func (b *Broker) RecentActivity(limit int) []json.RawMessage {
	items := b.activity.Oldest()
	if limit >= 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items
}

// Publish sends msg to every subscriber of team. Slow subscribers lose
// messages rather than block the publisher.
func (b *Broker) Publish(team string, msg map[string]interface{}) {
	data, err := marshalMessage(msg)
	if err != nil {
		util.LogError("failed to encode stream message", util.Err(err))
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[team] {
		select {
		case ch <- data:
		default:
			util.LogWarn("stream subscriber queue full, dropping message", util.String("team", team))
		}
	}
}
