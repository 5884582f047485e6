// Package activity holds the bounded live activity log: a history snapshot
// with stream updates layered on top, newest first.
package activity

import (
	"sync"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/core/ring"
)

// DefaultCapacity is the number of records the history view keeps
const DefaultCapacity = 20

// Log is a newest-first, fixed-capacity activity log. It lives only as long
// as the view that owns it.
type Log struct {
	records *ring.Ring[model.ActivityRecord]
	now     func() time.Time

	mu     sync.Mutex
	lastID int64
	seq    uint64
	drops  int
}

// NewLog creates an empty log holding at most capacity records
func NewLog(capacity int) *Log {
	return NewLogWithClock(capacity, time.Now)
}

// NewLogWithClock is NewLog with an injectable clock for record IDs
func NewLogWithClock(capacity int, now func() time.Time) *Log {
	return &Log{
		records: ring.New[model.ActivityRecord](capacity),
		now:     now,
	}
}

// Replace loads a history snapshot (newest first), discarding live entries
func (l *Log) Replace(snapshot []model.ActivityRecord) {
	l.records.Replace(snapshot)
}

// Insert prepends an already-built record, evicting the oldest when full
func (l *Log) Insert(record model.ActivityRecord) {
	l.records.Push(record)
}

// Apply parses an activity payload for team and, on success, prepends the
// resulting record. On failure the log is unchanged and a *ParseError is
// returned.
func (l *Log) Apply(team, data string) (model.ActivityRecord, error) {
	payload, err := ParsePayload(data)
	if err != nil {
		l.mu.Lock()
		l.drops++
		l.mu.Unlock()
		return model.ActivityRecord{}, err
	}

	record := model.ActivityRecord{
		Team:      team,
		EventType: payload.EventType(),
		Result:    payload.Result,
	}
	record.ID, record.Seq = l.nextIdentity()

	l.records.Push(record)
	return record, nil
}

// nextIdentity assigns a millisecond timestamp ID that is strictly
// increasing within this log, plus a sequence number.
func (l *Log) nextIdentity() (int64, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	l.seq++
	return id, l.seq
}

// Records returns the log contents, newest first
func (l *Log) Records() []model.ActivityRecord {
	return l.records.Newest()
}

// Len returns the number of records held
func (l *Log) Len() int {
	return l.records.Len()
}

// Cap returns the log capacity
func (l *Log) Cap() int {
	return l.records.Cap()
}

// Dropped returns how many payloads failed to parse
func (l *Log) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drops
}
