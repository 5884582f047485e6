// Package stream reads Server-Sent Events from a team stream endpoint.
package stream

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEventName = "message"
	maxLineBytes     = 1 << 20
)

// Event is one dispatched SSE event
type Event struct {
	Name  string
	Data  string
	ID    string
	Retry time.Duration
}

// Decoder splits an SSE body into events. Comment lines and unknown fields
// are skipped; an event without data lines is never dispatched.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder wraps r
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{scanner: scanner}
}

// Next blocks until the next complete event. It returns io.EOF when the
// body ends, discarding a trailing event with no terminating blank line.
func (d *Decoder) Next() (Event, error) {
	var (
		ev      Event
		data    strings.Builder
		hasData bool
	)

	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if !hasData {
				ev = Event{ID: ev.ID, Retry: ev.Retry}
				continue
			}
			if ev.Name == "" {
				ev.Name = defaultEventName
			}
			ev.Data = data.String()
			return ev, nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			ev.Name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			ev.ID = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				ev.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
