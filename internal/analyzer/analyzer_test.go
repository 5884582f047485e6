package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePager struct {
	records []model.ActivityRecord
	calls   [][2]int
	err     error
}

func (f *fakePager) GetHistory(_ context.Context, limit, offset int) ([]model.ActivityRecord, error) {
	f.calls = append(f.calls, [2]int{limit, offset})
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.records) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.records) {
		end = len(f.records)
	}
	return f.records[offset:end], nil
}

func record(team, eventType, ts string) model.ActivityRecord {
	return model.ActivityRecord{Team: team, EventType: eventType, Timestamp: ts}
}

func TestParseDuration(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{input: "1h", expected: time.Hour},
		{input: "7d", expected: 7 * 24 * time.Hour},
		{input: "2w3d", expected: 17 * 24 * time.Hour},
		{input: "1m", expected: 30 * 24 * time.Hour},
		{input: "1y", expected: 365 * 24 * time.Hour},
		{input: "1d12h", expected: 36 * time.Hour},
		{input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			from, err := parseDuration(tt.input, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, now.Sub(from))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2026-10-19T08:30:00.123456", "2026-10-19T08:30:00Z", "2026-10-19 08:30:00"} {
		ts, ok := parseTimestamp(s)
		require.True(t, ok, s)
		assert.Equal(t, 8, ts.Hour())
	}
	_, ok := parseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestAnalyzer_FetchPages(t *testing.T) {
	pager := &fakePager{}
	for i := 0; i < 25; i++ {
		pager.records = append(pager.records, record("sales", fmt.Sprintf("e%d", i), ""))
	}

	a := New(&Config{PageSize: 10, MaxRecords: 100}, pager, &bytes.Buffer{})
	records, err := a.fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 25)
	assert.Equal(t, [][2]int{{10, 0}, {10, 10}, {10, 20}}, pager.calls)

	pager.calls = nil
	a = New(&Config{PageSize: 10, MaxRecords: 15}, pager, &bytes.Buffer{})
	records, err = a.fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 15)
	assert.Equal(t, [][2]int{{10, 0}, {5, 10}}, pager.calls)
}

func TestAnalyzer_FetchError(t *testing.T) {
	pager := &fakePager{err: errors.New("boom")}
	err := New(&Config{}, pager, &bytes.Buffer{}).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 0")
}

func TestAnalyzer_GroupByTeam(t *testing.T) {
	pager := &fakePager{records: []model.ActivityRecord{
		record("sales", "lead", "2026-10-19T08:00:00"),
		record("ops", "deploy", "2026-10-19T09:00:00"),
		record("sales", "lead", "2026-10-19T10:00:00"),
		record("sales", "call", "2026-10-18T10:00:00"),
	}}

	var out bytes.Buffer
	a := New(&Config{GroupBy: "team", OutputFormat: "json", Timezone: "UTC"}, pager, &out)
	require.NoError(t, a.Run(context.Background()))

	assert.JSONEq(t, `[
		{"key":"sales","events":3,"teams":["sales"],"event_types":{"lead":2,"call":1},"first":"2026-10-18T10:00:00","last":"2026-10-19T10:00:00"},
		{"key":"ops","events":1,"teams":["ops"],"event_types":{"deploy":1},"first":"2026-10-19T09:00:00","last":"2026-10-19T09:00:00"}
	]`, out.String())
}

func TestAnalyzer_GroupByDayWithDurationAndTeam(t *testing.T) {
	pager := &fakePager{records: []model.ActivityRecord{
		record("sales", "lead", "2026-10-19T08:00:00"),
		record("ops", "deploy", "2026-10-19T09:00:00"),
		record("sales", "lead", "2026-10-18T10:00:00"),
		record("sales", "old", "2026-09-01T10:00:00"),
		record("sales", "undated", ""),
	}}

	a := New(&Config{GroupBy: "day", Duration: "7d", Team: "sales", Timezone: "UTC"}, pager, &bytes.Buffer{})
	a.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	records, err := a.fetch(context.Background())
	require.NoError(t, err)
	records, err = a.filter(records)
	require.NoError(t, err)
	grouped := a.groupData(records)

	require.Len(t, grouped, 2)
	assert.Equal(t, "2026-10-18", grouped[0].Key)
	assert.Equal(t, "2026-10-19", grouped[1].Key)
	assert.Equal(t, 1, grouped[1].Events)
}

func TestAnalyzer_GetGroupKey(t *testing.T) {
	rec := record("sales", "lead", "2026-10-19T08:30:00")
	tests := []struct {
		groupBy string
		want    string
	}{
		{"team", "sales"},
		{"event_type", "lead"},
		{"hour", "2026-10-19 08:00"},
		{"day", "2026-10-19"},
		{"week", "2026-W43"},
		{"month", "2026-10"},
	}
	for _, tt := range tests {
		t.Run(tt.groupBy, func(t *testing.T) {
			a := New(&Config{GroupBy: tt.groupBy, Timezone: "UTC"}, &fakePager{}, &bytes.Buffer{})
			assert.Equal(t, tt.want, a.getGroupKey(rec))
		})
	}

	a := New(&Config{GroupBy: "day"}, &fakePager{}, &bytes.Buffer{})
	assert.Equal(t, "unknown", a.getGroupKey(record("sales", "x", "")))
}

func TestAnalyzer_TableOutput(t *testing.T) {
	pager := &fakePager{records: []model.ActivityRecord{record("sales", "lead", "")}}
	var out bytes.Buffer
	require.NoError(t, New(&Config{}, pager, &out).Run(context.Background()))
	assert.Contains(t, out.String(), "lead:1")
	assert.Contains(t, out.String(), "│ sales")

	err := New(&Config{OutputFormat: "xml"}, pager, &out).Run(context.Background())
	assert.Error(t, err)
}

func TestJoinLimited(t *testing.T) {
	assert.Equal(t, "", joinLimited(nil, 3))
	assert.Equal(t, "a, b", joinLimited([]string{"a", "b"}, 3))
	assert.Equal(t, "a, b, +2", joinLimited([]string{"a", "b", "c", "d"}, 2))
}
