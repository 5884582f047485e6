// Package analyzer summarizes persisted event history: it pages through
// GET /history and groups the records by team, event type or time bucket.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-team-monitor/internal/util"
)

const (
	defaultPageSize   = 100
	defaultMaxRecords = 1000
)

// HistoryPager reads one page of history, newest first
type HistoryPager interface {
	GetHistory(ctx context.Context, limit, offset int) ([]model.ActivityRecord, error)
}

type Config struct {
	OutputFormat string
	Timezone     string
	Duration     string
	GroupBy      string
	// Team restricts the report to one team when set
	Team string
	// MaxRecords bounds how much history is read
	MaxRecords int
	PageSize   int
}

// GroupedData is one row of the report
type GroupedData struct {
	Key        string         `json:"key"`
	Events     int            `json:"events"`
	Teams      []string       `json:"teams"`
	EventTypes map[string]int `json:"event_types"`
	First      string         `json:"first,omitempty"`
	Last       string         `json:"last,omitempty"`
}

type Analyzer struct {
	config *Config
	pager  HistoryPager
	out    io.Writer
	loc    *time.Location
	now    func() time.Time
}

func New(config *Config, pager HistoryPager, out io.Writer) *Analyzer {
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.MaxRecords <= 0 {
		config.MaxRecords = defaultMaxRecords
	}
	if config.GroupBy == "" {
		config.GroupBy = "team"
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil || config.Timezone == "" {
		loc = time.Local
	}

	return &Analyzer{
		config: config,
		pager:  pager,
		out:    out,
		loc:    loc,
		now:    time.Now,
	}
}

func (a *Analyzer) Run(ctx context.Context) error {
	startTime := time.Now()

	records, err := a.fetch(ctx)
	if err != nil {
		return err
	}
	util.LogDebug(fmt.Sprintf("Fetched %d history records in %v", len(records), time.Since(startTime)))

	records, err = a.filter(records)
	if err != nil {
		return err
	}
	grouped := a.groupData(records)
	return a.formatAndOutput(grouped)
}

// fetch pages through history until MaxRecords or a short page
func (a *Analyzer) fetch(ctx context.Context) ([]model.ActivityRecord, error) {
	var all []model.ActivityRecord
	for offset := 0; offset < a.config.MaxRecords; offset += a.config.PageSize {
		size := a.config.PageSize
		if rest := a.config.MaxRecords - offset; rest < size {
			size = rest
		}
		page, err := a.pager.GetHistory(ctx, size, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < size {
			break
		}
	}
	return all, nil
}

func (a *Analyzer) filter(records []model.ActivityRecord) ([]model.ActivityRecord, error) {
	var from time.Time
	if a.config.Duration != "" {
		var err error
		if from, err = parseDuration(a.config.Duration, a.now().In(a.loc)); err != nil {
			return nil, err
		}
	}

	filtered := make([]model.ActivityRecord, 0, len(records))
	for _, rec := range records {
		if a.config.Team != "" && rec.Team != a.config.Team {
			continue
		}
		if !from.IsZero() {
			ts, ok := parseTimestamp(rec.Timestamp)
			if !ok || ts.Before(from) {
				continue
			}
		}
		filtered = append(filtered, rec)
	}
	return filtered, nil
}

func (a *Analyzer) groupData(records []model.ActivityRecord) []GroupedData {
	groups := make(map[string]*GroupedData)
	teams := make(map[string]map[string]bool)

	for _, rec := range records {
		key := a.getGroupKey(rec)
		group, ok := groups[key]
		if !ok {
			group = &GroupedData{Key: key, EventTypes: make(map[string]int)}
			groups[key] = group
			teams[key] = make(map[string]bool)
		}
		group.Events++
		group.EventTypes[rec.EventType]++
		if !teams[key][rec.Team] {
			teams[key][rec.Team] = true
			group.Teams = append(group.Teams, rec.Team)
		}
		if rec.Timestamp != "" {
			if group.First == "" || rec.Timestamp < group.First {
				group.First = rec.Timestamp
			}
			if rec.Timestamp > group.Last {
				group.Last = rec.Timestamp
			}
		}
	}

	result := make([]GroupedData, 0, len(groups))
	for _, group := range groups {
		sort.Strings(group.Teams)
		result = append(result, *group)
	}
	return a.sortData(result)
}

func (a *Analyzer) getGroupKey(rec model.ActivityRecord) string {
	switch a.config.GroupBy {
	case "team":
		return rec.Team
	case "event", "event_type":
		return rec.EventType
	}

	ts, ok := parseTimestamp(rec.Timestamp)
	if !ok {
		return "unknown"
	}
	ts = ts.In(a.loc)
	switch a.config.GroupBy {
	case "hour":
		return ts.Format("2006-01-02 15:00")
	case "week":
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "month":
		return ts.Format("2006-01")
	default:
		return ts.Format("2006-01-02")
	}
}

func (a *Analyzer) sortData(data []GroupedData) []GroupedData {
	sort.Slice(data, func(i, j int) bool {
		if data[i].Events != data[j].Events && !a.timeGrouped() {
			return data[i].Events > data[j].Events
		}
		return data[i].Key < data[j].Key
	})
	return data
}

func (a *Analyzer) timeGrouped() bool {
	switch a.config.GroupBy {
	case "team", "event", "event_type":
		return false
	}
	return true
}

func (a *Analyzer) formatAndOutput(data []GroupedData) error {
	f, err := formatter.New(a.config.OutputFormat)
	if err != nil {
		return err
	}

	report := formatter.Report{
		Headers:    []string{"Group", "Events", "Teams", "Event Types", "Last"},
		RightAlign: map[int]bool{1: true},
		Data:       data,
	}
	for _, g := range data {
		report.Rows = append(report.Rows, []string{
			g.Key,
			strconv.Itoa(g.Events),
			joinLimited(g.Teams, 3),
			formatEventTypes(g.EventTypes),
			g.Last,
		})
	}
	return f.Format(a.out, report)
}

func formatEventTypes(types map[string]int) string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if types[names[i]] != types[names[j]] {
			return types[names[i]] > types[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s:%d", name, types[name])
	}
	return joinLimited(parts, 4)
}

func joinLimited(items []string, max int) string {
	out := ""
	for i, item := range items {
		if i == max {
			return out + fmt.Sprintf(", +%d", len(items)-max)
		}
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTimestamp reads server timestamps; values without a zone are UTC
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var durationPattern = regexp.MustCompile(`(\d+)([hymwd])`)

// parseDuration turns "12h", "7d", "2w3d" and the like into the start of
// the window ending at now. Months are 30 days and years 365.
func parseDuration(durationStr string, now time.Time) (time.Time, error) {
	if durationStr == "" {
		return time.Time{}, nil
	}

	matches := durationPattern.FindAllStringSubmatch(durationStr, -1)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid duration format: %s", durationStr)
	}

	var total time.Duration
	for _, match := range matches {
		value, err := strconv.Atoi(match[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid number in duration: %s", match[1])
		}

		switch match[2] {
		case "h":
			total += time.Duration(value) * time.Hour
		case "d":
			total += time.Duration(value) * 24 * time.Hour
		case "w":
			total += time.Duration(value) * 7 * 24 * time.Hour
		case "m":
			total += time.Duration(value) * 30 * 24 * time.Hour
		case "y":
			total += time.Duration(value) * 365 * 24 * time.Hour
		}
	}
	return now.Add(-total), nil
}
