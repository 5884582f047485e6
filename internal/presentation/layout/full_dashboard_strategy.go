package layout

import (
	"fmt"

	"github.com/penwyp/go-team-monitor/internal/core/model"
)

// FullLayoutStrategy shows status, last event result, history and the raw
// stream
type FullLayoutStrategy struct{}

func (s *FullLayoutStrategy) GetName() string {
	return "full"
}

func (s *FullLayoutStrategy) Render(view model.DashboardView, sizer *Sizer) []string {
	width := sizer.ContentWidth()
	lines := headerLines(view, width)
	lines = append(lines, statusLine(view), "")

	// header, status, blank line and footer are fixed
	rows := sizer.Split(len(lines)+1, 1, 3, 2)

	eventTitle := "Last event"
	if view.LastEvent != "" {
		eventTitle = fmt.Sprintf("Last event (%s)", view.LastEvent)
	}
	lines = append(lines, pane(eventTitle, eventBody(view), rows[0], width, false)...)

	historyTitle := "Activity"
	if view.HistoryDropped > 0 {
		historyTitle = fmt.Sprintf("Activity (%d unreadable skipped)", view.HistoryDropped)
	}
	lines = append(lines, pane(historyTitle, historyBody(view), rows[1], width, false)...)

	streamTitle := "Stream"
	if view.StreamState != "" {
		streamTitle = fmt.Sprintf("Stream [%s]", view.StreamState)
	}
	lines = append(lines, pane(streamTitle, view.StreamLines, rows[2], width, true)...)
	return lines
}
