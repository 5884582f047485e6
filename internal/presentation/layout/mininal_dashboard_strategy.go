package layout

import "github.com/penwyp/go-team-monitor/internal/core/model"

// MinimalLayoutStrategy shows only status and history
type MinimalLayoutStrategy struct{}

func (s *MinimalLayoutStrategy) GetName() string {
	return "minimal"
}

func (s *MinimalLayoutStrategy) Render(view model.DashboardView, sizer *Sizer) []string {
	width := sizer.ContentWidth()
	lines := headerLines(view, width)
	lines = append(lines, statusLine(view), "")
	rows := sizer.Split(len(lines)+1, 1)
	return append(lines, pane("Activity", historyBody(view), rows[0], width, false)...)
}
