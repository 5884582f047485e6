package layout

import (
	"fmt"
	"strings"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// LayoutStrategy turns a dashboard view into screen lines
type LayoutStrategy interface {
	Render(view model.DashboardView, sizer *Sizer) []string
	GetName() string
}

// Layout styles cycled with the 't' key
const (
	StyleFull = iota
	StyleMinimal
	styleCount
)

// NextStyle returns the style after current
func NextStyle(current int) int {
	return (current + 1) % styleCount
}

// GetLayoutStrategy returns the strategy for style, defaulting to full
func GetLayoutStrategy(style int) LayoutStrategy {
	switch style {
	case StyleMinimal:
		return &MinimalLayoutStrategy{}
	default:
		return &FullLayoutStrategy{}
	}
}

// headerLines renders the title block shared by all layouts
func headerLines(view model.DashboardView, width int) []string {
	team := view.Team
	if team == "" {
		team = util.FormatHint("(no team selected)")
	}
	title := fmt.Sprintf("%s  team %s  %s", util.FormatHeaderTitle("team-monitor"), team, util.FormatHint(view.BaseURL))
	return []string{title, util.Separator(width)}
}

func statusLine(view model.DashboardView) string {
	switch {
	case view.StatusErr != "":
		return "Status: " + util.FormatError(view.StatusErr)
	case view.Status != "":
		line := "Status: " + util.FormatOK(view.Status)
		if !view.StatusUpdated.IsZero() {
			line += util.FormatHint("  (" + view.StatusUpdated.Format("15:04:05") + ")")
		}
		return line
	default:
		return "Status: " + util.FormatHint("waiting")
	}
}

// pane renders a titled block of at most rows lines, keeping the first
// rows-1 body lines (or the last ones when tail is set)
func pane(title string, body []string, rows, width int, tail bool) []string {
	if rows < 1 {
		return nil
	}
	out := []string{util.FormatHeaderTitle(title)}
	room := rows - 1
	if room <= 0 {
		return out
	}
	if len(body) > room {
		if tail {
			body = body[len(body)-room:]
		} else {
			body = body[:room]
		}
	}
	for _, line := range body {
		out = append(out, util.Truncate(line, width))
	}
	for len(out) < rows {
		out = append(out, "")
	}
	return out
}

func historyBody(view model.DashboardView) []string {
	var body []string
	if view.HistoryErr != "" {
		body = append(body, util.FormatError(view.HistoryErr))
	}
	if len(view.History) == 0 && view.HistoryErr == "" {
		body = append(body, util.FormatHint("no activity yet"))
	}
	return append(body, view.History...)
}

func eventBody(view model.DashboardView) []string {
	switch {
	case view.EventErr != "":
		return []string{util.FormatError(view.EventErr)}
	case view.EventResult != "":
		return strings.Split(view.EventResult, "\n")
	default:
		return []string{util.FormatHint("press e to submit the configured event")}
	}
}
