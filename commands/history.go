package commands

import (
	"fmt"
	"strconv"

	"github.com/penwyp/go-team-monitor/internal/core/activity"
	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the activity history, newest first",
	RunE:  runHistory,
}

var activityLimit int

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show the most recent activity messages across all teams",
	RunE:  runActivity,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(activityCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0,
		"Number of records (default from config)")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0,
		"Number of newest records to skip")

	activityCmd.Flags().IntVarP(&activityLimit, "limit", "l", 10,
		"Number of messages")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit := historyLimit
	if limit <= 0 {
		limit = runtimeConfig.HistoryLimit
	}
	if historyOffset < 0 {
		return fmt.Errorf("offset must not be negative, got %d", historyOffset)
	}

	records, err := newClient().GetHistory(cmd.Context(), limit, historyOffset)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if records == nil {
		records = []model.ActivityRecord{}
	}

	report := formatter.Report{
		Headers:    []string{"ID", "Team", "Event", "Result", "Timestamp"},
		RightAlign: map[int]bool{0: true},
		Data:       records,
	}
	for _, rec := range records {
		report.Rows = append(report.Rows, []string{
			strconv.FormatInt(rec.ID, 10),
			rec.Team,
			rec.EventType,
			activity.FormatResult(rec.Result),
			rec.Timestamp,
		})
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func runActivity(cmd *cobra.Command, args []string) error {
	messages, err := newClient().RecentActivity(cmd.Context(), activityLimit)
	if err != nil {
		return fmt.Errorf("failed to get activity: %w", err)
	}

	report := formatter.Report{
		Headers: []string{"Event", "Result"},
		Data:    messages,
	}
	for _, raw := range messages {
		payload, err := activity.ParsePayload(string(raw))
		if err != nil {
			report.Rows = append(report.Rows, []string{model.UnknownEventType, string(raw)})
			continue
		}
		report.Rows = append(report.Rows, []string{payload.EventType(), activity.FormatResult(payload.Result)})
	}
	return writeReport(cmd.OutOrStdout(), report)
}
