package commands

import (
	"github.com/penwyp/go-team-monitor/internal/analyzer"
	"github.com/spf13/cobra"
)

var (
	reportDuration   string
	reportGroupBy    string
	reportTimezone   string
	reportMaxRecords int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the activity history",
	Long: `Pages through GET /history and groups the records by team, event type or
time bucket. With --team only that team's records are counted.

Examples:
  team-monitor report                                  # Events per team
  team-monitor report --group-by event --duration 7d   # Events per type over the last week
  team-monitor report --group-by hour --duration 12h   # Hourly activity
  team-monitor report --output csv                     # CSV for spreadsheets`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportDuration, "duration", "d", "",
		"Time duration to look back (e.g., 12h, 7d, 2w, 1m, 1d12h)")
	reportCmd.Flags().StringVar(&reportGroupBy, "group-by", "team",
		"Group by field (team, event, day, week, month, hour)")
	reportCmd.Flags().StringVar(&reportTimezone, "timezone", "Local",
		"Timezone for time buckets (e.g., Asia/Shanghai, UTC)")
	reportCmd.Flags().IntVar(&reportMaxRecords, "max", 1000,
		"Maximum number of history records to read")
}

func runReport(cmd *cobra.Command, args []string) error {
	a := analyzer.New(&analyzer.Config{
		OutputFormat: outputFormat,
		Timezone:     reportTimezone,
		Duration:     reportDuration,
		GroupBy:      reportGroupBy,
		Team:         runtimeConfig.Team,
		MaxRecords:   reportMaxRecords,
	}, newClient(), cmd.OutOrStdout())
	return a.Run(cmd.Context())
}
