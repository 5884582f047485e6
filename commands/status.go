package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/go-team-monitor/internal/application/status"
	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	statusWatch    bool
	statusInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status [team]",
	Short: "Show the last reported status of a team",
	Long: `Fetches GET /teams/{team}/status once. With --watch the status is polled
every --interval and each change is printed until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false,
		"Keep polling and print every change")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 0,
		"Polling interval for --watch (default from config)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	teamName, err := teamArg(args)
	if err != nil {
		return err
	}
	client := newClient()

	if !statusWatch {
		resp, err := client.GetStatus(cmd.Context(), teamName)
		if err != nil {
			return fmt.Errorf("failed to get status of %s: %w", teamName, err)
		}
		return writeReport(cmd.OutOrStdout(), formatter.Report{
			Headers: []string{"Team", "Status"},
			Rows:    [][]string{{teamName, resp.Status}},
			Data:    map[string]string{"team": teamName, "status": resp.Status},
		})
	}

	interval := statusInterval
	if interval <= 0 {
		interval = runtimeConfig.PollInterval
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	var last string
	poller := status.NewPoller(client, teamName, interval, status.WithOnChange(func(st status.State) {
		line := st.Status
		if st.Err != "" {
			line = "error: " + st.Err
		}
		mu.Lock()
		defer mu.Unlock()
		if line == last {
			return
		}
		last = line
		fmt.Fprintf(out, "%s  %s  %s\n", st.UpdatedAt.Format("15:04:05"), teamName, line)
	}))
	poller.Start(ctx)
	<-ctx.Done()
	poller.Stop()
	return nil
}
