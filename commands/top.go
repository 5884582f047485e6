package commands

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/application/top"
	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-team-monitor/internal/presentation/layout"
	"github.com/spf13/cobra"
)

var (
	// Display related flags
	topRefreshPerSecond float64
	topLayout           string
	topOnce             bool

	// Event related flags
	topEventType    string
	topEventPayload string
)

var topCmd = &cobra.Command{
	Use:   "top [team]",
	Short: "Live dashboard for a team",
	Long: `Similar to Linux top command, shows one team in real time:

- Status: polled every poll_interval
- Last event: the response to the event submitted with 'e'
- Activity: the history snapshot followed by live activity
- Stream: every message received on the team stream

Press 'h' inside the dashboard for keyboard shortcuts. With --once the
status and history are fetched a single time and printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)

	// Display flags
	topCmd.Flags().Float64Var(&topRefreshPerSecond, "refresh-per-second", 1,
		"Display refresh rate (0.1-20 Hz)")
	topCmd.Flags().StringVar(&topLayout, "layout", "full",
		"Initial layout (full, minimal)")
	topCmd.Flags().BoolVar(&topOnce, "once", false,
		"Print a single snapshot and exit")

	// Event flags
	topCmd.Flags().StringVar(&topEventType, "event-type", "",
		"Event type submitted with 'e'")
	topCmd.Flags().StringVar(&topEventPayload, "event-payload", "{}",
		"Event payload (JSON) submitted with 'e'")
}

func runTop(cmd *cobra.Command, args []string) error {
	// Validate refresh rate
	if topRefreshPerSecond < 0.1 || topRefreshPerSecond > 20 {
		return fmt.Errorf("refresh-per-second must be between 0.1 and 20")
	}

	style, err := parseLayout(topLayout)
	if err != nil {
		return err
	}

	teamName := runtimeConfig.Team
	if len(args) > 0 {
		teamName = args[0]
	}

	config := &top.TopConfig{
		BaseURL:       runtimeConfig.BaseURL,
		Team:          teamName,
		Credential:    credential(),
		Timeout:       runtimeConfig.Timeout,
		PollInterval:  runtimeConfig.PollInterval,
		UIRefreshRate: topRefreshPerSecond,
		StreamBuffer:  runtimeConfig.StreamBuffer,
		HistoryLimit:  runtimeConfig.HistoryLimit,
		EventType:     topEventType,
		EventPayload:  topEventPayload,
		LayoutStyle:   style,
	}

	orchestrator, err := top.NewOrchestrator(config)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if !topOnce {
		return orchestrator.Run(ctx)
	}

	view, err := orchestrator.Snapshot(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if outputFormat == formatter.FormatJSON {
		data, err := sonic.ConfigStd.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	for _, line := range layout.GetLayoutStrategy(style).Render(view, layout.TerminalSizer()) {
		fmt.Fprintln(out, line)
	}
	return nil
}

func parseLayout(name string) (int, error) {
	switch name {
	case "", "full":
		return layout.StyleFull, nil
	case "minimal":
		return layout.StyleMinimal, nil
	default:
		return 0, fmt.Errorf("invalid layout '%s': must be either 'full' or 'minimal'", name)
	}
}
