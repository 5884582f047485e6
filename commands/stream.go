package commands

import (
	"fmt"
	"sync"

	"github.com/penwyp/go-team-monitor/internal/application/streamview"
	"github.com/spf13/cobra"
)

var streamCount int

var streamCmd = &cobra.Command{
	Use:   "stream [team]",
	Short: "Follow the live status and activity stream of a team",
	Long: `Connects to GET /teams/{team}/stream and prints every status and activity
message as "<channel>: <data>" until interrupted. Dropped connections are
retried; an HTTP error ends the command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStream,
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().IntVarP(&streamCount, "count", "n", 0,
		"Exit after this many messages (0 = follow forever)")
}

func runStream(cmd *cobra.Command, args []string) error {
	teamName, err := teamArg(args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	printed := 0

	viewer := streamview.NewViewer(runtimeConfig.BaseURL, runtimeConfig.StreamBuffer)
	viewer.OnUpdate(func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if streamCount > 0 && printed >= streamCount {
			return
		}
		fmt.Fprintln(out, line)
		printed++
		if streamCount > 0 && printed == streamCount {
			cancel()
		}
	})
	viewer.Open(ctx, teamName, credential())
	defer viewer.Close()

	select {
	case <-ctx.Done():
		return nil
	case <-viewer.Done():
		if ctx.Err() != nil {
			return nil
		}
		if err := viewer.Err(); err != nil {
			return fmt.Errorf("stream for %s closed: %w", teamName, err)
		}
		return nil
	}
}
