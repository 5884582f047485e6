package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/penwyp/go-team-monitor/internal/application/eventform"
	"github.com/penwyp/go-team-monitor/internal/data/parser"
	"github.com/penwyp/go-team-monitor/internal/data/scanner"
	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-team-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	replayConcurrency int
	replayDryRun      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file-or-dir>",
	Short: "Submit events recorded in JSONL files",
	Long: `Reads one event per line from a .jsonl file, or from every .jsonl file under
a directory, and submits them in order:

  {"team": "sales", "type": "lead", "payload": {"name": "acme"}}

Lines without a team go to --team. Invalid lines are skipped. Every event
is attempted; the command fails if any submission failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().IntVar(&replayConcurrency, "concurrency", 4,
		"Number of files parsed in parallel")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false,
		"Parse and list the events without submitting them")
}

type replayRow struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Team   string `json:"team"`
	Type   string `json:"type"`
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	files, err := scanner.NewFileScanner(args[0]).Scan()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .jsonl files found in %s", args[0])
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	form := eventform.NewForm(newClient(), nil)
	rows := []replayRow{}
	failed, skipped := 0, 0

	for _, result := range parser.NewParser(replayConcurrency).ParseFiles(files) {
		if result.Error != nil {
			return result.Error
		}
		skipped += result.Skipped

		for _, entry := range result.Entries {
			row := replayRow{
				File: filepath.Base(entry.File),
				Line: entry.Line,
				Team: entry.Team,
				Type: entry.Type,
			}
			if row.Team == "" {
				row.Team = runtimeConfig.Team
			}

			switch {
			case row.Team == "":
				row.Error = "no team"
			case replayDryRun:
			default:
				payload := eventform.DefaultPayload
				if len(entry.Payload) > 0 {
					payload = string(entry.Payload)
				}
				res, err := form.Submit(ctx, eventform.Input{
					Team:    row.Team,
					Type:    entry.Type,
					Payload: payload,
				})
				if err != nil {
					row.Error = err.Error()
				} else {
					row.Status = res.StatusCode
				}
			}
			if row.Error != "" {
				failed++
			}
			rows = append(rows, row)

			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	util.LogInfo("replay finished",
		util.Int("events", len(rows)),
		util.Int("failed", failed),
		util.Int("skipped", skipped))

	report := formatter.Report{
		Headers:    []string{"File", "Line", "Team", "Type", "Result"},
		RightAlign: map[int]bool{1: true},
		Data:       rows,
	}
	for _, row := range rows {
		outcome := row.Error
		switch {
		case outcome != "":
		case replayDryRun:
			outcome = "dry run"
		default:
			outcome = "HTTP " + strconv.Itoa(row.Status)
		}
		report.Rows = append(report.Rows, []string{
			row.File, strconv.Itoa(row.Line), row.Team, row.Type, outcome,
		})
	}
	if err := writeReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d events failed", failed, len(rows))
	}
	return nil
}
