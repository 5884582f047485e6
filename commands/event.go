package commands

import (
	"fmt"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/application/eventform"
	"github.com/spf13/cobra"
)

var (
	eventType    string
	eventPayload string
)

var eventCmd = &cobra.Command{
	Use:   "event [team]",
	Short: "Submit an event to a team",
	Long: `Posts {"type": ..., "payload": ...} to /teams/{team}/event and prints the
response status and body. The payload must be valid JSON and defaults to {}.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEvent,
}

func init() {
	rootCmd.AddCommand(eventCmd)

	eventCmd.Flags().StringVar(&eventType, "type", "",
		"Event type (e.g., lead, deploy)")
	eventCmd.Flags().StringVar(&eventPayload, "payload", eventform.DefaultPayload,
		"Event payload as JSON")
	_ = eventCmd.MarkFlagRequired("type")
}

func runEvent(cmd *cobra.Command, args []string) error {
	teamName, err := teamArg(args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	form := eventform.NewForm(newClient(), func(result *api.EventResult) {
		fmt.Fprintln(out, eventform.FormatResult(result))
	})

	_, err = form.Submit(cmd.Context(), eventform.Input{
		Team:    teamName,
		Type:    eventType,
		Payload: eventPayload,
	})
	if err != nil {
		return fmt.Errorf("failed to submit event: %w", err)
	}
	return nil
}
