package commands

import (
	"fmt"

	"github.com/penwyp/go-team-monitor/internal/application/settings"
	"github.com/penwyp/go-team-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	settingsFile string
	settingsForm settings.Form
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Save organization settings",
	Long: `Posts the organization settings document to /settings. Values come from
the YAML form in --file, then from flags. Empty optional keys are left out;
--disabled-teams is a comma-separated list.`,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	flags := settingsCmd.Flags()
	flags.StringVarP(&settingsFile, "file", "f", "",
		"YAML settings form")
	flags.StringVar(&settingsForm.Organization, "organization", "",
		"Organization name")
	flags.StringVar(&settingsForm.OpenAIAPIKey, "openai-api-key", "",
		"OpenAI API key")
	flags.StringVar(&settingsForm.CRMAPIURL, "crm-api-url", "",
		"CRM API URL")
	flags.StringVar(&settingsForm.CRMAPIKey, "crm-api-key", "",
		"CRM API key")
	flags.StringVar(&settingsForm.EmailServiceAPIKey, "email-service-api-key", "",
		"Email service API key")
	flags.StringVar(&settingsForm.DisabledTeams, "disabled-teams", "",
		"Comma-separated teams to disable")
}

func runSettings(cmd *cobra.Command, args []string) error {
	form := settings.Form{}
	if settingsFile != "" {
		loaded, err := settings.LoadForm(settingsFile)
		if err != nil {
			return err
		}
		form = *loaded
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag  string
		dst   *string
		value string
	}{
		{"organization", &form.Organization, settingsForm.Organization},
		{"openai-api-key", &form.OpenAIAPIKey, settingsForm.OpenAIAPIKey},
		{"crm-api-url", &form.CRMAPIURL, settingsForm.CRMAPIURL},
		{"crm-api-key", &form.CRMAPIKey, settingsForm.CRMAPIKey},
		{"email-service-api-key", &form.EmailServiceAPIKey, settingsForm.EmailServiceAPIKey},
		{"disabled-teams", &form.DisabledTeams, settingsForm.DisabledTeams},
	}
	for _, o := range overrides {
		if flags.Changed(o.flag) {
			*o.dst = o.value
		}
	}

	if err := form.Save(cmd.Context(), newClient()); err != nil {
		return err
	}

	payload := form.Payload()
	fmt.Fprintf(cmd.OutOrStdout(), "%s settings for %q (%d disabled teams)\n",
		util.FormatOK("Saved"), payload.Organization, len(payload.DisabledTeams))
	return nil
}
