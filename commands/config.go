package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-team-monitor/internal/util"
	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to --config",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false,
		"Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := util.ExpandPath(configPath)
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	}
	if err := runtimeConfig.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", util.FormatOK("Wrote"), path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := *runtimeConfig
	key := maskKey(credential())
	rows := [][]string{
		{"base_url", cfg.BaseURL},
		{"api_key", key},
		{"team", cfg.Team},
		{"poll_interval", cfg.PollInterval.String()},
		{"stream_buffer", fmt.Sprint(cfg.StreamBuffer)},
		{"history_limit", fmt.Sprint(cfg.HistoryLimit)},
		{"timeout", cfg.Timeout.String()},
	}

	data := make(map[string]string, len(rows))
	for _, row := range rows {
		data[row[0]] = row[1]
	}
	return writeReport(cmd.OutOrStdout(), formatter.Report{
		Headers: []string{"Key", "Value"},
		Rows:    rows,
		Data:    data,
	})
}

// maskKey keeps the last four characters of a credential
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
