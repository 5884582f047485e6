package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/penwyp/go-team-monitor/internal/api"
	"github.com/penwyp/go-team-monitor/internal/config"
	"github.com/penwyp/go-team-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-team-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug   bool
	logFile string

	// Connection related
	configPath string
	baseURL    string
	apiKey     string
	team       string

	// Output related
	outputFormat string

	// runtimeConfig is resolved once per invocation in setup
	runtimeConfig *config.RuntimeConfig

	rootCmd = &cobra.Command{
		Use:   "team-monitor [command]",
		Short: "Team operations API client and dashboard",
		Long: `team-monitor talks to a team operations API: it submits events to teams,
polls their status, follows their live streams, pages the activity history
and manages workflows and organization settings.

Configuration is read from ~/.go-team-monitor/config.yaml, then the
TEAM_MONITOR_API_KEY and TEAM_MONITOR_BASE_URL environment variables, then
flags.

Examples:
  team-monitor top --team sales                        # Live dashboard for the sales team
  team-monitor status --team sales                     # Last reported status
  team-monitor event --team sales --type lead          # Submit an event
  team-monitor history --limit 50 --output json        # Activity history as JSON
  team-monitor report --group-by event --duration 7d   # Events per type over the last week
  team-monitor serve-mock --teams sales,ops            # Local stand-in API`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

const (
	defaultLogFile    = "~/.go-team-monitor/logs/app.log"
	defaultConfigFile = "~/.go-team-monitor/config.yaml"
)

func init() {
	// Connection
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", config.DefaultBaseURL,
		"API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "",
		"API key sent as X-API-Key")
	rootCmd.PersistentFlags().StringVar(&team, "team", "",
		"Team name")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigFile,
		"Config file path")

	// Output configuration
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatter.FormatTable,
		"Output format (table, json, csv)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", defaultLogFile,
		"Log file path")
	_ = rootCmd.PersistentFlags().MarkHidden("log-file")
}

// setup initializes logging and resolves the runtime configuration
func setup(cmd *cobra.Command, args []string) error {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	path := util.ExpandPath(logFile)
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(logLevel, path, debug); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(util.ExpandPath(configPath), os.LookupEnv)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	runtimeConfig = cfg

	util.LogDebug("configuration resolved",
		util.String("base_url", cfg.BaseURL),
		util.String("team", cfg.Team),
		util.String("command", cmd.Name()))
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.RuntimeConfig) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if flags.Changed("api-key") {
		cfg.APIKey = apiKey
	}
	if flags.Changed("team") {
		cfg.Team = team
	}
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func credential() string {
	return config.NewResolver(runtimeConfig).Credential()
}

func newClient() *api.Client {
	return api.NewClient(runtimeConfig.BaseURL, credential(), api.WithTimeout(runtimeConfig.Timeout))
}

// teamArg returns the positional team if given, else the configured one
func teamArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if runtimeConfig.Team == "" {
		return "", fmt.Errorf("no team selected (use --team or pass it as an argument)")
	}
	return runtimeConfig.Team, nil
}

func writeReport(w io.Writer, report formatter.Report) error {
	f, err := formatter.New(outputFormat)
	if err != nil {
		return err
	}
	return f.Format(w, report)
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
