package commands

import (
	"fmt"
	"net"

	"github.com/penwyp/go-team-monitor/internal/application/settings"
	"github.com/penwyp/go-team-monitor/internal/devserver"
	"github.com/penwyp/go-team-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	mockAddr  string
	mockDB    string
	mockTeams string
)

var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Run a local stand-in for the team operations API",
	Long: `Serves every endpoint the client uses, including the team streams, so the
dashboard and commands can be tried without the real service. Every event
is answered with {"status": "handled"} and recorded in the history.

The API key from --api-key (or the config) is required on every request
when set. With --db, history, workflows and settings persist in SQLite.`,
	RunE: runServeMock,
}

func init() {
	rootCmd.AddCommand(serveMockCmd)

	serveMockCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8000",
		"Listen address")
	serveMockCmd.Flags().StringVar(&mockDB, "db", "",
		"SQLite database path (empty = in memory)")
	serveMockCmd.Flags().StringVar(&mockTeams, "teams", "",
		"Comma-separated known teams (empty = accept any team)")
}

func runServeMock(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	var store devserver.Store = devserver.NewMemoryStore()
	if mockDB != "" {
		path := util.ExpandPath(mockDB)
		sqliteStore, err := devserver.OpenSQLiteStore(ctx, path)
		if err != nil {
			return err
		}
		store = sqliteStore
		util.LogInfo("using sqlite store", util.String("path", path))
	}
	defer store.Close()

	srv := devserver.NewServer(devserver.Config{
		APIKey: credential(),
		Teams:  settings.SplitTeams(mockTeams),
	}, store)

	out := cmd.OutOrStdout()
	return srv.ListenAndServe(ctx, mockAddr, func(addr net.Addr) {
		fmt.Fprintf(out, "Listening on http://%s\n", addr)
	})
}
