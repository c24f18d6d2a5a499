package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mon-launch/config"
	"mon-launch/pkg/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the forwarding relay server",
	Long: `Run the stateless forwarding relay. Requests under /relay/* are replayed
against the configured upstream with hop-sensitive headers stripped; CORS is
answered locally against the configured origin allow-list.

Configuration (env or .mon-launch.yaml):
  MON_LAUNCH_RELAY_UPSTREAM_URL      upstream base URL (required)
  MON_LAUNCH_RELAY_LISTEN_ADDR       listen address (default :8787)
  MON_LAUNCH_RELAY_ALLOWED_ORIGINS   comma-separated CORS allow-list`,
	Run: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if err := cfg.ValidateRelay(); err != nil {
		printError(err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer logger.Sync()

	server, err := relay.New(cfg.Relay.UpstreamURL, cfg.Relay.AllowedOrigins, logger)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := server.ListenAndServe(cmd.Context(), cfg.Relay.ListenAddr); err != nil {
		printError(err)
		os.Exit(1)
	}
}
