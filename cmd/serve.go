package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akashsiripuram/Nexus/internal/config"
	"github.com/akashsiripuram/Nexus/internal/logging"
	"github.com/akashsiripuram/Nexus/internal/server"
	"github.com/akashsiripuram/Nexus/internal/version"
)

var (
	flagHost           string
	flagPort           int
	flagAllowedOrigins string
	flagSendBuffer     int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat relay server",
	Long: `Run the WebSocket chat relay.

Endpoints:
  /ws       chat websocket
  /health   liveness probe
  /rooms    active rooms as JSON
  /metrics  Prometheus metrics

Examples:
  nexus serve
  nexus serve --port 9000 --allowed-origins https://app.example.com
  PORT=9000 LOG_LEVEL=debug nexus serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.Options{
			Host:           flagHost,
			Port:           flagPort,
			AllowedOrigins: flagAllowedOrigins,
			SendBuffer:     flagSendBuffer,
		})
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting nexus relay",
		zap.String("version", version.Version),
		zap.String("addr", cfg.Addr()),
		zap.Strings("allowed_origins", cfg.AllowedOrigins))

	return server.New(cfg, log).ListenAndServe(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&flagHost, "host", "", "Listen host (env HOST, default 0.0.0.0)")
	serveCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "Listen port (env PORT, default 8080)")
	serveCmd.Flags().StringVar(&flagAllowedOrigins, "allowed-origins", "", "Comma-separated websocket origins, empty allows all (env ALLOWED_ORIGINS)")
	serveCmd.Flags().IntVar(&flagSendBuffer, "send-buffer", 0, "Outbound frames queued per connection (env SEND_BUFFER, default 256)")
}
