package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cap-mahdi/TP2-devops/pkg/logging"
	"github.com/cap-mahdi/TP2-devops/pkg/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &configFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the users API server (foreground)",
		Long: `Start the users API server in the foreground.

The server exposes /users CRUD endpoints, /health and the metrics endpoint
(default /metrics). It stops gracefully on SIGINT or SIGTERM.`,
		Example: `  # Start with defaults (port 4000)
  tp2-backend serve

  # Custom port and JSON logs
  tp2-backend serve --port 8080 --log-format json

  # Use a config file
  tp2-backend serve --config ./tp2.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g, f)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}

			log, closeLog, err := logging.Open(logging.Config{
				Level:  logging.ParseLevel(cfg.LogLevel),
				Format: logging.ParseFormat(cfg.LogFormat),
				Output: os.Stderr,
				File:   cfg.LogFile,
			})
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			if cfg.ConfigFile != "" {
				log.Info("loaded config file", "path", cfg.ConfigFile)
			}

			srv, err := server.New(cfg, server.WithLogger(log))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	f.register(cmd)
	return cmd
}
