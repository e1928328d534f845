package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openmohaa/fourthdown-api/internal/config"
	"github.com/openmohaa/fourthdown-api/internal/logging"
	"github.com/openmohaa/fourthdown-api/internal/server"
)

var serveFlags struct {
	port  int
	watch bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API. Settings come from the environment (and a .env file when
present): PORT, ENV, LOG_LEVEL, ALLOWED_ORIGINS, LOOKUPS_PATH, LOOKUPS_WATCH,
LOOKUPS_WATCH_DEBOUNCE, REQUEST_TIMEOUT, SHUTDOWN_TIMEOUT, MAX_BATCH_ROWS,
BATCH_WORKERS and BATCH_QUEUE_SIZE.

Examples:
  # Serve the bundled tables on :8080
  fourthdown serve

  # Serve tuned tables and reload them whenever the file changes
  fourthdown --lookups tuned.yaml serve --watch --port 9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "override PORT")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the lookup file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serveFlags.port != 0 {
		cfg.Port = serveFlags.port
	}
	if lookupsPath != "" {
		cfg.LookupsPath = lookupsPath
	}
	if serveFlags.watch {
		cfg.LookupsWatch = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// The --lookups flag was applied before this command ran
	if cfg.LookupsPath != "" && lookupsPath == "" {
		if err := store.Load(cfg.LookupsPath); err != nil {
			logger.Sugar().Errorw("Failed to load lookup tables", "path", cfg.LookupsPath, "error", err)
			return err
		}
	}
	tables := store.Snapshot()
	logger.Sugar().Infow("Lookup tables loaded", "source", tables.Source, "id", tables.ID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, store, logger).Run(ctx)
}
