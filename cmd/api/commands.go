package main

import (
	"fmt"
	"time"

	"github.com/dhima/feishu-notifier/internal/api"
	"github.com/dhima/feishu-notifier/internal/logging"
	"github.com/dhima/feishu-notifier/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagPort     string
	flagDriver   string
	flagDatabase string
)

var rootCmd = &cobra.Command{
	Use:   "feishu-notifier",
	Short: "Feishu chat notifier",
	Long: `Feishu chat notifier.

Runs calendar tasks and repository webhook tasks against Feishu custom bots.
Configuration comes from the environment (or a .env file); flags override it.

Examples:
  feishu-notifier                    # same as "feishu-notifier serve"
  feishu-notifier serve --port 9090  # listen on another port
  feishu-notifier migrate            # create missing tables and exit`,
	SilenceUsage: true,
	RunE:         serveRun, // bare invocation acts as "serve"
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the task scheduler",
	RunE:  serveRun,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tasks and execution_logs tables if absent",
	RunE:  migrateRun,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDriver, "db-driver", "", "database driver: sqlite or mysql (overrides DATABASE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "db-url", "", "database DSN (overrides DATABASE_URL)")
	rootCmd.Flags().StringVar(&flagPort, "port", "", "HTTP listen port (overrides API_PORT)")
	serveCmd.Flags().StringVar(&flagPort, "port", "", "HTTP listen port (overrides API_PORT)")

	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func loadConfig() config.App {
	cfg := config.FromEnv()
	if flagPort != "" {
		cfg.APIPort = flagPort
	}
	if flagDriver != "" {
		cfg.DatabaseDriver = flagDriver
	}
	if flagDatabase != "" {
		cfg.DatabaseURL = flagDatabase
	}
	return cfg
}

func newLogger(cfg config.App) (logging.Logger, error) {
	logger, err := logging.NewLogger(cfg.Environment, cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	srv, err := api.NewServer(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize server",
			zap.String("driver", cfg.DatabaseDriver),
			zap.Error(err),
		)
		_ = logger.Sync()
		return err
	}
	return srv.Serve()
}

func migrateRun(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	start := time.Now()
	if err := api.Migrate(cmd.Context(), cfg, logger); err != nil {
		logger.Error("migration failed", zap.Error(err))
		return err
	}
	logger.Info("migration finished", zap.Duration("elapsed", time.Since(start)))
	return nil
}
