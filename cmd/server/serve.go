package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay HTTP/WebSocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		bootLogger := log.New("info", false)
		cfg, resolved, err := config.Load(bootLogger, configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		var overrides config.Config
		overrides.Addr, _ = cmd.Flags().GetString("addr")
		overrides.LogLevel, _ = cmd.Flags().GetString("log-level")
		overrides.LogJSON, _ = cmd.Flags().GetBool("log-json")
		overrides.DataDir, _ = cmd.Flags().GetString("data-dir")
		overrides.IdleTimeout, _ = cmd.Flags().GetDuration("idle-timeout")
		cfg.UpdateFrom(overrides)

		logger := log.New(cfg.LogLevel, cfg.LogJSON)
		logger.Info().Str("config", resolved).Str("version", version).Msg("starting wirechat relay")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.New(&cfg, logger).Run(ctx); err != nil {
			return fmt.Errorf("server exited with error: %w", err)
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "HTTP listen address")
	serveCmd.Flags().String("log-level", "", "log level (debug, info, warn, error)")
	serveCmd.Flags().Bool("log-json", false, "emit JSON log lines")
	serveCmd.Flags().String("data-dir", "", "directory holding per-room databases")
	serveCmd.Flags().Duration("idle-timeout", 0, "evict idle rooms from memory after this long")
}
