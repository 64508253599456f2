package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/colimarl/groupchat-server/internal/app"
	"github.com/colimarl/groupchat-server/internal/config"
	"github.com/colimarl/groupchat-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		dbPath     string
		uploadDir  string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:          "groupchat-server",
		Short:        "Real-time group chat server with persistent history",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// .env first, before anything reads the environment.
			_ = godotenv.Load()

			bootLog := log.New(logLevel)
			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}

			// Flags override file and env values.
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = dbPath
			}
			if cmd.Flags().Changed("upload-dir") {
				cfg.UploadDir = uploadDir
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Msg("configuration loaded")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file")
	flags.StringVar(&addr, "addr", "", "HTTP listen address")
	flags.StringVar(&dbPath, "db", "", "path to the SQLite database")
	flags.StringVar(&uploadDir, "upload-dir", "", "directory for uploaded images")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
