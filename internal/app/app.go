package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/colimarl/groupchat-server/internal/config"
	"github.com/colimarl/groupchat-server/internal/core"
	"github.com/colimarl/groupchat-server/internal/store"
	"github.com/colimarl/groupchat-server/internal/store/blobfs"
	"github.com/colimarl/groupchat-server/internal/store/sqlite"
	transporthttp "github.com/colimarl/groupchat-server/internal/transport/http"
)

// App wires together core, storage and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.MessageStore
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init message store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("message store initialized")

	blobs, err := blobfs.New(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	logger.Info().Str("upload_dir", cfg.UploadDir).Msg("blob store initialized")

	coord := core.NewCoordinator(st, core.NewRegistry(), logger)
	server := transporthttp.NewServer(coord, blobs, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or
// fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("listening")

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close message store")
		} else {
			a.log.Info().Msg("message store closed")
		}
	}
}
