// Package app wires the application together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ademetov/messenger-server/internal/auth"
	"github.com/ademetov/messenger-server/internal/blob"
	"github.com/ademetov/messenger-server/internal/config"
	"github.com/ademetov/messenger-server/internal/core"
	"github.com/ademetov/messenger-server/internal/service/friends"
	"github.com/ademetov/messenger-server/internal/service/rooms"
	"github.com/ademetov/messenger-server/internal/store"
	"github.com/ademetov/messenger-server/internal/store/sqlite"
	transporthttp "github.com/ademetov/messenger-server/internal/transport/http"
	"github.com/ademetov/messenger-server/internal/view"
)

// tokenTTL is how long issued access tokens stay valid.
const tokenTTL = 24 * time.Hour

// App holds the assembled application.
type App struct {
	cfg    config.Config
	log    *zerolog.Logger
	store  store.Store
	server *http.Server
}

// New builds the application from configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	blobs, err := blob.NewFSStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      tokenTTL,
	}

	authService := auth.NewService(st, jwtConfig)
	roomService := rooms.New(st)
	friendService := friends.New(st)
	renderer := view.NewRenderer(st, friendService)
	registry := core.NewRegistry()

	server := transporthttp.NewServer(registry, authService, st, roomService, friendService, renderer, blobs, &cfg, logger)

	return &App{
		cfg:    cfg,
		log:    logger,
		store:  st,
		server: server,
	}, nil
}

// Run starts the HTTP server and blocks until the context is cancelled, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		a.cleanup()
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func (a *App) cleanup() {
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("failed to close store")
	}
}
