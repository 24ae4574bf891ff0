package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/convo/internal/config"
	"github.com/mmcdole/convo/internal/generator"
	"github.com/mmcdole/convo/internal/player"
	"github.com/mmcdole/convo/internal/progress"
	"github.com/mmcdole/convo/internal/render"
	"github.com/mmcdole/convo/internal/store"
)

const shutdownTimeout = 2 * time.Second

// session holds the services that live for one run of the program
type session struct {
	logger   *slog.Logger
	store    *store.SessionStore
	server   *render.Server
	client   *generator.Client
	launcher *player.Launcher
	sim      *progress.Simulator
}

// openSession opens the session store, starts the local blob server and
// builds the outbound client.
func openSession(cfg *config.Config, logger *slog.Logger) (*session, error) {
	st, err := store.NewSessionStore(cfg.Session.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	srv, err := render.NewServer(st, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to start session server: %w", err)
	}
	go func() {
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("session server stopped", "error", err)
		}
	}()

	logger.Info("session opened", "dir", st.Dir(), "server", srv.URL(""))

	return &session{
		logger:   logger,
		store:    st,
		server:   srv,
		client:   generator.NewClient(cfg.Server.URL, cfg.Server.Timeout, logger),
		launcher: player.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger),
		sim: progress.New(progress.Options{
			Interval: cfg.Progress.Interval,
			MaxStep:  cfg.Progress.MaxStep,
			Ceiling:  cfg.Progress.Ceiling,
		}),
	}, nil
}

// Close stops the blob server and removes every session resource
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("session server shutdown", "error", err)
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("session store close", "error", err)
	}
	s.logger.Info("session closed")
}
