package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"flipswap/config"
	"flipswap/pkg/client"
	"flipswap/pkg/order"
	"flipswap/pkg/storage"
)

// app bundles the wired-up collaborators the commands share.
type app struct {
	cfg      *config.Config
	client   *client.Client
	store    *storage.CompletedStore
	sessions *order.SessionStore
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewCompletedStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open completed-transaction store: %w", err)
	}

	return &app{
		cfg:      cfg,
		client:   client.New(cfg.BaseURL, cfg.APIKey),
		store:    store,
		sessions: order.NewSessionStore(cfg.SessionPath),
	}, nil
}

func (a *app) tracker(hooks order.TrackerHooks) *order.Tracker {
	return order.NewTracker(a.client, a.store, a.sessions, hooks, logger())
}

func logger() *slog.Logger {
	return slog.Default()
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}
