// Package app wires the application container.
package app

import (
	"context"

	"github.com/abdulachik/crossbot/internal/config"
	"github.com/abdulachik/crossbot/internal/crypto"
	"github.com/abdulachik/crossbot/internal/db"
	"github.com/abdulachik/crossbot/internal/dispatch"
	"github.com/abdulachik/crossbot/internal/media"
	"github.com/abdulachik/crossbot/internal/stats"
)

// App is the main application container holding all dependencies.
type App struct {
	Config     *config.Config
	Store      *db.Store
	Encryptor  *crypto.FieldEncryptor
	Resolver   *media.Resolver
	Dispatcher *dispatch.Dispatcher
	Recorder   *stats.Recorder
}

// New creates a new application instance with all dependencies wired up.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := db.NewStore(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	// Commands that never touch credentials run without a key; the ones
	// that do validate its presence up front.
	var encryptor *crypto.FieldEncryptor
	if cfg.EncryptionKey != "" {
		encryptor, err = crypto.NewFieldEncryptor([]byte(cfg.EncryptionKey), "accounts")
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	resolver := media.NewResolver(media.ResolverConfig{
		Dir:     cfg.MediaDir,
		Timeout: cfg.MediaTimeout,
	})

	disp := dispatch.New(dispatch.Config{
		Encryptor: encryptor,
		Resolver:  resolver,
		Workers:   cfg.DispatchWorkers,
	})

	return &App{
		Config:     cfg,
		Store:      store,
		Encryptor:  encryptor,
		Resolver:   resolver,
		Dispatcher: disp,
		Recorder:   stats.NewRecorder(store.Queries, nil),
	}, nil
}

// Close closes all resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
