// Package app wires configuration, storage and services together for the
// server and the command-line front-end.
package app

import (
	"fmt"

	"github.com/vytor/part107/internal/catalog"
	"github.com/vytor/part107/internal/config"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/repository/jsonfile"
	"github.com/vytor/part107/internal/repository/sqlite"
	"github.com/vytor/part107/internal/services"
)

type App struct {
	Config  config.Config
	Store   repository.Store
	Catalog *catalog.Catalog

	Study    services.StudyService
	Practice services.PracticeService
	Progress services.ProgressService
	Settings services.SettingsService
}

// OpenStore opens the storage backend selected by cfg.StoreDriver.
func OpenStore(cfg config.Config) (repository.Store, error) {
	log := logger.Default().WithPrefix("app")

	switch cfg.StoreDriver {
	case config.DriverSQLite:
		log.Debug("using sqlite store: %s", cfg.DBPath)
		return sqlite.Open(cfg.DBPath)
	case config.DriverFile:
		log.Debug("using file store: %s", cfg.DataFile)
		return jsonfile.Open(cfg.DataFile)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New opens the store and builds every service. Callers must Close the App.
func New(cfg config.Config, opts ...services.Option) (*App, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	opts = append([]services.Option{services.WithQuickLimit(cfg.QuickSessionSize)}, opts...)

	return &App{
		Config:   cfg,
		Store:    store,
		Catalog:  cat,
		Study:    services.NewStudyService(cat, store.Progress(), opts...),
		Practice: services.NewPracticeService(cat, store.History(), opts...),
		Progress: services.NewProgressService(store, cat, opts...),
		Settings: services.NewSettingsService(store.Settings()),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
