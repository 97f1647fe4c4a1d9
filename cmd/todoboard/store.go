package main

import (
	"fmt"

	"go.uber.org/zap"

	"todoboard/internal/repository"
	"todoboard/pkg/config"
	"todoboard/pkg/db"
)

// openStore connects to the configured driver. The caller closes the store.
func openStore(cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(pool, log), nil
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteStore(conn, log), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
