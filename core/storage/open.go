package storage

import (
	"fmt"
	"strings"
)

// Open builds the backend selected by cfg.Driver. The postgres driver also
// applies pending migrations before returning.
func Open(cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFile:
		return NewFileBackend(cfg.Path)
	case DriverPostgres:
		db, err := ConnectPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(cfg.Postgres); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewPostgresBackend(db, cfg.Postgres.Document), nil
	case DriverRedis:
		return ConnectRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
