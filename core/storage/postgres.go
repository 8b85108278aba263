package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const defaultDocumentName = "polbot"

const (
	selectDocumentSQL = `SELECT body FROM documents WHERE name = $1`
	upsertDocumentSQL = `INSERT INTO documents (name, body, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
)

// PostgresBackend keeps the document as one jsonb row in the documents table.
type PostgresBackend struct {
	db   *sqlx.DB
	name string
}

// NewPostgresBackend wraps an open connection pool.
func NewPostgresBackend(db *sqlx.DB, name string) *PostgresBackend {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultDocumentName
	}
	return &PostgresBackend{db: db, name: name}
}

// Name identifies the backend in logs.
func (p *PostgresBackend) Name() string { return DriverPostgres }

// Load selects the document row.
func (p *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	var body []byte
	err := p.db.GetContext(ctx, &body, selectDocumentSQL, p.name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return body, nil
}

// Save upserts the document row in a single statement.
func (p *PostgresBackend) Save(ctx context.Context, body []byte) error {
	if _, err := p.db.ExecContext(ctx, upsertDocumentSQL, p.name, string(body)); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresBackend) Close() error {
	return p.db.Close()
}
