// Package storage persists one opaque document as a whole. Backends never
// merge: every Save overwrites the previous body.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("storage: document not found")

// Backend loads and overwrites a single document body.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, body []byte) error
	Close() error
	Name() string
}
