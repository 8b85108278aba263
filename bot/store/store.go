// Package store owns the bot document. All reads and writes go through one
// mutex; mutations run against a copy that replaces the live document only
// after the backend accepted the full save.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/polbot/bot/domain"
	"github.com/m3rciful/polbot/core/logger"
	"github.com/m3rciful/polbot/core/storage"
)

// Store guards the in-memory document and persists it through a backend.
type Store struct {
	mu      sync.Mutex
	doc     *domain.Document
	backend storage.Backend
}

// New returns a store holding the default document. Call Load to read the
// persisted one.
func New(backend storage.Backend) *Store {
	return &Store{doc: domain.DefaultDocument(), backend: backend}
}

// Load replaces the in-memory document with the persisted one. A missing or
// unreadable document leaves the defaults in place; they are not written back
// until the first mutation.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	body, err := s.backend.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		s.doc = domain.DefaultDocument()
		logger.STORE.Info("document not found, using defaults",
			slog.String("event", "store.load"),
			slog.String("driver", s.backend.Name()),
		)
		return
	}
	if err != nil {
		s.doc = domain.DefaultDocument()
		logger.STORE.Error("document load failed, using defaults",
			slog.String("event", "store.load"),
			slog.String("driver", s.backend.Name()),
			slog.String("err", err.Error()),
		)
		return
	}

	var doc domain.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		s.doc = domain.DefaultDocument()
		logger.STORE.Error("document decode failed, using defaults",
			slog.String("event", "store.load"),
			slog.String("driver", s.backend.Name()),
			slog.String("err", err.Error()),
		)
		return
	}
	for _, uid := range doc.SkippedStates {
		logger.STORE.Warn("stale state dropped",
			slog.String("event", "store.state_drop"),
			slog.Int64("user_id", uid),
		)
	}
	doc.SkippedStates = nil
	s.doc = &doc
	logger.STORE.Info("document loaded",
		slog.String("event", "store.load"),
		slog.String("driver", s.backend.Name()),
		slog.Int("users", len(doc.Users)),
		slog.Int("guides", len(doc.Guides)),
		slog.Int("files", len(doc.Files)),
		slog.Int("states", len(doc.States)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

// View runs fn with read access to the document. fn must not retain or
// modify it.
func (s *Store) View(fn func(doc *domain.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Update runs fn against a copy of the document and persists the copy. The
// live document is swapped only when fn and the save both succeed, so an
// error leaves no partial mutation behind.
func (s *Store) Update(ctx context.Context, fn func(doc *domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// Save writes the current document as is.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, s.doc)
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Store) persist(ctx context.Context, doc *domain.Document) error {
	start := time.Now()
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.backend.Save(ctx, body); err != nil {
		logger.STORE.Error("document save failed",
			slog.String("event", "store.save"),
			slog.String("driver", s.backend.Name()),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("save document: %w", err)
	}
	logger.STORE.Debug("document saved",
		slog.String("event", "store.save"),
		slog.String("driver", s.backend.Name()),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
