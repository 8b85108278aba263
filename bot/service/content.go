package service

import (
	"context"
	"log/slog"

	"github.com/m3rciful/polbot/bot/domain"
	"github.com/m3rciful/polbot/bot/store"
	"github.com/m3rciful/polbot/core/logger"
)

// Content answers read-only queries about users, guides and files.
type Content struct {
	store *store.Store
}

// NewContent builds the content query service.
func NewContent(s *store.Store) *Content {
	return &Content{store: s}
}

// User returns the registered user, if any.
func (c *Content) User(userID int64) (domain.User, bool) {
	var (
		u  domain.User
		ok bool
	)
	c.store.View(func(doc *domain.Document) {
		u, ok = doc.Users[userID]
	})
	return u, ok
}

// FilesFor returns the files visible to u in creation order.
func (c *Content) FilesFor(u domain.User) []domain.File {
	var out []domain.File
	c.store.View(func(doc *domain.Document) {
		for _, f := range doc.Files {
			if f.VisibleTo(u) {
				out = append(out, f)
			}
		}
	})
	return out
}

// GuideByID returns domain.ErrNotFound for unknown ids.
func (c *Content) GuideByID(ctx context.Context, id int64) (domain.Guide, error) {
	var (
		g  domain.Guide
		ok bool
	)
	c.store.View(func(doc *domain.Document) {
		g, ok = doc.GuideByID(id)
	})
	if !ok {
		logger.LogEvent(ctx, logger.SVCContent, slog.LevelDebug, "guide.miss",
			slog.Int64("guide_id", id),
		)
		return domain.Guide{}, domain.ErrNotFound
	}
	return g, nil
}

// Guides lists every guide in creation order.
func (c *Content) Guides() []domain.Guide {
	var out []domain.Guide
	c.store.View(func(doc *domain.Document) {
		out = append(out, doc.Guides...)
	})
	return out
}

// Files lists every file in creation order.
func (c *Content) Files() []domain.File {
	var out []domain.File
	c.store.View(func(doc *domain.Document) {
		out = append(out, doc.Files...)
	})
	return out
}
