package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/polbot/bot/domain"
	"github.com/m3rciful/polbot/bot/store"
	"github.com/m3rciful/polbot/core/logger"
)

// DefaultFileOrganization is assigned to files created through the admin flow
// when no other organization is configured.
const DefaultFileOrganization = "ORG1"

// Outcome describes what a consumed message did. Exactly one of Next, Guide
// or File is set.
type Outcome struct {
	Next  domain.Step
	Guide *domain.Guide
	File  *domain.File
}

// Conversation drives the per-user admin input flows. Every transition is
// persisted before it is reported.
type Conversation struct {
	store      *store.Store
	defaultOrg string
}

// NewConversation builds the state machine. An empty org falls back to
// DefaultFileOrganization.
func NewConversation(s *store.Store, defaultOrg string) *Conversation {
	if strings.TrimSpace(defaultOrg) == "" {
		defaultOrg = DefaultFileOrganization
	}
	return &Conversation{store: s, defaultOrg: defaultOrg}
}

// Pending returns the user's pending step.
func (c *Conversation) Pending(userID int64) (domain.Step, bool) {
	var (
		st domain.Step
		ok bool
	)
	c.store.View(func(doc *domain.Document) {
		st, ok = doc.States[userID]
	})
	return st, ok && st != nil
}

// InProgress reports whether the user has a pending step.
func (c *Conversation) InProgress(userID int64) bool {
	_, ok := c.Pending(userID)
	return ok
}

// Begin starts a flow, replacing any pending step.
func (c *Conversation) Begin(ctx context.Context, userID int64, step domain.Step) error {
	err := c.store.Update(ctx, func(doc *domain.Document) error {
		doc.States[userID] = step
		return nil
	})
	if err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "flow.begin",
		slog.Int64("user_id", userID),
		slog.String("action", string(step.Action())),
	)
	return nil
}

// Cancel drops the pending step. It reports whether one existed.
func (c *Conversation) Cancel(ctx context.Context, userID int64) (bool, error) {
	err := c.store.Update(ctx, func(doc *domain.Document) error {
		if _, ok := doc.States[userID]; !ok {
			return errNoPending
		}
		delete(doc.States, userID)
		return nil
	})
	if errors.Is(err, errNoPending) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "flow.cancel",
		slog.Int64("user_id", userID),
	)
	return true, nil
}

// errNoPending aborts a cancel update so nothing is written.
var errNoPending = errors.New("no pending step")

// Advance feeds text into the pending step. Title steps move to the next
// step; final steps allocate the next id, append the entity and clear the
// state in one persisted update. Without a pending step it returns
// domain.ErrNotFound.
func (c *Conversation) Advance(ctx context.Context, userID int64, text string) (Outcome, error) {
	var out Outcome
	err := c.store.Update(ctx, func(doc *domain.Document) error {
		st, ok := doc.States[userID]
		if !ok || st == nil {
			return domain.ErrNotFound
		}
		switch s := st.(type) {
		case domain.AddingGuideTitle:
			next := domain.AddingGuideContent{Title: text}
			doc.States[userID] = next
			out.Next = next
		case domain.AddingGuideContent:
			g := doc.AppendGuide(s.Title, text)
			delete(doc.States, userID)
			out.Guide = &g
		case domain.AddingFileTitle:
			next := domain.AddingFileURL{Title: text}
			doc.States[userID] = next
			out.Next = next
		case domain.AddingFileURL:
			f := doc.AppendFile(s.Title, strings.TrimSpace(text), c.defaultOrg, nil)
			delete(doc.States, userID)
			out.File = &f
		default:
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	attrs := []slog.Attr{slog.Int64("user_id", userID)}
	switch {
	case out.Guide != nil:
		attrs = append(attrs, slog.String("outcome", "ok"), slog.Int64("guide_id", out.Guide.ID))
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "guide.created", attrs...)
	case out.File != nil:
		attrs = append(attrs, slog.String("outcome", "ok"), slog.Int64("file_id", out.File.ID), slog.String("org", out.File.Organization))
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelInfo, "file.created", attrs...)
	default:
		attrs = append(attrs, slog.String("action", string(out.Next.Action())))
		logger.LogEvent(ctx, logger.SVCConversation, slog.LevelDebug, "flow.advance", attrs...)
	}
	return out, nil
}
