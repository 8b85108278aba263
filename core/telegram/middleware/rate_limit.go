package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/polbot/core/logger"
	tghelpers "github.com/m3rciful/polbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

type limiter struct {
	interval time.Duration
	mu       sync.Mutex
	lastSeen map[int64]time.Time
}

// allow records a hit for userID and reports whether it is outside the
// interval of the previous accepted hit.
func (l *limiter) allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, ok := l.lastSeen[userID]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[userID] = now
	return true
}

// UpdateKind names the update for exclusion lists: "callback", "message" or "other".
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	}
	return "other"
}

// RateLimitMiddleware drops updates arriving from the same user faster than
// the configured interval. Dropped updates get no reply.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	l := &limiter{interval: opts.Interval, lastSeen: make(map[int64]time.Time)}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if l.allow(user.ID, time.Now()) {
				return next(c)
			}

			updateID, userID, chatID := tghelpers.IDs(c)
			logger.TG.Warn("rate limit",
				slog.String("event", "tg.rate_limit"),
				slog.String("kind", kind),
				slog.Int("update_id", updateID),
				slog.Int64("chat_id", chatID),
				slog.Int64("user_id", userID),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
