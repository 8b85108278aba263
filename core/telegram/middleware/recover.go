package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/polbot/core/logger"
	tghelpers "github.com/m3rciful/polbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a handler panic into a logged error so one bad
// update cannot take the process down.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				updateID, userID, _ := tghelpers.IDs(c)
				logger.TG.Error("panic recovered",
					slog.String("event", "tg.panic"),
					slog.Int("update_id", updateID),
					slog.Int64("user_id", userID),
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return next(c)
	}
}
