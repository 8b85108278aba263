package telegram

import (
	"context"

	"github.com/m3rciful/polbot/bot/router"
	tg "github.com/m3rciful/polbot/core/telegram"
	tgrouter "github.com/m3rciful/polbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Handler is the transport-independent side of the bot.
type Handler interface {
	HandleMessage(ctx context.Context, msg router.Message) (string, error)
	HandleCallback(ctx context.Context, cb router.Callback) (string, error)
}

// Routes binds text messages and button presses to h.
func Routes(h Handler) []tg.Route {
	return []tg.Route{
		tgrouter.TextRoute(func(ctx context.Context, c tele.Context) (string, error) {
			msg, ok := MessageFrom(c.Update())
			if !ok {
				return "text.skip", nil
			}
			return h.HandleMessage(ctx, msg)
		}),
		tgrouter.CallbackRoute(func(ctx context.Context, c tele.Context) (string, error) {
			cb, ok := CallbackFrom(c.Update())
			if !ok {
				return "callback.skip", nil
			}
			return h.HandleCallback(ctx, cb)
		}),
	}
}

// MessageFrom extracts a text message. Updates without a sender or chat are
// rejected.
func MessageFrom(upd tele.Update) (router.Message, bool) {
	m := upd.Message
	if m == nil || m.Sender == nil || m.Chat == nil {
		return router.Message{}, false
	}
	return router.Message{
		ChatID:    m.Chat.ID,
		UserID:    m.Sender.ID,
		FirstName: m.Sender.FirstName,
		LastName:  m.Sender.LastName,
		Text:      m.Text,
	}, true
}

// CallbackFrom extracts a button press. The originating message may be
// missing for old or inline messages; chat and message id are zero then.
func CallbackFrom(upd tele.Update) (router.Callback, bool) {
	cb := upd.Callback
	if cb == nil || cb.Sender == nil {
		return router.Callback{}, false
	}
	out := router.Callback{
		ID:     cb.ID,
		UserID: cb.Sender.ID,
		Data:   cb.Data,
	}
	if cb.Message != nil {
		out.MessageID = cb.Message.ID
		if cb.Message.Chat != nil {
			out.ChatID = cb.Message.Chat.ID
		}
	}
	if out.ChatID == 0 {
		out.ChatID = cb.Sender.ID
	}
	return out, true
}
