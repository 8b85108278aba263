// Package telegram adapts telebot updates and bot API calls to the router.
package telegram

import (
	"context"
	"strconv"

	"github.com/m3rciful/polbot/bot/router"
	"github.com/m3rciful/polbot/core/telegram/keyboard"
	tgsender "github.com/m3rciful/polbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// API is the subset of *tele.Bot the notifier calls.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Notifier sends replies through the bot API. With a dispatcher the calls
// are queued and the returned error only reports queueing problems.
type Notifier struct {
	api        API
	dispatcher *tgsender.Dispatcher
}

// NewNotifier builds a notifier. A nil dispatcher makes calls synchronous.
func NewNotifier(api API, d *tgsender.Dispatcher) *Notifier {
	return &Notifier{api: api, dispatcher: d}
}

// SendMessage posts a new message.
func (n *Notifier) SendMessage(ctx context.Context, chatID int64, text string, kb router.Keyboard) error {
	markup := Markup(kb)
	return n.do(ctx, "send_message", "sendMessage", func() error {
		var err error
		if markup != nil {
			_, err = n.api.Send(tele.ChatID(chatID), text, markup)
		} else {
			_, err = n.api.Send(tele.ChatID(chatID), text)
		}
		return err
	})
}

// EditMessageText replaces the text and keyboard of an existing message.
func (n *Notifier) EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb router.Keyboard) error {
	markup := Markup(kb)
	msg := &tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID}
	return n.do(ctx, "edit_message_text", "editMessageText", func() error {
		var err error
		if markup != nil {
			_, err = n.api.Edit(msg, text, markup)
		} else {
			_, err = n.api.Edit(msg, text)
		}
		return err
	})
}

// AnswerCallback clears the loading state of a pressed button, optionally
// showing text.
func (n *Notifier) AnswerCallback(ctx context.Context, callbackID, text string) error {
	cb := &tele.Callback{ID: callbackID}
	return n.do(ctx, "answer_callback", "answerCallbackQuery", func() error {
		if text == "" {
			return n.api.Respond(cb)
		}
		return n.api.Respond(cb, &tele.CallbackResponse{Text: text})
	})
}

func (n *Notifier) do(ctx context.Context, action, endpoint string, run func() error) error {
	if n.dispatcher == nil {
		return run()
	}
	return n.dispatcher.Enqueue(ctx, action, endpoint, run)
}

// Markup converts a router keyboard to inline markup; nil when empty.
func Markup(kb router.Keyboard) *tele.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, r)
	}
	return keyboard.InlineButtonsRows(rows...)
}
