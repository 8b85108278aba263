// Package router turns inbound messages and button presses into replies.
// It is independent of the messenger transport; replies go through a
// Notifier.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/polbot/bot/domain"
	"github.com/m3rciful/polbot/bot/service"
	"github.com/m3rciful/polbot/core/logger"
)

// Options wires the router to its collaborators.
type Options struct {
	OwnerID      int64
	Activation   *service.Activation
	Content      *service.Content
	Conversation *service.Conversation
	Notifier     Notifier
}

// Router classifies updates and dispatches them to handlers.
type Router struct {
	ownerID      int64
	activation   *service.Activation
	content      *service.Content
	conversation *service.Conversation
	notifier     Notifier
	callbacks    *Registry
}

// New builds a router with every callback registered.
func New(opts Options) *Router {
	r := &Router{
		ownerID:      opts.OwnerID,
		activation:   opts.Activation,
		content:      opts.Content,
		conversation: opts.Conversation,
		notifier:     opts.Notifier,
		callbacks:    NewRegistry(),
	}
	r.registerCallbacks()
	return r
}

// IsOwner reports whether userID is the configured owner. A zero owner id
// matches nobody.
func (r *Router) IsOwner(userID int64) bool {
	return r.ownerID != 0 && userID == r.ownerID
}

// showAdmin decides admin panel visibility in the main menu. Only the owner
// may act on it.
func (r *Router) showAdmin(userID int64) bool {
	if r.IsOwner(userID) {
		return true
	}
	u, ok := r.content.User(userID)
	return ok && u.Role == domain.RoleAdmin
}

// HandleMessage routes a text message and returns the handler name that
// served it. A pending conversation step always consumes the message first.
func (r *Router) HandleMessage(ctx context.Context, msg Message) (string, error) {
	if step, ok := r.conversation.Pending(msg.UserID); ok {
		if r.IsOwner(msg.UserID) {
			return "conversation", r.consume(ctx, msg)
		}
		if _, err := r.conversation.Cancel(ctx, msg.UserID); err != nil {
			return "conversation", err
		}
		logger.Warn(ctx, "router", "state.drop_stale",
			slog.Int64("user_id", msg.UserID),
			slog.String("action", string(step.Action())),
		)
	}

	if code, ok := ParseStartCode(msg.Text); ok {
		return "start", r.redeem(ctx, msg, code, true)
	}
	if code := strings.TrimSpace(msg.Text); code != "" && r.activation.IsCode(code) {
		return "code", r.redeem(ctx, msg, code, false)
	}
	return "greeting", r.greet(ctx, msg)
}

// HandleCallback routes a button press and returns the handler name. Every
// press is acknowledged exactly once. Unknown keys and admin keys pressed by
// anyone but the owner get the same generic acknowledgment.
func (r *Router) HandleCallback(ctx context.Context, cb Callback) (string, error) {
	p := &press{Callback: cb, notifier: r.notifier}
	defer p.ack(ctx, "")

	key, arg, entry, ok := r.callbacks.lookup(cb.Data)
	if !ok {
		p.ack(ctx, textUnknownAction)
		return "callback.unknown", nil
	}
	name := "callback." + strings.TrimSuffix(key, "_")
	if entry.adminOnly && !r.IsOwner(cb.UserID) {
		logger.Info(ctx, "router", "callback.denied",
			slog.Int64("user_id", cb.UserID),
			slog.String("cb_key", key),
		)
		p.ack(ctx, textUnknownAction)
		return name, nil
	}
	return name, entry.handler(ctx, p, arg)
}

// ParseStartCode extracts the code from "/start CODE" or "/start=CODE".
func ParseStartCode(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "/start") {
		return "", false
	}
	if parts := strings.Fields(t); len(parts) > 1 {
		return parts[1], true
	}
	if rest, ok := strings.CutPrefix(t, "/start="); ok && rest != "" {
		return rest, true
	}
	return "", false
}

// redeem replies with the main menu; only the owner gets the admin button
// there, whatever role the code just granted.
func (r *Router) redeem(ctx context.Context, msg Message, code string, viaStart bool) error {
	user, err := r.activation.Redeem(ctx, msg.UserID, msg.DisplayName(), code)
	if errors.Is(err, domain.ErrInvalidCode) {
		text := textInvalidCode
		if viaStart {
			text += "\n" + textInvalidCodeHint
		}
		r.send(ctx, msg.ChatID, text, mainMenu(r.IsOwner(msg.UserID)))
		return nil
	}
	if err != nil {
		r.send(ctx, msg.ChatID, textSomethingWrong, nil)
		return err
	}
	text := fmt.Sprintf(textActivated, user.Organization, user.Role)
	r.send(ctx, msg.ChatID, text, mainMenu(r.IsOwner(msg.UserID)))
	return nil
}

func (r *Router) greet(ctx context.Context, msg Message) error {
	text := textGreetingNoName
	if name := strings.TrimSpace(msg.DisplayName()); name != "" {
		text = fmt.Sprintf(textGreeting, name)
	}
	r.send(ctx, msg.ChatID, text, mainMenu(r.showAdmin(msg.UserID)))
	return nil
}

func (r *Router) send(ctx context.Context, chatID int64, text string, kb Keyboard) {
	if err := r.notifier.SendMessage(ctx, chatID, text, kb); err != nil {
		logNotifyFailure(ctx, "send_message", err)
	}
}

func logNotifyFailure(ctx context.Context, action string, err error) {
	logger.Warn(ctx, "router", "notify.fail",
		slog.String("action", action),
		slog.String("err", err.Error()),
	)
}

// press carries one callback through its handler and guarantees a single
// acknowledgment that precedes any visible effect.
type press struct {
	Callback
	notifier Notifier
	once     sync.Once
}

func (p *press) ack(ctx context.Context, text string) {
	p.once.Do(func() {
		if err := p.notifier.AnswerCallback(ctx, p.ID, text); err != nil {
			logNotifyFailure(ctx, "answer_callback", err)
		}
	})
}

func (p *press) edit(ctx context.Context, text string, kb Keyboard) {
	p.ack(ctx, "")
	if err := p.notifier.EditMessageText(ctx, p.ChatID, p.MessageID, text, kb); err != nil {
		logNotifyFailure(ctx, "edit_message_text", err)
	}
}

func (p *press) send(ctx context.Context, text string, kb Keyboard) {
	p.ack(ctx, "")
	if err := p.notifier.SendMessage(ctx, p.ChatID, text, kb); err != nil {
		logNotifyFailure(ctx, "send_message", err)
	}
}
