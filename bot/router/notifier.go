package router

import "context"

// Message is an inbound text message reduced to the fields the bot reads.
type Message struct {
	ChatID    int64
	UserID    int64
	FirstName string
	LastName  string
	Text      string
}

// DisplayName joins first and last name the way registrations store it.
func (m Message) DisplayName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

// Callback is an inline button press.
type Callback struct {
	ID        string
	UserID    int64
	ChatID    int64
	MessageID int
	Data      string
}

// Button is either a callback button (Data) or a link button (URL).
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is an ordered list of button rows.
type Keyboard [][]Button

// Notifier delivers replies to the messenger. A nil keyboard sends none.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb Keyboard) error
	EditMessageText(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
