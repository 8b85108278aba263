// Package keyboard builds inline keyboards with raw callback data.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is a callback button when Data is set or a link button when URL
// is set. URL wins when both are present.
type InlineBtn struct {
	Text string
	Data string
	URL  string
}

// Inline converts one button. Callback data is passed through verbatim so it
// arrives unchanged in the callback query.
func Inline(btn InlineBtn) tele.InlineButton {
	if btn.URL != "" {
		return tele.InlineButton{Text: btn.Text, URL: btn.URL}
	}
	return tele.InlineButton{Text: btn.Text, Data: btn.Data}
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn. It
// returns nil when there is nothing to show.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = Inline(btn)
		}
		inline = append(inline, r)
	}
	if len(inline) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// InlineButtons places each button on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}
