// Package router binds update endpoints to dispatch functions and writes one
// summary log line per handled update.
package router

import (
	"context"
	"time"

	tg "github.com/m3rciful/polbot/core/telegram"
	tghelpers "github.com/m3rciful/polbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Dispatch handles one update and names the handler that served it.
type Dispatch func(ctx context.Context, c tele.Context) (handler string, err error)

// TextRoute serves plain text messages, including ones starting with a
// slash, since no command endpoints are registered.
func TextRoute(fn Dispatch) tg.Route {
	return tg.Route{
		Endpoint: tele.OnText,
		Handler: func(c tele.Context) error {
			return serve(c, "text", fn)
		},
	}
}

// CallbackRoute serves inline button presses carrying raw callback data.
func CallbackRoute(fn Dispatch) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			return serve(c, "callback", fn)
		},
	}
}

func serve(c tele.Context, fallbackName string, fn Dispatch) error {
	start := time.Now()
	ctx := tghelpers.BuildContext(c)
	name, err := fn(ctx, c)
	if name == "" {
		name = fallbackName
	}
	logHandlerSummary(c, normalizeHandlerName(name), start, err)
	return err
}
