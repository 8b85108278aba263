package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/polbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// LongPollTimeout returns the configured getUpdates timeout or the default.
func LongPollTimeout(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultLongPollTimeout
	}
	return time.Duration(seconds) * time.Second
}

// BuildPoller returns the long poller for longpoll mode and nil for webhook
// mode, where updates arrive through the HTTP server instead.
func BuildPoller(runMode string, longPollSeconds int) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(runMode), coreconfig.RunModeWebhook) {
		return nil
	}
	return &tele.LongPoller{
		Timeout:        LongPollTimeout(longPollSeconds),
		AllowedUpdates: []string{"message", "callback_query"},
	}
}
