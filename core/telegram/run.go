package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	coreconfig "github.com/m3rciful/polbot/core/config"
	"github.com/m3rciful/polbot/core/logger"
	tgsender "github.com/m3rciful/polbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const shutdownTimeout = 5 * time.Second

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config *coreconfig.Config

	DispatcherOptions tgsender.Options

	Middlewares []Middleware
	// Routes is called once the bot and dispatcher exist.
	Routes func(rt Runtime) []Route

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to route builders and lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
}

// RunTelegram builds the bot, serves the HTTP surface and receives updates
// until ctx is done. In webhook mode updates arrive on the HTTP server; in
// longpoll mode the server only carries the liveness endpoints.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config
	webhookMode := cfg.Telegram.RunMode == coreconfig.RunModeWebhook

	buildStart := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		URL:         cfg.Telegram.APIURL,
		Token:       cfg.Telegram.Token,
		Poller:      BuildPoller(cfg.Telegram.RunMode, cfg.Telegram.LongPollTimeoutSeconds),
		Client:      BuildHTTPClient(LongPollTimeout(cfg.Telegram.LongPollTimeoutSeconds)),
		Synchronous: true,
		OnError:     logHandlerError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	dispatcher := tgsender.NewDispatcher(opts.DispatcherOptions)
	rt := Runtime{Bot: bot, Dispatcher: dispatcher}
	defer dispatcher.Close()

	for _, mw := range opts.Middlewares {
		if mw.Use == nil {
			continue
		}
		bot.Use(mw.Use)
	}
	if opts.Routes != nil {
		for _, route := range opts.Routes(rt) {
			if route.Endpoint == nil || route.Handler == nil {
				continue
			}
			bot.Handle(route.Endpoint, route.Handler)
			logger.TWire.Debug("route registered",
				slog.String("event", "route.register"),
				slog.String("endpoint", fmt.Sprint(route.Endpoint)),
			)
		}
	}

	mode := coreconfig.RunModeLongpoll
	if webhookMode {
		mode = coreconfig.RunModeWebhook
	}
	logger.TG.Info("bot ready",
		slog.String("event", "mode"),
		slog.String("mode", mode),
		slog.String("api_url", cfg.Telegram.APIURL),
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
	)

	if err := prepareUpdates(bot, cfg); err != nil {
		return err
	}

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Webhook.Port > 0 {
		server := &http.Server{
			Addr:              net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Handler:           NewHTTPHandler(serverOptions(cfg, bot)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.HTTP.Info("http server listening",
				slog.String("event", "http.listen"),
				slog.String("addr", server.Addr),
				slog.String("path", cfg.Webhook.Path),
			)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if !webhookMode {
		done := make(chan struct{})
		g.Go(func() error {
			defer close(done)
			bot.Start()
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
				bot.Stop()
			case <-done:
			}
			return nil
		})
	}

	runErr := g.Wait()

	if opts.OnStop != nil {
		if err := opts.OnStop(context.Background(), rt); err != nil && runErr == nil {
			runErr = err
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func serverOptions(cfg *coreconfig.Config, bot *tele.Bot) ServerOptions {
	if cfg.Telegram.RunMode != coreconfig.RunModeWebhook {
		return ServerOptions{}
	}
	return ServerOptions{
		WebhookPath: cfg.Webhook.Path,
		SecretToken: cfg.Webhook.SecretToken,
		Processor:   bot,
	}
}

// prepareUpdates registers the webhook in webhook mode and removes any
// webhook in longpoll mode, since the API refuses getUpdates while one is set.
func prepareUpdates(bot *tele.Bot, cfg *coreconfig.Config) error {
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		if cfg.Webhook.SkipRegister {
			logger.TG.Info("webhook registration skipped", slog.String("event", "set_webhook"))
			return nil
		}
		hook := &tele.Webhook{
			Endpoint:    &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
			SecretToken: cfg.Webhook.SecretToken,
		}
		if err := bot.SetWebhook(hook); err != nil {
			return fmt.Errorf("telegram: set webhook: %w", err)
		}
		logger.TG.Info("webhook registered",
			slog.String("event", "set_webhook"),
			slog.String("public_url", cfg.Webhook.URL),
		)
		return nil
	}

	if err := bot.RemoveWebhook(false); err != nil {
		logger.TG.Warn("failed to delete webhook",
			slog.String("event", "delete_webhook"),
			slog.String("err", err.Error()),
		)
	}
	return nil
}

func logHandlerError(err error, c tele.Context) {
	attrs := []slog.Attr{
		slog.String("event", "tg.handler_error"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	}
	if c != nil {
		attrs = append(attrs, slog.Int("update_id", c.Update().ID))
	}
	logger.TG.LogAttrs(context.Background(), slog.LevelWarn, "handler error", attrs...)
}
