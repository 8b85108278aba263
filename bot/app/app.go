// Package app wires configuration, storage, services and the bot runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/polbot/bot/config"
	"github.com/m3rciful/polbot/bot/router"
	"github.com/m3rciful/polbot/bot/service"
	"github.com/m3rciful/polbot/bot/store"
	bottg "github.com/m3rciful/polbot/bot/telegram"
	"github.com/m3rciful/polbot/core/bootstrap"
	corecmd "github.com/m3rciful/polbot/core/cmd"
	"github.com/m3rciful/polbot/core/logger"
	"github.com/m3rciful/polbot/core/storage"
	coretelegram "github.com/m3rciful/polbot/core/telegram"
	tgsender "github.com/m3rciful/polbot/core/telegram/sender"
)

// App holds the long-lived components of a running bot.
type App struct {
	cfg          *config.Config
	backend      storage.Backend
	store        *store.Store
	activation   *service.Activation
	content      *service.Content
	conversation *service.Conversation
}

// LoadConfig adapts config.Load to the shared entrypoint.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap is the shared entrypoint hook: it brings up logging and storage
// and builds the app.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.App, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:  cfg.CoreConfig(),
		Storage: cfg.Storage,
	})
	if err != nil {
		return nil, err
	}
	return New(context.Background(), cfg, res.Backend), nil
}

// New loads the document from backend and builds the services on top of it.
func New(ctx context.Context, cfg *config.Config, backend storage.Backend) *App {
	st := store.New(backend)
	st.Load(ctx)
	return &App{
		cfg:          cfg,
		backend:      backend,
		store:        st,
		activation:   service.NewActivation(st),
		content:      service.NewContent(st),
		conversation: service.NewConversation(st, cfg.Content.DefaultFileOrg),
	}
}

// Router builds the update router replying through n.
func (a *App) Router(n router.Notifier) *router.Router {
	return router.New(router.Options{
		OwnerID:      a.cfg.Telegram.OwnerID,
		Activation:   a.activation,
		Content:      a.content,
		Conversation: a.conversation,
		Notifier:     n,
	})
}

// TelegramRunOptions describes the bot runtime for the shared entrypoint.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	return coretelegram.RunOptions{
		Config: core,
		DispatcherOptions: tgsender.Options{
			QueueSize: core.Sender.QueueSize,
			Workers:   core.Sender.Workers,
		},
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes: func(rt coretelegram.Runtime) []coretelegram.Route {
			return bottg.Routes(a.Router(bottg.NewNotifier(rt.Bot, rt.Dispatcher)))
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.Close(ctx)
		},
	}, nil
}

// Close releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	if err := a.backend.Close(); err != nil {
		logger.Error(ctx, "app", "storage.close",
			slog.String("driver", a.backend.Name()),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("app: close storage: %w", err)
	}
	return nil
}
