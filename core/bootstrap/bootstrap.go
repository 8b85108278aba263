// Package bootstrap brings up the infrastructure every bot needs before it
// starts receiving updates.
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/polbot/core/config"
	"github.com/m3rciful/polbot/core/logger"
	"github.com/m3rciful/polbot/core/storage"
)

// Options control the bootstrap pipeline. Nil hooks fall back to the real
// logger and storage constructors.
type Options struct {
	Config  *coreconfig.Config
	Storage storage.Config

	LoggerInit func(*coreconfig.Config) error
	Open       func(storage.Config) (storage.Backend, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Backend storage.Backend
}

// Run initializes the logger and opens the document backend. Postgres
// migrations run as part of opening that backend.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	open := opts.Open
	if open == nil {
		open = storage.Open
	}
	start := time.Now()
	backend, err := open(opts.Storage)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: storage initialization failed: %w", err)
	}
	logger.STORAGE.Info("storage ready",
		slog.String("event", "storage.open"),
		slog.String("driver", backend.Name()),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)

	return &Result{Backend: backend}, nil
}
