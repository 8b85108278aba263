// Package logger is the structured slog setup shared by every layer: one
// line per event with component, event and correlation fields.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/polbot/core/buildinfo"
	coreconfig "github.com/m3rciful/polbot/core/config"
)

var (
	initOnce     sync.Once
	shutdownOnce sync.Once

	out     *asyncWriter
	closers []io.Closer

	level   slog.LevelVar
	sampler ratioSampler
	trace   bool

	// L is the base logger. Until InitLogger runs it is slog.Default.
	L *slog.Logger

	// TG logs bot transport events.
	TG *slog.Logger
	// TWire logs route wiring.
	TWire *slog.Logger
	// HTTP logs the webhook and liveness surface.
	HTTP *slog.Logger
	// STORAGE logs document backend connections.
	STORAGE *slog.Logger
	// MIG logs postgres migrations.
	MIG *slog.Logger
	// STORE logs document load and persist.
	STORE *slog.Logger
	// SVCActivation logs code redemption.
	SVCActivation *slog.Logger
	// SVCContent logs guide and file queries.
	SVCContent *slog.Logger
	// SVCConversation logs admin input flows.
	SVCConversation *slog.Logger
	// ROUTER logs update dispatch decisions.
	ROUTER *slog.Logger
)

var components = []struct {
	dst  **slog.Logger
	name string
}{
	{&TG, "tg"},
	{&TWire, "tg.wire"},
	{&HTTP, "http"},
	{&STORAGE, "storage"},
	{&MIG, "storage.migrate"},
	{&STORE, "store"},
	{&SVCActivation, "service.activation"},
	{&SVCContent, "service.content"},
	{&SVCConversation, "service.conversation"},
	{&ROUTER, "router"},
}

func init() {
	sampler.set(1, 50)
	setBase(slog.Default())
}

func setBase(l *slog.Logger) {
	L = l
	for _, c := range components {
		*c.dst = l.With("component", c.name)
	}
}

// InitLogger installs the structured handler as the slog default. Only the
// first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		var lc coreconfig.LoggingConfig
		if cfg != nil {
			lc = cfg.Logging
		}
		level.Set(parseLevel(lc.Level))
		sampler.set(parseSampleRatio(lc.DebugSample))
		trace = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		sinks := []io.Writer{os.Stdout}
		f, ferr := openLogFile(lc.Dir, lc.File)
		if ferr != nil {
			err = ferr
			return
		}
		if f != nil {
			sinks = append(sinks, f)
			closers = append(closers, f)
		}
		out = newAsyncWriter(sinks, 1024)

		l := slog.New(newStructuredHandler(&level, out, formatFor(lc), keyOrder(lc.KeysOrder)))
		slog.SetDefault(l)
		setBase(l)

		L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
			slog.String("component", "app"),
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profile(lc)),
		)
	})
	return err
}

// Shutdown flushes queued lines and closes the log file.
func Shutdown() error {
	var errs []error
	shutdownOnce.Do(func() {
		if out != nil {
			errs = append(errs, out.Flush(), out.Close())
		}
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

func openLogFile(dir, name string) (*os.File, error) {
	dir, name = strings.TrimSpace(dir), strings.TrimSpace(name)
	if dir == "" || name == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// formatFor picks kv for "kv"/"text" or a debug/dev profile, json otherwise.
func formatFor(lc coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch profile(lc) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func keyOrder(spec string) []string {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "default" {
		return defaultKeyOrder
	}
	var order []string
	for _, k := range strings.Split(spec, ",") {
		if k = strings.TrimSpace(k); k != "" {
			order = append(order, k)
		}
	}
	if len(order) == 0 {
		return defaultKeyOrder
	}
	return order
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		return p
	}
	return "prod"
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// LogEvent writes one event line. A nil logg falls back to the logger in ctx.
func LogEvent(ctx context.Context, logg *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, lvl, "", attrs...)
}

// Component returns the base logger scoped to name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Event logs for an ad-hoc component without a package-level logger.
func Event(ctx context.Context, component string, lvl slog.Level, event string, attrs ...slog.Attr) {
	LogEvent(ctx, Component(component), lvl, event, attrs...)
}

// Debug logs a debug event for component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info event for component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warning event for component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error event for component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// written. TRACE or LOG_TRACE lets every line through.
func ShouldSampleDebug() bool {
	return trace || sampler.allow()
}
