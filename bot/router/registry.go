package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/polbot/core/logger"
)

// CallbackFunc handles one button press. arg holds the suffix after a
// prefix key and is empty for exact keys.
type CallbackFunc func(ctx context.Context, p *press, arg string) error

type callbackEntry struct {
	handler   CallbackFunc
	adminOnly bool
}

// Registry maps callback data to handlers. Exact keys win over prefixes;
// among prefixes the longest match wins.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]callbackEntry
	prefixes map[string]callbackEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		exact:    make(map[string]callbackEntry),
		prefixes: make(map[string]callbackEntry),
	}
}

// Register binds an exact callback key.
func (r *Registry) Register(key string, h CallbackFunc, adminOnly bool) error {
	return r.add(r.exact, key, h, adminOnly)
}

// RegisterPrefix binds every callback whose data starts with prefix.
func (r *Registry) RegisterPrefix(prefix string, h CallbackFunc, adminOnly bool) error {
	return r.add(r.prefixes, prefix, h, adminOnly)
}

func (r *Registry) add(dst map[string]callbackEntry, key string, h CallbackFunc, adminOnly bool) error {
	if r == nil || key == "" || h == nil {
		logger.ROUTER.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.skip",
			slog.String("key", key),
			slog.Bool("handler_nil", h == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := dst[key]; exists {
		logger.ROUTER.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.duplicate",
			slog.String("key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	dst[key] = callbackEntry{handler: h, adminOnly: adminOnly}
	return nil
}

// lookup resolves data to a handler and returns the matched key and argument.
func (r *Registry) lookup(data string) (key, arg string, entry callbackEntry, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, found := r.exact[data]; found {
		return data, "", e, true
	}
	best := ""
	for p := range r.prefixes {
		if strings.HasPrefix(data, p) && len(p) > len(best) {
			best = p
		}
	}
	if best == "" {
		return "", "", callbackEntry{}, false
	}
	return best, strings.TrimPrefix(data, best), r.prefixes[best], true
}

// Keys returns sorted registered keys; prefixes carry a trailing '*'.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.exact)+len(r.prefixes))
	for k := range r.exact {
		names = append(names, k)
	}
	for k := range r.prefixes {
		names = append(names, k+"*")
	}
	sort.Strings(names)
	return names
}
