package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// lineWriter receives finished lines.
type lineWriter interface {
	Write(line []byte) error
}

// structuredHandler renders records as single json or key=value lines with
// a stable key order and context correlation fields.
type structuredHandler struct {
	level  slog.Leveler
	out    lineWriter
	format logFormat
	order  []string

	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(level slog.Leveler, out lineWriter, format logFormat, order []string) *structuredHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	if len(order) == 0 {
		order = defaultKeyOrder
	}
	return &structuredHandler{level: level, out: out, format: format, order: order}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.out == nil {
		return errors.New("logger: no output")
	}

	rec := make(record, 16)
	ts := r.Time.UTC()
	rec["ts"] = ts.Truncate(time.Millisecond).Format(timeLayout)
	rec["level"] = levelName(r.Level)
	if h.format == formatJSON {
		rec["ts_unix_nano"] = ts.UnixNano()
	}
	for _, a := range h.attrs {
		addAttr(rec, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(rec, h.prefix, a)
		return true
	})

	m := metaFrom(ctx)
	if m.rid != "" {
		rec.setDefault("rid", m.rid)
	}
	if m.updateID != 0 {
		rec.setDefault("update_id", m.updateID)
	}
	if m.userID != 0 {
		rec.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		rec.setDefault("chat_id", m.chatID)
	}
	if m.handler != "" {
		rec.setDefault("handler", m.handler)
	}

	if rid := rec.str("rid"); rid != "" {
		if short := CompactRID(rid); short != rid {
			if h.format == formatJSON {
				rec.setDefault("rid_full", rid)
			}
			rec["rid"] = short
		}
	}
	if rec.str("event") == "" {
		rec["event"] = r.Message
		if r.Message == "" {
			rec["event"] = "unknown"
		}
	}
	if rec.str("component") == "" {
		rec["component"] = "app"
	}
	rec.normalize()

	var (
		line []byte
		err  error
	)
	if h.format == formatJSON {
		line, err = renderJSON(rec, h.order)
	} else {
		line = renderKV(rec, h.order)
	}
	if err != nil {
		return err
	}
	return h.out.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = qualify(h.prefix, a.Key)
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = qualify(h.prefix, name)
	return &clone
}

func qualify(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// addAttr flattens groups into dotted keys and converts the value.
func addAttr(rec record, prefix string, a slog.Attr) {
	key := qualify(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			addAttr(rec, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := convert(key, v); ok {
		rec[k] = val
	}
}

func convert(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return "", nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// orderedKeys lists keys from order first, then the rest sorted.
func orderedKeys(rec record, order []string) []string {
	keys := make([]string, 0, len(rec))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		listed[k] = true
		if _, ok := rec[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range rec {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func renderJSON(rec record, order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range orderedKeys(rec, order) {
		val, err := json.Marshal(rec[k])
		if err != nil {
			return nil, fmt.Errorf("logger: field %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func renderKV(rec record, order []string) []byte {
	var b bytes.Buffer
	for i, k := range orderedKeys(rec, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(rec[k]))
	}
	return b.Bytes()
}

func kvValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
