package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// defaultKeyOrder puts correlation and outcome keys first; keys not listed
// follow in alphabetical order.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "handler", "cb_key", "action", "outcome", "duration_ms",
	"org", "role", "guide_id", "file_id",
	"mode", "api_url", "public_url", "addr", "method", "path", "http_status",
	"driver", "db", "host", "port", "key",
	"err", "err_code", "cause",
}

var knownStatus = map[string]bool{
	"ok": true, "fail": true, "skip": true, "denied": true,
	"dropped": true, "cancelled": true, "rate_limited": true,
}

// outcomes outside this set are dropped from the line.
var knownOutcome = map[string]bool{
	"ok": true, "fail": true, "cancelled": true, "rate_limited": true,
}

// record holds the fields of one line.
type record map[string]any

func (r record) setDefault(key string, val any) {
	if _, ok := r[key]; !ok {
		r[key] = val
	}
}

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// normalize fixes enumerated values and removes empty fields.
func (r record) normalize() {
	if s := strings.ToLower(strings.TrimSpace(r.str("status"))); s != "" {
		r["status"] = s
	}
	if o, ok := r["outcome"]; ok {
		v := strings.ToLower(strings.TrimSpace(fmt.Sprint(o)))
		if knownOutcome[v] {
			r["outcome"] = v
		} else {
			delete(r, "outcome")
		}
	}
	for k, v := range r {
		switch val := v.(type) {
		case nil:
			delete(r, k)
		case string:
			if val == "" {
				delete(r, k)
			}
		}
	}
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// durationKey gives duration attributes an _ms suffix.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

// Took returns the time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds d to milliseconds; negative values become zero.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values and reports truncation.
func SummarizeStrings(values []string, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	if len(values) <= limit {
		return strings.Join(values, ", "), false
	}
	return strings.Join(values[:limit], ", "), true
}

// SanitizeLimit strips control characters other than tab and newline and
// cuts the result to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	out := make([]rune, 0, min(len(s), max))
	for _, r := range s {
		if r != '\n' && r != '\t' && (unicode.IsControl(r) || unicode.Is(unicode.Cf, r)) {
			continue
		}
		out = append(out, r)
		if len(out) == max {
			break
		}
	}
	return string(out)
}

// BuildRID formats the update correlation id as update:chat:user.
func BuildRID(updateID int, chatID, userID int64) string {
	return fmt.Sprintf("%d:%d:%d", updateID, chatID, userID)
}

// CompactRID rewrites an update:chat:user id as dot-joined base36 segments.
// Other ids are returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}
