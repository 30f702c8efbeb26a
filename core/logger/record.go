package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

const timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"

// userTextLimit caps values that come straight from Telegram users.
const userTextLimit = 128

// userTextKeys hold user-controlled input: button data and message text.
var userTextKeys = map[string]struct{}{
	"payload":  {},
	"text":     {},
	"cb_token": {},
	"username": {},
}

// record is the flattened set of fields rendered as one log line.
type record map[string]any

func newRecord(t time.Time, level slog.Level, withNano bool) *record {
	rec := make(record, 16)
	t = t.UTC()
	rec["ts"] = t.Truncate(time.Millisecond).Format(timeFormatMillis)
	rec["level"] = levelName(level)
	if withNano {
		rec["ts_unix_nano"] = t.UnixNano()
	}
	return &rec
}

func (r *record) set(key string, v slog.Value) {
	key, val, ok := normalizeValue(key, v)
	if !ok {
		return
	}
	if s, isStr := val.(string); isStr {
		if _, user := userTextKeys[key[strings.LastIndexByte(key, '.')+1:]]; user {
			val = SanitizeLimit(s, userTextLimit)
		}
	}
	(*r)[key] = val
}

func (r *record) setDefault(key string, val any) {
	if _, ok := (*r)[key]; !ok {
		(*r)[key] = val
	}
}

func (r *record) str(key string) string {
	v, ok := (*r)[key]
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	return fmt.Sprint(v)
}

func (r *record) fillFromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		r.setDefault("rid", rid)
	}
	if uid := UserIDFrom(ctx); uid != 0 {
		r.setDefault("user_id", uid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		r.setDefault("update_id", id)
	}
	if cid := ChatIDFrom(ctx); cid != 0 {
		r.setDefault("chat_id", cid)
	}
	if h := HandlerFrom(ctx); h != "" {
		r.setDefault("handler", h)
	}
}

// finalize fills the mandatory fields, compacts the rid and drops empty
// values and unknown outcomes.
func (r *record) finalize(msg string) {
	fields := *r
	if r.str("event") == "" {
		if msg == "" {
			msg = "unknown"
		}
		fields["event"] = msg
	}
	if r.str("component") == "" {
		fields["component"] = "app"
	}

	if rid := r.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if _, nano := fields["ts_unix_nano"]; nano {
				r.setDefault("rid_full", rid)
			}
			fields["rid"] = compact
		}
	}

	if s := r.str("status"); s != "" {
		fields["status"] = strings.ToLower(s)
	}
	if o := r.str("outcome"); o != "" {
		if norm, ok := normalizeOutcome(o); ok {
			fields["outcome"] = norm
		} else {
			delete(fields, "outcome")
		}
	}

	for k, v := range fields {
		if v == nil {
			delete(fields, k)
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			delete(fields, k)
		}
	}
}

func normalizeValue(key string, v slog.Value) (string, any, bool) {
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
		return key, nil, false
	case error:
		return key, x.Error(), true
	case string:
		return key, strings.TrimSpace(x), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// durationKey renames duration attributes so the unit is part of the key.
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
