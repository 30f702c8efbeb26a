package logger

import (
	"log/slog"
	"strings"
)

// levelName buckets custom levels into the four names the log schema allows.
func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	}
	return "ERROR"
}

// outcomes a handler summary may report; anything else is dropped.
var outcomes = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"cancelled":    {},
	"rate_limited": {},
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := outcomes[outcome]
	return outcome, ok
}

// defaultKeyOrder puts correlation fields first, then the conversation and
// catalog fields, then error details.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"cb_token",
	"outcome",
	"duration_ms",
	"state",
	"from",
	"to",
	"action",
	"payload",
	"text",
	"messages",
	"kb",
	"count",
	"order_id",
	"total",
	"conversations",
	"products",
	"variants",
	"states",
	"source",
	"build",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempt",
	"attempts",
	"delay_ms",
}
