package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/kitbot/core/logger"
	tghelpers "github.com/m3rciful/kitbot/core/telegram/helpers"
	"github.com/m3rciful/kitbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// run calls h under the handler name and logs one handler.handled line.
func run(c tele.Context, name string, h tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, name)
	err := h(c)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	summarize(c, name, status, start, err, extras)
	return err
}

// skip logs that an update reached a route with nothing to run.
func skip(c tele.Context, name string, extras ...slog.Attr) {
	summarize(c, name, "skip", time.Now(), nil, extras)
}

func summarize(c tele.Context, name, status string, start time.Time, err error, extras []slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	n := middleware.CountersFrom(c)

	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", n.Messages),
		slog.Int("edits", n.Edits),
		slog.Bool("kb", n.Keyboard),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component("tg"), level, "handler.handled", attrs...)
}

func handlerName(command string) string {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(command), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errorCode names an error by its Telegram status code when it has one,
// otherwise by its concrete type.
func errorCode(err error) string {
	var tgErr *tele.Error
	if errors.As(err, &tgErr) && tgErr.Code != 0 {
		return "TG_" + strconv.Itoa(tgErr.Code)
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "UNKNOWN_ERROR"
	}
	return strings.ToUpper(t.Name())
}

// callbackToken returns the button payload. Buttons built with a unique
// prefix carry "\f<unique>|<data>"; plain buttons carry data as is.
func callbackToken(cb *tele.Callback) string {
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Data
	}
	return strings.TrimPrefix(cb.Data, "\f")
}
