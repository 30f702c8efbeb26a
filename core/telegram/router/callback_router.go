package router

import (
	"log/slog"

	"github.com/m3rciful/kitbot/core/logger"
	tg "github.com/m3rciful/kitbot/core/telegram"
	"github.com/m3rciful/kitbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute acknowledges every button press before handing it to the
// registry callback handler, so the client spinner stops even when the
// handler fails.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		extras := []slog.Attr{slog.String("cb_token", callbackToken(cb))}
		if err := c.Respond(); err != nil {
			extras = append(extras, slog.String("respond_err", logger.SanitizeLimit(err.Error(), 128)))
		}

		h := reg.Callback()
		if h == nil {
			skip(c, "callback", extras...)
			return nil
		}
		return run(c, "callback", h, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
