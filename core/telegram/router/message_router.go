package router

import (
	tg "github.com/m3rciful/kitbot/core/telegram"
	"github.com/m3rciful/kitbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls what happens to text that matches no command.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for free text. Text naming a registered
// command or alias runs that command; anything else goes to the registry
// text fallback, then to opts.UnknownText. Admin commands are never reachable
// as plain text.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return run(c, handlerName(key), cmd.Handler)
			}
			if fb := reg.TextFallback(); fb != nil {
				return run(c, "fallback", fb)
			}
		}
		if opts.UnknownText != nil {
			return run(c, "unknown_text", opts.UnknownText)
		}
		skip(c, "unknown_text")
		return nil
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
