package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/kitbot/core/logger"
	"github.com/m3rciful/kitbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes the send helpers through d; nil makes them
// synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

// deliver runs call on the chat's dispatcher worker. Without a dispatcher, or
// when its queue refuses the job, call runs inline.
func deliver(c tele.Context, action, endpoint string, call func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return call()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, action, endpoint, call)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return call()
	}
	return err
}

// SendText sends plain text, without parse mode, to the current chat.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var what []interface{}
	if len(opts) > 0 && opts[0] != nil {
		what = append(what, opts[0])
	}
	return deliver(c, "send.text", "sendMessage", func() error {
		return c.Send(text, what...)
	})
}

// SendMarkup sends text with an inline keyboard.
func SendMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return SendText(c, text, &tele.SendOptions{ReplyMarkup: markup})
}

// EditOrSendMarkup replaces the message holding the pressed button. When
// there is no such message, or Telegram refuses the edit, the screen is sent
// as a new message. An unchanged screen counts as success.
func EditOrSendMarkup(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: markup}
	if cb := c.Callback(); cb == nil || cb.Message == nil {
		return SendText(c, text, opts)
	}
	return deliver(c, "edit.markup", "editMessageText", func() error {
		err := c.Edit(text, opts)
		if err == nil || notModified(err) {
			return nil
		}
		logger.Warn(BuildContext(c), "tg", "edit.fallback",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return c.Send(text, opts)
	})
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
