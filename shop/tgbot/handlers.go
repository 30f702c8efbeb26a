// Package tgbot binds the conversation machine to Telegram updates.
package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/kitbot/core/buildinfo"
	"github.com/m3rciful/kitbot/core/logger"
	tg "github.com/m3rciful/kitbot/core/telegram"
	tghelpers "github.com/m3rciful/kitbot/core/telegram/helpers"
	"github.com/m3rciful/kitbot/shop/conversation"
	"github.com/m3rciful/kitbot/shop/selection"

	tele "gopkg.in/telebot.v4"
)

// Handlers serves the menu conversation over Telegram.
type Handlers struct {
	machine *conversation.Machine
	store   *selection.Store
}

// NewHandlers returns handlers driving machine. store is only read for /stats.
func NewHandlers(machine *conversation.Machine, store *selection.Store) *Handlers {
	return &Handlers{machine: machine, store: store}
}

// Register adds the bot commands, the button handler and the text fallback to reg.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", tg.Command{
		Handler:     h.Start,
		Description: "Open the main menu",
		Aliases:     []string{"menu"},
	})
	reg.RegisterCommand("/selection", tg.Command{
		Handler:     h.Selection,
		Description: "Show current selections",
	})
	reg.RegisterCommand("/undo", tg.Command{
		Handler:     h.Undo,
		Description: "Remove the last selection",
	})
	reg.RegisterCommand("/clear", tg.Command{
		Handler:     h.Clear,
		Description: "Remove all selections",
	})
	reg.RegisterCommand("/stats", tg.Command{
		Handler:     h.Stats,
		Description: "Bot statistics",
		AdminOnly:   true,
	})
	reg.SetCallback(h.Press)
	reg.SetTextFallback(h.Start)
}

// Start opens the main menu in a new message.
func (h *Handlers) Start(c tele.Context) error {
	return h.command(c, h.machine.Start)
}

// Selection shows the selection summary above the main menu.
func (h *Handlers) Selection(c tele.Context) error {
	return h.command(c, h.machine.ShowSelections)
}

// Undo removes the last selected variant.
func (h *Handlers) Undo(c tele.Context) error {
	return h.command(c, h.machine.Undo)
}

// Clear removes every selected variant.
func (h *Handlers) Clear(c tele.Context) error {
	return h.command(c, h.machine.Clear)
}

// Press applies a button press and edits the pressed message with the next
// screen. The press was already acknowledged by the callback route.
func (h *Handlers) Press(c tele.Context) error {
	user := c.Sender()
	cb := c.Callback()
	if user == nil || cb == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	token := strings.TrimPrefix(cb.Data, "\f")

	reply, err := h.machine.Press(ctx, user.ID, token)
	if errors.Is(err, conversation.ErrBusy) {
		return nil
	}
	if err != nil {
		return err
	}
	if reply.Fallback {
		logger.Debug(ctx, "conversation", "press.fallback",
			slog.String("payload", logger.SanitizeLimit(token, 64)),
		)
	}
	return tghelpers.EditOrSendMarkup(c, reply.Text, Markup(reply.Menu))
}

// Stats reports conversation and catalog counters to the admin.
func (h *Handlers) Stats(c tele.Context) error {
	reg := h.machine.Registry()
	cat := reg.Catalog()
	users := 0
	if h.store != nil {
		users = h.store.Users()
	}
	text := fmt.Sprintf("Build: %s\nConversations: %d\nSelections: %d\nProducts: %d\nVariants: %d\nMenu entries: %d",
		buildinfo.String(),
		h.machine.Conversations(),
		users,
		cat.Len(),
		cat.VariantCount(),
		len(reg.Entries()),
	)
	return tghelpers.SendText(c, text)
}

func (h *Handlers) command(c tele.Context, run func(ctx context.Context, userID int64) (conversation.Reply, error)) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	reply, err := run(tghelpers.BuildContext(c), user.ID)
	if err != nil {
		return err
	}
	return tghelpers.SendMarkup(c, reply.Text, Markup(reply.Menu))
}
