package tgbot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tg "github.com/m3rciful/kitbot/core/telegram"
	"github.com/m3rciful/kitbot/core/telegram/teletest"
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/conversation"
	"github.com/m3rciful/kitbot/shop/menu"
	"github.com/m3rciful/kitbot/shop/selection"
)

const (
	user    = int64(42)
	orderID = "9b2f6c1e-3c1a-4a5e-9a57-8f0d2b7c4e11"
)

func newHandlers(t *testing.T) (*Handlers, *selection.Store) {
	t.Helper()
	c := catalog.New()
	require.NoError(t, catalog.Build(c, []catalog.ProductSpec{
		{Name: "Foo", Variants: []catalog.VariantSpec{{Name: "V1", Price: 100}, {Name: "V2", Price: 250}}},
		{Name: "Bar", Variants: []catalog.VariantSpec{{Name: "B1", Price: 5}}},
	}))
	reg, err := conversation.BuildRegistry(context.Background(), c)
	require.NoError(t, err)

	store := selection.NewStore()
	m := conversation.NewMachine(reg, store, conversation.Options{
		Finalizer: OrderFinalizer{NewID: func() string { return orderID }},
	})
	return NewHandlers(m, store), store
}

func pressAs(t *testing.T, h *Handlers, data string) teletest.Sent {
	t.Helper()
	c := teletest.NewCallback(user, data)
	require.NoError(t, h.Press(c))
	last, ok := c.Last()
	require.True(t, ok)
	return last
}

func TestStartSendsMainMenu(t *testing.T) {
	h, _ := newHandlers(t)
	c := teletest.NewMessage(user, "/start")
	require.NoError(t, h.Start(c))

	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "send", last.Method)
	assert.Equal(t, menu.MainTitle, last.Text)
	require.NotNil(t, last.Markup)
	require.Len(t, last.Markup.InlineKeyboard, 4)
	assert.Equal(t, "Bar", last.Markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, menu.ActionConfirm, last.Markup.InlineKeyboard[3][0].Data)
}

func TestPressFlowEditsMessage(t *testing.T) {
	h, store := newHandlers(t)
	require.NoError(t, h.Start(teletest.NewMessage(user, "/start")))

	s := pressAs(t, h, "Foo")
	assert.Equal(t, "edit", s.Method)
	assert.Equal(t, "Foo", s.Text)

	s = pressAs(t, h, "Foo~V2")
	assert.Contains(t, s.Text, "Price: 2.50")
	assert.Equal(t, "Foo~V2", s.Markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, menu.LabelTake, s.Markup.InlineKeyboard[0][0].Text)

	s = pressAs(t, h, "Foo~V2")
	assert.Equal(t, "Added: Foo / V2\n\nMain menu", s.Text)
	items, err := store.List(user)
	require.NoError(t, err)
	require.Len(t, items, 1)

	s = pressAs(t, h, menu.ActionConfirm)
	assert.Contains(t, s.Text, "Order: "+orderID)
	assert.Contains(t, s.Text, "Total: 2.50")
	items, err = store.List(user)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPressWithoutStartFallsBack(t *testing.T) {
	h, _ := newHandlers(t)
	s := pressAs(t, h, "Foo~V1")
	assert.Equal(t, menu.MainTitle, s.Text)

	s = pressAs(t, h, "Foo")
	assert.Equal(t, "Foo", s.Text)
}

func TestPressEditFailureSends(t *testing.T) {
	h, _ := newHandlers(t)
	require.NoError(t, h.Start(teletest.NewMessage(user, "/start")))

	c := teletest.NewCallback(user, "Foo")
	c.EditErr = errors.New("telegram: message to edit not found (400)")
	require.NoError(t, h.Press(c))
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "send", last.Method)
	assert.Equal(t, "Foo", last.Text)
}

func TestSelectionCommands(t *testing.T) {
	h, _ := newHandlers(t)
	require.NoError(t, h.Start(teletest.NewMessage(user, "/start")))
	pressAs(t, h, "Foo")
	pressAs(t, h, "Foo~V1")
	pressAs(t, h, "Foo~V1")

	c := teletest.NewMessage(user, "/selection")
	require.NoError(t, h.Selection(c))
	last, _ := c.Last()
	assert.Contains(t, last.Text, "1. Foo / V1 - 1.00")

	c = teletest.NewMessage(user, "/undo")
	require.NoError(t, h.Undo(c))
	last, _ = c.Last()
	assert.Equal(t, "Removed: Foo / V1", last.Text)

	c = teletest.NewMessage(user, "/clear")
	require.NoError(t, h.Clear(c))
	last, _ = c.Last()
	assert.Equal(t, "Selections cleared", last.Text)
	assert.NotNil(t, last.Markup)
}

func TestStats(t *testing.T) {
	h, _ := newHandlers(t)
	require.NoError(t, h.Start(teletest.NewMessage(user, "/start")))

	c := teletest.NewMessage(user, "/stats")
	require.NoError(t, h.Stats(c))
	last, _ := c.Last()
	assert.Contains(t, last.Text, "Conversations: 1")
	assert.Contains(t, last.Text, "Products: 2")
	assert.Contains(t, last.Text, "Variants: 3")
}

func TestRegister(t *testing.T) {
	h, _ := newHandlers(t)
	reg := tg.NewRegistry()
	h.Register(reg)

	assert.Len(t, reg.Commands(), 5)
	visible := reg.ListCommands(true)
	for _, cmd := range visible {
		assert.NotEqual(t, "/stats", cmd.Text)
	}
	assert.NotNil(t, reg.TextFallback())

	c := teletest.NewCallback(user, "Foo")
	require.NoError(t, reg.Callback()(c))
	last, _ := c.Last()
	assert.Equal(t, menu.MainTitle, last.Text, "press before /start opens the main menu")
}

func TestMarkup(t *testing.T) {
	m := menu.Menu{
		{{Label: "V1", Action: "Foo~V1"}},
		{{Label: menu.LabelMainMenu, Action: menu.ActionMainMenu}},
	}
	markup := Markup(m)
	require.Len(t, markup.InlineKeyboard, 2)
	btn := markup.InlineKeyboard[0][0]
	assert.Equal(t, "V1", btn.Text)
	assert.Equal(t, "Foo~V1", btn.Data)
	assert.Empty(t, btn.Unique)
	assert.Empty(t, Markup(nil).InlineKeyboard)
}

func TestOrderFinalizerRejectsBadID(t *testing.T) {
	f := OrderFinalizer{NewID: func() string { return "not-a-uuid" }}
	_, err := f.Finalize(context.Background(), user, nil)
	assert.Error(t, err)

	text, err := OrderFinalizer{}.Finalize(context.Background(), user, nil)
	require.NoError(t, err)
	assert.Contains(t, text, "Items: 0")
}
