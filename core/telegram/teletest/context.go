// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound call made through a Context.
type Sent struct {
	Method string
	Text   string
	Markup *tele.ReplyMarkup
}

// Context implements the parts of tele.Context used by bot handlers.
// Calling any other method panics.
type Context struct {
	tele.Context

	upd tele.Update

	// EditErr is returned by Edit when set.
	EditErr error

	mu        sync.Mutex
	store     map[string]any
	sent      []Sent
	responses []*tele.CallbackResponse
}

// NewMessage returns a context for a text message from userID.
func NewMessage(userID int64, text string) *Context {
	user := &tele.User{ID: userID}
	return &Context{
		upd: tele.Update{
			ID: 1,
			Message: &tele.Message{
				ID:     10,
				Sender: user,
				Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
				Text:   text,
			},
		},
		store: map[string]any{},
	}
}

// NewCallback returns a context for a button press carrying data from userID.
func NewCallback(userID int64, data string) *Context {
	user := &tele.User{ID: userID}
	chat := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	return &Context{
		upd: tele.Update{
			ID: 2,
			Callback: &tele.Callback{
				ID:      "cb",
				Sender:  user,
				Data:    data,
				Message: &tele.Message{ID: 11, Chat: chat},
			},
		},
		store: map[string]any{},
	}
}

func (c *Context) Update() tele.Update { return c.upd }

func (c *Context) Message() *tele.Message { return c.upd.Message }

func (c *Context) Callback() *tele.Callback { return c.upd.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.upd.Callback != nil:
		return c.upd.Callback.Sender
	case c.upd.Message != nil:
		return c.upd.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	switch {
	case c.upd.Callback != nil && c.upd.Callback.Message != nil:
		return c.upd.Callback.Message.Chat
	case c.upd.Message != nil:
		return c.upd.Message.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if c.upd.Message != nil {
		return c.upd.Message.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.upd.Callback != nil {
		return c.upd.Callback.Data
	}
	return ""
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

func (c *Context) Send(what any, opts ...any) error {
	c.record("send", what, opts)
	return nil
}

func (c *Context) Reply(what any, opts ...any) error {
	c.record("reply", what, opts)
	return nil
}

func (c *Context) Edit(what any, opts ...any) error {
	if c.EditErr != nil {
		return c.EditErr
	}
	c.record("edit", what, opts)
	return nil
}

func (c *Context) EditOrSend(what any, opts ...any) error {
	if c.upd.Callback != nil && c.EditErr == nil {
		return c.Edit(what, opts...)
	}
	return c.Send(what, opts...)
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var r *tele.CallbackResponse
	if len(resp) > 0 {
		r = resp[0]
	}
	c.responses = append(c.responses, r)
	c.sent = append(c.sent, Sent{Method: "respond"})
	return nil
}

// Sent returns the outbound calls in order.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Last returns the most recent outbound call that carried text.
func (c *Context) Last() (Sent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.sent) - 1; i >= 0; i-- {
		if c.sent[i].Method != "respond" {
			return c.sent[i], true
		}
	}
	return Sent{}, false
}

// Responses returns the callback acknowledgements made so far.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}

func (c *Context) record(method string, what any, opts []any) {
	s := Sent{Method: method}
	if text, ok := what.(string); ok {
		s.Text = text
	}
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				s.Markup = v.ReplyMarkup
			}
		case *tele.ReplyMarkup:
			s.Markup = v
		}
	}
	c.mu.Lock()
	c.sent = append(c.sent, s)
	c.mu.Unlock()
}
