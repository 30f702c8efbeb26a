package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const countersKey = "reply_counters"

// Counters tally what a handler sent back for one update. Menu screens are
// usually edited in place, so edits are counted apart from new messages.
type Counters struct {
	Messages int
	Edits    int
	Keyboard bool
}

// countingContext wraps tele.Context and records successful replies.
type countingContext struct {
	tele.Context
	n *Counters
}

func (m countingContext) record(err error, edit bool, opts []interface{}) error {
	if err != nil {
		return err
	}
	if edit {
		m.n.Edits++
	} else {
		m.n.Messages++
	}
	if hasKeyboard(opts) {
		m.n.Keyboard = true
	}
	return nil
}

func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.Send(what, opts...), false, opts)
}

func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.Reply(what, opts...), false, opts)
}

func (m countingContext) Edit(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.Edit(what, opts...), true, opts)
}

func (m countingContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.EditOrSend(what, opts...), m.Callback() != nil, opts)
}

func (m countingContext) EditOrReply(what interface{}, opts ...interface{}) error {
	return m.record(m.Context.EditOrReply(what, opts...), m.Callback() != nil, opts)
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware counts the replies a handler makes; read them
// back with CountersFrom.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		n := &Counters{}
		c.Set(countersKey, n)
		return next(countingContext{Context: c, n: n})
	}
}

// CountersFrom returns the counters of the current update, zero when the
// metrics middleware is not installed.
func CountersFrom(c tele.Context) Counters {
	if n, ok := c.Get(countersKey).(*Counters); ok && n != nil {
		return *n
	}
	return Counters{}
}
