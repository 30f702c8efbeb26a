package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/kitbot/core/logger"
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/menu"
	"github.com/m3rciful/kitbot/shop/selection"
)

// ErrBusy is returned under PolicyDrop when the user's previous action is still being handled.
var ErrBusy = errors.New("conversation: busy")

var errNoConversation = errors.New("conversation: not started")

// Policy decides what happens to a button press arriving while the same
// user's previous action is still in flight.
type Policy string

const (
	// PolicyDrop answers the second press with ErrBusy and changes nothing.
	PolicyDrop Policy = "drop"
	// PolicyQueue waits for the first press to finish.
	PolicyQueue Policy = "queue"
)

// Finalizer receives a confirmed, non-empty selection and returns the text shown to the user.
type Finalizer interface {
	Finalize(ctx context.Context, userID int64, items []*catalog.Variant) (string, error)
}

// FinalizerFunc adapts a function to the Finalizer interface.
type FinalizerFunc func(ctx context.Context, userID int64, items []*catalog.Variant) (string, error)

// Finalize calls f.
func (f FinalizerFunc) Finalize(ctx context.Context, userID int64, items []*catalog.Variant) (string, error) {
	return f(ctx, userID, items)
}

// Options configures a Machine.
type Options struct {
	Policy    Policy
	Finalizer Finalizer
}

// Reply is what the transport shows after an action.
type Reply struct {
	Screen
	State State
	// Fallback is set when the action was rejected and /start ran instead.
	Fallback bool
}

type session struct {
	mu      sync.Mutex
	state   State
	started atomic.Bool
}

// Machine keeps one conversation per user and applies transitions from the registry.
// Actions of one user are serialized; different users never contend.
type Machine struct {
	reg   *Registry
	store *selection.Store
	opts  Options

	mu       sync.Mutex
	sessions map[int64]*session
}

// NewMachine returns a machine with no active conversations.
func NewMachine(reg *Registry, store *selection.Store, opts Options) *Machine {
	if opts.Policy == "" {
		opts.Policy = PolicyDrop
	}
	if opts.Finalizer == nil {
		opts.Finalizer = FinalizerFunc(func(context.Context, int64, []*catalog.Variant) (string, error) {
			return "Selections confirmed", nil
		})
	}
	return &Machine{
		reg:      reg,
		store:    store,
		opts:     opts,
		sessions: make(map[int64]*session),
	}
}

func (m *Machine) acquire(userID int64, wait bool) (*session, func(), error) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &session{}
		m.sessions[userID] = sess
	}
	m.mu.Unlock()

	if wait {
		sess.mu.Lock()
	} else if !sess.mu.TryLock() {
		return nil, nil, ErrBusy
	}
	return sess, sess.mu.Unlock, nil
}

// Start opens or resets the conversation to the main menu. The selection is kept.
func (m *Machine) Start(ctx context.Context, userID int64) (Reply, error) {
	sess, release, err := m.acquire(userID, true)
	if err != nil {
		return Reply{}, err
	}
	defer release()
	return m.start(ctx, sess, userID), nil
}

func (m *Machine) start(ctx context.Context, sess *session, userID int64) Reply {
	m.store.Ensure(userID)
	m.moveTo(ctx, sess, Main(), "/start")
	sess.started.Store(true)
	return Reply{Screen: m.reg.Screen(Main()), State: Main()}
}

// Press handles a button press. Actions unknown to the current state, or
// presses without a started conversation, fall back to Start.
func (m *Machine) Press(ctx context.Context, userID int64, action string) (Reply, error) {
	sess, release, err := m.acquire(userID, m.opts.Policy == PolicyQueue)
	if err != nil {
		logger.Debug(ctx, "conversation", "press.dropped",
			slog.String("status", "skip"),
			slog.Int64("user_id", userID),
			slog.String("payload", logger.SanitizeLimit(action, 64)),
		)
		return Reply{}, err
	}
	defer release()

	if !sess.started.Load() {
		return m.fallback(ctx, sess, userID, fmt.Errorf("%w: %q", errNoConversation, action)), nil
	}
	tr, err := m.reg.Resolve(sess.state, action)
	if err != nil {
		return m.fallback(ctx, sess, userID, err), nil
	}
	return m.apply(ctx, sess, userID, action, tr), nil
}

func (m *Machine) fallback(ctx context.Context, sess *session, userID int64, cause error) Reply {
	logger.Warn(ctx, "conversation", "press.fallback",
		slog.String("status", "skip"),
		slog.Int64("user_id", userID),
		slog.String("state", sess.state.String()),
		slog.String("err", cause.Error()),
	)
	reply := m.start(ctx, sess, userID)
	reply.Fallback = true
	return reply
}

func (m *Machine) apply(ctx context.Context, sess *session, userID int64, action string, tr Transition) Reply {
	m.moveTo(ctx, sess, tr.Next, tr.Effect.String())
	reply := Reply{Screen: m.reg.Screen(tr.Next), State: tr.Next}

	switch tr.Effect {
	case EffectShowSelections:
		reply.Text = menu.Selections(m.list(ctx, userID))
	case EffectConfirm:
		reply.Text = m.confirm(ctx, userID)
	case EffectSelect:
		m.add(ctx, userID, tr.Variant)
		reply.Text = fmt.Sprintf("Added: %s / %s\n\n%s", tr.Variant.Product().Name(), tr.Variant.Name(), menu.MainTitle)
	}
	return reply
}

func (m *Machine) moveTo(ctx context.Context, sess *session, next State, handler string) {
	logger.Debug(ctx, "conversation", "state.transition",
		slog.String("from", sess.state.String()),
		slog.String("to", next.String()),
		slog.String("handler", handler),
	)
	sess.state = next
}

// list returns the user's selection, creating an empty one if it was never initialized.
func (m *Machine) list(ctx context.Context, userID int64) []*catalog.Variant {
	items, err := m.store.List(userID)
	if errors.Is(err, selection.ErrUserNotFound) {
		logger.Warn(ctx, "selection", "selection.init",
			slog.Int64("user_id", userID),
			slog.String("reason", "not_initialized"),
		)
		m.store.Create(userID)
		return nil
	}
	return items
}

func (m *Machine) add(ctx context.Context, userID int64, v *catalog.Variant) {
	err := m.store.Add(userID, v)
	if errors.Is(err, selection.ErrUserNotFound) {
		m.store.Create(userID)
		err = m.store.Add(userID, v)
	}
	if err != nil {
		logger.Error(ctx, "selection", "selection.add",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(ctx, "selection", "selection.add",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("payload", menu.VariantToken(v)),
	)
}

func (m *Machine) confirm(ctx context.Context, userID int64) string {
	items := m.list(ctx, userID)
	if len(items) == 0 {
		return menu.EmptySelection
	}
	text, err := m.opts.Finalizer.Finalize(ctx, userID, items)
	if err != nil {
		logger.Error(ctx, "conversation", "selection.confirm",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.Int("count", len(items)),
			slog.String("err", err.Error()),
		)
		return "Could not confirm selections, please try again"
	}
	m.store.Create(userID)
	return text
}

// ShowSelections renders the selection summary above the main menu.
func (m *Machine) ShowSelections(ctx context.Context, userID int64) (Reply, error) {
	return m.command(ctx, userID, "/selection", func() string {
		return menu.Selections(m.list(ctx, userID))
	})
}

// Undo removes the most recently selected variant.
func (m *Machine) Undo(ctx context.Context, userID int64) (Reply, error) {
	return m.command(ctx, userID, "/undo", func() string {
		last, err := m.store.Pop(userID)
		if errors.Is(err, selection.ErrElementNotFound) {
			return menu.EmptySelection
		}
		if err != nil {
			logger.Warn(ctx, "selection", "selection.remove",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return menu.EmptySelection
		}
		return fmt.Sprintf("Removed: %s / %s", last.Product().Name(), last.Name())
	})
}

// Clear drops every selected variant of the user.
func (m *Machine) Clear(ctx context.Context, userID int64) (Reply, error) {
	return m.command(ctx, userID, "/clear", func() string {
		if err := m.store.Delete(userID); err != nil && !errors.Is(err, selection.ErrUserNotFound) {
			logger.Warn(ctx, "selection", "selection.delete",
				slog.String("status", "fail"),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
		}
		m.store.Create(userID)
		return "Selections cleared"
	})
}

// command runs a selection command and leaves the conversation on the main menu.
func (m *Machine) command(ctx context.Context, userID int64, name string, text func() string) (Reply, error) {
	sess, release, err := m.acquire(userID, true)
	if err != nil {
		return Reply{}, err
	}
	defer release()

	reply := m.start(ctx, sess, userID)
	logger.Debug(ctx, "conversation", "command", slog.String("handler", name))
	reply.Text = text()
	return reply, nil
}

// State returns the user's current state and whether a conversation was started.
func (m *Machine) State(userID int64) (State, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok || !sess.started.Load() {
		return State{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, true
}

// Conversations reports how many users have started a conversation.
// A press from an unknown user starts one through the fallback, so this is
// every user seen since process start; sessions are kept until restart.
func (m *Machine) Conversations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, sess := range m.sessions {
		if sess.started.Load() {
			n++
		}
	}
	return n
}

// Registry returns the registry the machine routes through.
func (m *Machine) Registry() *Registry { return m.reg }
