package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/m3rciful/kitbot/core/logger"
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/menu"
)

var (
	// ErrInvalidAction is returned for an action not registered in the current state.
	ErrInvalidAction = errors.New("conversation: invalid action for state")
	// ErrDuplicateAction is returned when two buttons of one state share a token.
	ErrDuplicateAction = errors.New("conversation: duplicate action")
	// ErrTokenTooLong is returned when a token exceeds the transport callback limit.
	ErrTokenTooLong = errors.New("conversation: action token too long")
)

// Effect is what a transition does besides moving to the next state.
type Effect int

const (
	// EffectShowMain renders the main menu.
	EffectShowMain Effect = iota
	// EffectOpenProduct renders a product menu.
	EffectOpenProduct
	// EffectOpenVariant renders a variant menu.
	EffectOpenVariant
	// EffectShowSelections renders the selection summary above the main menu.
	EffectShowSelections
	// EffectConfirm hands the selection to the finalizer.
	EffectConfirm
	// EffectSelect appends the variant to the user's selection.
	EffectSelect
)

// String returns the handler name used in logs.
func (e Effect) String() string {
	switch e {
	case EffectShowMain:
		return "show_main"
	case EffectOpenProduct:
		return "open_product"
	case EffectOpenVariant:
		return "open_variant"
	case EffectShowSelections:
		return "show_selections"
	case EffectConfirm:
		return "confirm"
	case EffectSelect:
		return "select"
	}
	return "unknown"
}

// Transition is the result of resolving an action in a state.
type Transition struct {
	Effect Effect
	Next   State
	// Variant is set for EffectSelect.
	Variant *catalog.Variant
}

// Screen is a rendered menu with its heading text.
type Screen struct {
	Text string
	Menu menu.Menu
}

// Entry describes one registered action for diagnostics.
type Entry struct {
	State  string
	Action string
	Effect Effect
}

type table map[string]Transition

// Registry holds the action tables and screens derived from a sealed catalog.
// It is immutable after BuildRegistry returns.
type Registry struct {
	catalog *catalog.Catalog

	main     table
	products map[string]table
	variants map[string]table

	mainScreen     Screen
	productScreens map[string]Screen
	variantScreens map[string]Screen
}

// BuildRegistry derives every state's actions and screens from c and seals it
// on success. A reloaded catalog needs a fresh registry.
func BuildRegistry(ctx context.Context, c *catalog.Catalog) (*Registry, error) {
	if c == nil {
		return nil, fmt.Errorf("conversation: nil catalog")
	}
	start := time.Now()

	r := &Registry{
		catalog:        c,
		main:           table{},
		products:       make(map[string]table, c.Len()),
		variants:       make(map[string]table, c.VariantCount()),
		mainScreen:     Screen{Text: menu.MainTitle, Menu: menu.Main(c)},
		productScreens: make(map[string]Screen, c.Len()),
		variantScreens: make(map[string]Screen, c.VariantCount()),
	}

	back := Transition{Effect: EffectShowMain, Next: Main()}

	for p := range c.Products() {
		open := Transition{Effect: EffectOpenProduct, Next: AtProduct(p)}
		if err := r.main.bind("main", p.Name(), open); err != nil {
			return nil, err
		}

		pt := table{}
		for v := range p.Variants() {
			token := menu.VariantToken(v)
			if err := pt.bind(p.Name(), token, Transition{Effect: EffectOpenVariant, Next: AtVariant(v)}); err != nil {
				return nil, err
			}

			vt := table{}
			if err := vt.bind(token, token, Transition{Effect: EffectSelect, Next: Main(), Variant: v}); err != nil {
				return nil, err
			}
			if err := vt.bind(token, p.Name(), open); err != nil {
				return nil, err
			}
			if err := vt.bind(token, menu.ActionMainMenu, back); err != nil {
				return nil, err
			}
			r.variants[token] = vt
			r.variantScreens[token] = Screen{Text: menu.VariantTitle(v), Menu: menu.Variant(v)}
		}
		if err := pt.bind(p.Name(), menu.ActionMainMenu, back); err != nil {
			return nil, err
		}
		r.products[p.Name()] = pt
		r.productScreens[p.Name()] = Screen{Text: menu.ProductTitle(p), Menu: menu.Product(p)}
	}

	if err := r.main.bind("main", menu.ActionShowSelections, Transition{Effect: EffectShowSelections, Next: Main()}); err != nil {
		return nil, err
	}
	if err := r.main.bind("main", menu.ActionConfirm, Transition{Effect: EffectConfirm, Next: Main()}); err != nil {
		return nil, err
	}

	c.Seal()
	r.logEntries(ctx, start)
	return r, nil
}

func (t table) bind(state, action string, tr Transition) error {
	if len(action) > menu.MaxTokenLen {
		return fmt.Errorf("%w: %q in %s is %d bytes, limit %d", ErrTokenTooLong, action, state, len(action), menu.MaxTokenLen)
	}
	if _, exists := t[action]; exists {
		return fmt.Errorf("%w: %q in %s", ErrDuplicateAction, action, state)
	}
	t[action] = tr
	return nil
}

// Catalog returns the catalog the registry was built from.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// Resolve looks action up in the table of st only; tokens of other states never match.
func (r *Registry) Resolve(st State, action string) (Transition, error) {
	var t table
	switch st.Kind() {
	case KindMain:
		t = r.main
	case KindProduct:
		t = r.products[st.Product().Name()]
	case KindVariant:
		t = r.variants[menu.VariantToken(st.Variant())]
	}
	tr, ok := t[action]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q in %s", ErrInvalidAction, action, st)
	}
	return tr, nil
}

// Screen returns the prebuilt screen of st.
func (r *Registry) Screen(st State) Screen {
	switch st.Kind() {
	case KindProduct:
		return r.productScreens[st.Product().Name()]
	case KindVariant:
		return r.variantScreens[menu.VariantToken(st.Variant())]
	}
	return r.mainScreen
}

// Entries lists every registered action sorted by state and action.
func (r *Registry) Entries() []Entry {
	var out []Entry
	add := func(state string, t table) {
		for action, tr := range t {
			out = append(out, Entry{State: state, Action: action, Effect: tr.Effect})
		}
	}
	add(Main().String(), r.main)
	for name, t := range r.products {
		add("product:"+name, t)
	}
	for token, t := range r.variants {
		add("variant:"+token, t)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := strings.Compare(a.State, b.State); c != 0 {
			return c
		}
		return strings.Compare(a.Action, b.Action)
	})
	return out
}

func (r *Registry) logEntries(ctx context.Context, start time.Time) {
	entries := r.Entries()
	for _, e := range entries {
		logger.Debug(ctx, "menu", "registry.entry",
			slog.String("state", e.State),
			slog.String("handler", e.Effect.String()),
			slog.String("pattern", e.Action),
		)
	}
	logger.Info(ctx, "menu", "registry.built",
		slog.String("status", "ok"),
		slog.Int("states", 1+len(r.products)+len(r.variants)),
		slog.Int("count", len(entries)),
		slog.Duration("duration", logger.Took(start)),
	)
}
