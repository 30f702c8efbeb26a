// Package conversation drives the menu dialog: it derives per-state action
// tables from the catalog and routes each button press through them.
package conversation

import (
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/menu"
)

// Kind enumerates the screens a conversation can be on.
type Kind int

const (
	// KindMain is the product list.
	KindMain Kind = iota
	// KindProduct is the variant list of one product.
	KindProduct
	// KindVariant is the detail screen of one variant.
	KindVariant
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindProduct:
		return "product"
	case KindVariant:
		return "variant"
	}
	return "unknown"
}

// State is the current screen together with the entities it shows.
// The zero value is the main menu.
type State struct {
	kind    Kind
	product *catalog.Product
	variant *catalog.Variant
}

// Main returns the main menu state.
func Main() State {
	return State{kind: KindMain}
}

// AtProduct returns the state showing the variants of p.
func AtProduct(p *catalog.Product) State {
	return State{kind: KindProduct, product: p}
}

// AtVariant returns the state showing v.
func AtVariant(v *catalog.Variant) State {
	return State{kind: KindVariant, product: v.Product(), variant: v}
}

// Kind returns the screen kind.
func (s State) Kind() Kind { return s.kind }

// Product returns the open product, nil on the main menu.
func (s State) Product() *catalog.Product { return s.product }

// Variant returns the open variant, nil unless on a variant screen.
func (s State) Variant() *catalog.Variant { return s.variant }

// String identifies the state in logs, e.g. "variant:Foo~V1".
func (s State) String() string {
	switch s.kind {
	case KindProduct:
		return "product:" + s.product.Name()
	case KindVariant:
		return "variant:" + menu.VariantToken(s.variant)
	}
	return s.kind.String()
}
