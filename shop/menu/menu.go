// Package menu renders catalog screens as transport-neutral button layouts.
package menu

import (
	"fmt"
	"strings"

	"github.com/m3rciful/kitbot/shop/catalog"
)

// Button labels. The fixed buttons use their label as action token.
const (
	LabelShowSelections = "Show current selections"
	LabelConfirm        = "Confirm"
	LabelTake           = "Take"
	LabelGoBack         = "Go back"
	LabelMainMenu       = "Go back to main menu"
)

// Fixed action tokens.
const (
	ActionShowSelections = LabelShowSelections
	ActionConfirm        = LabelConfirm
	ActionMainMenu       = LabelMainMenu
)

// MaxTokenLen is the longest action token the chat transport accepts as callback data.
const MaxTokenLen = 64

// MainTitle is the text shown above the main menu.
const MainTitle = "Main menu"

// Button is a single clickable entry.
type Button struct {
	Label  string
	Action string
}

// Row is one line of buttons.
type Row []Button

// Menu is an ordered list of rows.
type Menu []Row

// Actions returns every action token of m in display order.
func (m Menu) Actions() []string {
	var out []string
	for _, row := range m {
		for _, b := range row {
			out = append(out, b.Action)
		}
	}
	return out
}

// Labels returns every button label of m in display order.
func (m Menu) Labels() []string {
	var out []string
	for _, row := range m {
		for _, b := range row {
			out = append(out, b.Label)
		}
	}
	return out
}

func single(label, action string) Row {
	return Row{{Label: label, Action: action}}
}

// VariantToken builds the action token addressing v.
func VariantToken(v *catalog.Variant) string {
	return v.Product().Name() + catalog.Separator + v.Name()
}

// ParseVariantToken splits a token built by VariantToken.
func ParseVariantToken(token string) (product, variant string, ok bool) {
	product, variant, ok = strings.Cut(token, catalog.Separator)
	if !ok || product == "" || variant == "" {
		return "", "", false
	}
	return product, variant, true
}

// Main lists products in catalog order followed by the selection buttons.
func Main(c *catalog.Catalog) Menu {
	m := make(Menu, 0, c.Len()+2)
	for p := range c.Products() {
		m = append(m, single(p.Name(), p.Name()))
	}
	return append(m,
		single(LabelShowSelections, ActionShowSelections),
		single(LabelConfirm, ActionConfirm),
	)
}

// Product lists the variants of p followed by the main menu button.
func Product(p *catalog.Product) Menu {
	m := make(Menu, 0, p.VariantCount()+1)
	for v := range p.Variants() {
		m = append(m, single(v.Name(), VariantToken(v)))
	}
	return append(m, single(LabelMainMenu, ActionMainMenu))
}

// Variant offers taking v, going back to its product or to the main menu.
func Variant(v *catalog.Variant) Menu {
	return Menu{
		single(LabelTake, VariantToken(v)),
		single(LabelGoBack, v.Product().Name()),
		single(LabelMainMenu, ActionMainMenu),
	}
}

// ProductTitle is the text shown above a product menu.
func ProductTitle(p *catalog.Product) string {
	return p.Name()
}

// VariantTitle is the text shown above a variant menu.
func VariantTitle(v *catalog.Variant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", v.Product().Name(), v.Name())
	if d := strings.TrimSpace(v.Description()); d != "" {
		b.WriteString("\n")
		b.WriteString(d)
	}
	b.WriteString("\nPrice: ")
	b.WriteString(FormatPrice(v.Price()))
	return b.String()
}
