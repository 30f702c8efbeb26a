package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/kitbot/shop/catalog"
)

func demoCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	require.NoError(t, catalog.Static().Load(context.Background(), c))
	return c
}

func TestMainMenu(t *testing.T) {
	m := Main(demoCatalog(t))

	assert.Equal(t, []string{"Foo", "Product #1", LabelShowSelections, LabelConfirm}, m.Labels())
	assert.Equal(t, []string{"Foo", "Product #1", ActionShowSelections, ActionConfirm}, m.Actions())
	for _, row := range m {
		assert.Len(t, row, 1)
	}
}

func TestProductMenuTokensRoundTrip(t *testing.T) {
	c := demoCatalog(t)
	p, err := c.Product("Product #1")
	require.NoError(t, err)

	m := Product(p)
	require.Len(t, m, 3)
	assert.Equal(t, LabelMainMenu, m[2][0].Label)
	assert.Equal(t, ActionMainMenu, m[2][0].Action)

	for _, row := range m[:2] {
		btn := row[0]
		product, variant, ok := ParseVariantToken(btn.Action)
		require.True(t, ok, btn.Action)
		assert.Equal(t, p.Name(), product)
		assert.Equal(t, btn.Label, variant)

		v, err := p.Variant(variant)
		require.NoError(t, err)
		assert.Same(t, p, v.Product())
	}
}

func TestVariantMenu(t *testing.T) {
	c := demoCatalog(t)
	v, err := c.Variant("Foo", "Variant #1 of the Foo")
	require.NoError(t, err)

	m := Variant(v)
	assert.Equal(t, []string{LabelTake, LabelGoBack, LabelMainMenu}, m.Labels())
	assert.Equal(t, []string{"Foo~Variant #1 of the Foo", "Foo", ActionMainMenu}, m.Actions())
	assert.Contains(t, VariantTitle(v), "Price: 1.03")
}

func TestParseVariantToken(t *testing.T) {
	tests := []struct {
		token   string
		product string
		variant string
		ok      bool
	}{
		{token: "Foo~V1", product: "Foo", variant: "V1", ok: true},
		{token: "Foo", ok: false},
		{token: "~V1", ok: false},
		{token: "Foo~", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			product, variant, ok := ParseVariantToken(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.product, product)
			assert.Equal(t, tt.variant, variant)
		})
	}
}

func TestSelectionsSummary(t *testing.T) {
	c := demoCatalog(t)
	v1, err := c.Variant("Product #1", "Variant #1 of the Product #1")
	require.NoError(t, err)
	v2, err := c.Variant("Foo", "Variant #1 of the Foo")
	require.NoError(t, err)

	assert.Equal(t, EmptySelection, Selections(nil))

	got := Selections([]*catalog.Variant{v1, v2, v1})
	want := "Current selections:\n" +
		"1. Product #1 / Variant #1 of the Product #1 - 1.01\n" +
		"2. Foo / Variant #1 of the Foo - 1.03\n" +
		"3. Product #1 / Variant #1 of the Product #1 - 1.01\n" +
		"Total: 3.05"
	assert.Equal(t, want, got)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0.00", FormatPrice(0))
	assert.Equal(t, "0.05", FormatPrice(5))
	assert.Equal(t, "12.34", FormatPrice(1234))
}
