package catalog

import "context"

// demoProducts is the built-in catalog used until a real source is configured.
var demoProducts = []ProductSpec{
	{
		Name: "Product #1",
		Variants: []VariantSpec{
			{Name: "Variant #1 of the Product #1", Description: "description", Price: 101},
			{Name: "Variant #2 of the Product #1", Description: "description", Price: 102},
		},
	},
	{
		Name: "Foo",
		Variants: []VariantSpec{
			{Name: "Variant #1 of the Foo", Description: "description", Price: 103},
		},
	},
}

// StaticLoader fills the catalog from an in-memory list of specs.
type StaticLoader struct {
	Products []ProductSpec
}

// Static returns a loader with the built-in demo catalog.
func Static() StaticLoader {
	return StaticLoader{Products: demoProducts}
}

// Load implements Loader.
func (l StaticLoader) Load(ctx context.Context, dst *Catalog) error {
	return Fill(ctx, dst, "static", func(_ context.Context, scratch *Catalog) error {
		return Build(scratch, l.Products)
	})
}
