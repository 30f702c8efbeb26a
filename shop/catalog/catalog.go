// Package catalog models products and their variants, and loads them from
// the configured source at startup.
package catalog

import (
	"fmt"
	"iter"
	"strings"
)

// Separator joins product and variant names in action tokens, so names may not contain it.
const Separator = "~"

// Product is a named item owning a set of variants.
type Product struct {
	name     string
	variants *Collection[*Variant]
	owner    *Catalog
}

// NewProduct returns a product without variants.
func NewProduct(name string) *Product {
	return &Product{
		name:     name,
		variants: NewCollection[*Variant]("variant"),
	}
}

// Name returns the product name.
func (p *Product) Name() string { return p.name }

// Variants yields the product variants ordered by name.
func (p *Product) Variants() iter.Seq[*Variant] { return p.variants.All() }

// VariantNames yields variant names in lexicographic order.
func (p *Product) VariantNames() iter.Seq[string] { return p.variants.Names() }

// VariantCount reports how many variants the product has.
func (p *Product) VariantCount() int { return p.variants.Len() }

// Variant looks up a variant by name.
func (p *Product) Variant(name string) (*Variant, error) {
	return p.variants.Get(name)
}

// AddVariant creates a variant owned by p.
func (p *Product) AddVariant(name, description string, price int64) (*Variant, error) {
	if p.owner != nil && p.owner.sealed {
		return nil, fmt.Errorf("%w: add variant %q to %q", ErrSealed, name, p.name)
	}
	if err := ValidateName("variant", name); err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: variant %q of %q: %d", ErrNegativePrice, name, p.name, price)
	}
	v := &Variant{
		name:        name,
		description: description,
		price:       price,
		product:     p,
	}
	if err := p.variants.Add(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Variant is a purchasable option of a product.
type Variant struct {
	name        string
	description string
	price       int64
	product     *Product
}

// Name returns the variant name.
func (v *Variant) Name() string { return v.name }

// Description returns the free-form variant description.
func (v *Variant) Description() string { return v.description }

// Price returns the price in the smallest currency unit.
func (v *Variant) Price() int64 { return v.price }

// Product returns the owning product.
func (v *Variant) Product() *Product { return v.product }

// Catalog is the set of products shown by the bot. It is filled once by a
// Loader and sealed before menus are derived from it.
type Catalog struct {
	products *Collection[*Product]
	sealed   bool
}

// New returns an empty, unsealed catalog.
func New() *Catalog {
	return &Catalog{products: NewCollection[*Product]("product")}
}

// Add inserts a product. Only *Product entities are accepted.
func (c *Catalog) Add(e Named) error {
	if c.sealed {
		return fmt.Errorf("%w: add %T", ErrSealed, e)
	}
	p, ok := e.(*Product)
	if !ok || p == nil {
		// let the collection produce the canonical mismatch error
		return c.products.Add(e)
	}
	if err := ValidateName("product", p.Name()); err != nil {
		return err
	}
	if err := c.products.Add(p); err != nil {
		return err
	}
	p.owner = c
	return nil
}

// Product looks up a product by name.
func (c *Catalog) Product(name string) (*Product, error) {
	return c.products.Get(name)
}

// Variant looks up a variant of the named product.
func (c *Catalog) Variant(product, variant string) (*Variant, error) {
	p, err := c.products.Get(product)
	if err != nil {
		return nil, err
	}
	return p.Variant(variant)
}

// Products yields products ordered by name.
func (c *Catalog) Products() iter.Seq[*Product] { return c.products.All() }

// Names yields product names in lexicographic order.
func (c *Catalog) Names() iter.Seq[string] { return c.products.Names() }

// Len reports the number of products.
func (c *Catalog) Len() int { return c.products.Len() }

// VariantCount reports the number of variants across all products.
func (c *Catalog) VariantCount() int {
	n := 0
	for p := range c.Products() {
		n += p.VariantCount()
	}
	return n
}

// Seal freezes the catalog. Menus derived from a sealed catalog stay valid
// for the process lifetime.
func (c *Catalog) Seal() { c.sealed = true }

// Sealed reports whether Seal was called.
func (c *Catalog) Sealed() bool { return c.sealed }

func (c *Catalog) replace(src *Catalog) {
	c.products = src.products
	for p := range c.products.All() {
		p.owner = c
	}
}

// ValidateName checks the naming rules shared by products and variants.
func ValidateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyName, kind)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %s %q contains %q", ErrReservedCharacter, kind, name, Separator)
	}
	return nil
}
