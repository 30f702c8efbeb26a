package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/kitbot/core/logger"
)

// Loader populates a catalog from some source. Implementations replace the
// whole content of dst or leave it untouched on error.
type Loader interface {
	Load(ctx context.Context, dst *Catalog) error
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, dst *Catalog) error

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, dst *Catalog) error {
	return f(ctx, dst)
}

// ProductSpec is the declarative form of a product used by file and database sources.
type ProductSpec struct {
	Name     string        `yaml:"name"`
	Variants []VariantSpec `yaml:"variants"`
}

// VariantSpec is the declarative form of a variant.
type VariantSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       int64  `yaml:"price"`
}

// Build adds every spec to dst and reports all validation problems at once.
func Build(dst *Catalog, specs []ProductSpec) error {
	var result *multierror.Error
	for _, ps := range specs {
		p := NewProduct(ps.Name)
		for _, vs := range ps.Variants {
			if _, err := p.AddVariant(vs.Name, vs.Description, vs.Price); err != nil {
				result = multierror.Append(result, fmt.Errorf("product %q: %w", ps.Name, err))
			}
		}
		if err := dst.Add(p); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Fill runs build against a scratch catalog and swaps the result into dst only
// when build succeeds, so a failed load never exposes a partial catalog.
func Fill(ctx context.Context, dst *Catalog, source string, build func(ctx context.Context, scratch *Catalog) error) error {
	if dst == nil {
		return fmt.Errorf("catalog: nil destination")
	}
	if dst.Sealed() {
		return fmt.Errorf("%w: reload from %s", ErrSealed, source)
	}
	start := time.Now()
	scratch := New()
	if err := build(ctx, scratch); err != nil {
		logger.Error(ctx, "catalog", "catalog.load",
			slog.String("status", "fail"),
			slog.String("source", source),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("catalog: load from %s: %w", source, err)
	}
	dst.replace(scratch)
	logger.Info(ctx, "catalog", "catalog.load",
		slog.String("status", "ok"),
		slog.String("source", source),
		slog.Int("products", dst.Len()),
		slog.Int("variants", dst.VariantCount()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
