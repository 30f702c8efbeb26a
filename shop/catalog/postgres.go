package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const selectCatalogQuery = `
SELECT p.name AS product_name,
       v.name AS variant_name,
       v.description,
       v.price
FROM products p
LEFT JOIN variants v ON v.product_id = p.id
ORDER BY p.name, v.name`

type catalogRow struct {
	Product     string         `db:"product_name"`
	Variant     sql.NullString `db:"variant_name"`
	Description sql.NullString `db:"description"`
	Price       sql.NullInt64  `db:"price"`
}

// PostgresLoader reads the catalog from the products and variants tables.
type PostgresLoader struct {
	DB *sqlx.DB
}

// Load implements Loader.
func (l PostgresLoader) Load(ctx context.Context, dst *Catalog) error {
	if l.DB == nil {
		return fmt.Errorf("catalog: postgres loader without connection")
	}
	var rows []catalogRow
	if err := l.DB.SelectContext(ctx, &rows, selectCatalogQuery); err != nil {
		return fmt.Errorf("catalog: query: %w", err)
	}
	return Fill(ctx, dst, "postgres", func(_ context.Context, scratch *Catalog) error {
		return Build(scratch, groupRows(rows))
	})
}

// groupRows folds joined rows into product specs. Rows must be ordered by product name;
// products without variants come back as a single row with NULL variant columns.
func groupRows(rows []catalogRow) []ProductSpec {
	var specs []ProductSpec
	for _, r := range rows {
		if len(specs) == 0 || specs[len(specs)-1].Name != r.Product {
			specs = append(specs, ProductSpec{Name: r.Product})
		}
		if !r.Variant.Valid {
			continue
		}
		last := &specs[len(specs)-1]
		last.Variants = append(last.Variants, VariantSpec{
			Name:        r.Variant.String,
			Description: r.Description.String,
			Price:       r.Price.Int64,
		})
	}
	return specs
}
