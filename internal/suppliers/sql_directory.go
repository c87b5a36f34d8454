package suppliers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLDirectory reads suppliers through database/sql. Brands live in a
// TEXT[] column decoded with pq.Array.
type SQLDirectory struct {
	db *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	if db == nil {
		panic("suppliers: sql db required")
	}
	return &SQLDirectory{db: db}
}

// Get looks a supplier up by primary key. Ids that are not UUIDs cannot
// exist, so they report not found without a query.
func (d *SQLDirectory) Get(ctx context.Context, id string) (*Supplier, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSupplierNotFound
	}
	query := `
		SELECT id::text, name, is_active, brands, COALESCE(whatsapp_number, '')
		FROM suppliers
		WHERE id = $1
	`
	var s Supplier
	var brands pq.StringArray
	err = d.db.QueryRowContext(ctx, query, key.String()).Scan(&s.ID, &s.Name, &s.IsActive, &brands, &s.WhatsAppNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("suppliers: get %s: %w", id, err)
	}
	s.Brands = []string(brands)
	return &s, nil
}
