// Package categorization assigns spending categories to merchants using
// per-merchant history and a global keyword table.
package categorization

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Keyword maps a merchant-name fragment to a spending category.
type Keyword struct {
	Name     string
	Category string
}

// Repository loads the keyword table from Postgres.
type Repository struct {
	db DB
}

// DB is the query subset of pgxpool.Pool the keyword repository uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// NewRepository creates a keyword repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// LoadKeywords returns the full keyword table.
func (r *Repository) LoadKeywords(ctx context.Context) ([]Keyword, error) {
	rows, err := r.db.Query(ctx, `SELECT name, category FROM keywords ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	defer rows.Close()

	var keywords []Keyword
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.Name, &k.Category); err != nil {
			return nil, err
		}
		keywords = append(keywords, k)
	}
	return keywords, rows.Err()
}
