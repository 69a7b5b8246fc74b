package gazetteer

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/lib/pq"

	"capitals/internal/domain"
)

// Schema creates the table LoadPostgres reads from.
//
//go:embed schema.sql
var Schema string

const selectEntities = `SELECT category, name, capital, aliases FROM geo_entities ORDER BY category, name`

// LoadPostgres builds the gazetteer from the geo_entities table. NULL
// columns and unknown categories are load errors.
func LoadPostgres(ctx context.Context, db *sql.DB) (*Gazetteer, error) {
	rows, err := db.QueryContext(ctx, selectEntities)
	if err != nil {
		return nil, fmt.Errorf("%w: querying geo_entities: %w", ErrDataLoad, err)
	}
	defer rows.Close()

	datasets := make(map[domain.Category]*Dataset, len(categories))
	for rows.Next() {
		var (
			category, name, capital sql.NullString
			aliases                 pq.StringArray
		)
		if err := rows.Scan(&category, &name, &capital, &aliases); err != nil {
			return nil, fmt.Errorf("%w: scanning geo_entities: %w", ErrDataLoad, err)
		}

		cat, err := domain.ParseCategory(category.String)
		if err != nil {
			return nil, fmt.Errorf("%w: row %q: %w", ErrDataLoad, name.String, err)
		}
		ds, ok := datasets[cat]
		if !ok {
			ds = &Dataset{Category: cat}
			datasets[cat] = ds
		}
		ds.Entities = append(ds.Entities, Record{
			Name:    name.String,
			Capital: capital.String,
			Aliases: aliases,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading geo_entities: %w", ErrDataLoad, err)
	}

	all := make([]Dataset, 0, len(datasets))
	for _, cat := range categories {
		if ds, ok := datasets[cat]; ok {
			all = append(all, *ds)
		}
	}
	return Build(all...)
}

// Seed upserts datasets into geo_entities inside one transaction.
func Seed(ctx context.Context, db *sql.DB, datasets ...Dataset) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO geo_entities (category, name, capital, aliases)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category, name) DO UPDATE SET capital = EXCLUDED.capital, aliases = EXCLUDED.aliases`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, ds := range datasets {
		for _, rec := range ds.Entities {
			aliases := rec.Aliases
			if aliases == nil {
				aliases = []string{}
			}
			if _, err := stmt.ExecContext(ctx, string(ds.Category), rec.Name, rec.Capital, pq.Array(aliases)); err != nil {
				return fmt.Errorf("inserting %s %q: %w", ds.Category, rec.Name, err)
			}
		}
	}

	return tx.Commit()
}
