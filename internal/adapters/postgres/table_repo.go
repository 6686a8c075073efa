package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

// TableRepo implements ports.TableRepository with pgx. Each result column
// becomes a record field named after the column.
type TableRepo struct {
	db *DB
}

// NewTableRepo creates a new TableRepo.
func NewTableRepo(db *DB) *TableRepo {
	return &TableRepo{db: db}
}

// Query runs sql and collects every row.
func (r *TableRepo) Query(ctx context.Context, sql string, args ...any) (domain.Records, error) {
	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := domain.Records{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		rec := make(map[string]any, len(fields))
		for i, f := range fields {
			rec[f.Name] = normalize(values[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// normalize converts pgx values the Records accessors cannot read.
func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid || x.NaN {
			return math.NaN()
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return math.NaN()
		}
		return f.Float64
	default:
		return v
	}
}
