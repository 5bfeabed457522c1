package table

import (
	"context"
	"slices"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Source fetches one window of rows. Implementations must honour every field
// of the query and return at most q.Limit() rows when the window is bounded.
type Source interface {
	Fetch(ctx context.Context, q types.Query) ([]types.Row, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, q types.Query) ([]types.Row, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	return f(ctx, q)
}

// MemorySource serves an in-memory row set, sorted with the local sort engine
// and sliced to the requested window. Filter params are ignored.
type MemorySource struct {
	schema *Schema
	rows   []types.Row
}

// NewMemorySource returns a source over a copy of rows.
func NewMemorySource(schema *Schema, rows []types.Row) *MemorySource {
	return &MemorySource{schema: schema, rows: slices.Clone(rows)}
}

// Fetch implements Source.
func (m *MemorySource) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := m.rows
	if q.Sort != "" {
		rows = m.schema.SortLocally(rows, q.Sort, q.Order)
	}
	start := min(q.Start, len(rows))
	end := len(rows)
	if q.End >= 0 {
		end = min(q.End, len(rows))
	}
	return slices.Clone(rows[start:end]), nil
}
