// Package table implements the sortable, paginated table component: column
// schema lookup, the local sort engine, the fetch coordinator and the event
// router that turns header and scroll signals into requests.
package table

import (
	"fmt"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Schema is a validated, immutable column list.
type Schema struct {
	columns []types.Column
	index   map[string]int
}

// NewSchema copies and validates columns. Ids must be non-empty and unique.
func NewSchema(columns []types.Column) (*Schema, error) {
	if len(columns) == 0 {
		return nil, types.ErrEmptySchema
	}
	s := &Schema{
		columns: append([]types.Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range s.columns {
		if col.ID == "" {
			return nil, fmt.Errorf("column %d: %w", i, types.ErrEmptyColumnID)
		}
		if _, dup := s.index[col.ID]; dup {
			return nil, fmt.Errorf("%w: %q", types.ErrDuplicateColumn, col.ID)
		}
		if col.SortKind != types.SortString && col.SortKind != types.SortNumber {
			return nil, fmt.Errorf("column %q: %w", col.ID, types.ErrInvalidSortKind)
		}
		s.index[col.ID] = i
	}
	return s, nil
}

// Columns returns a copy of the columns in display order.
func (s *Schema) Columns() []types.Column {
	return append([]types.Column(nil), s.columns...)
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Column looks a column up by id.
func (s *Schema) Column(id string) (types.Column, bool) {
	i, ok := s.index[id]
	if !ok {
		return types.Column{}, false
	}
	return s.columns[i], true
}

// Sortable returns the column if it exists and may be sorted.
func (s *Schema) Sortable(id string) (types.Column, error) {
	col, ok := s.Column(id)
	if !ok {
		return types.Column{}, fmt.Errorf("%w: %q", types.ErrUnknownColumn, id)
	}
	if !col.Sortable {
		return types.Column{}, fmt.Errorf("%w: %q", types.ErrNotSortable, id)
	}
	return col, nil
}

// FirstSortable returns the first sortable column in display order.
func (s *Schema) FirstSortable() (types.Column, bool) {
	for _, col := range s.columns {
		if col.Sortable {
			return col, true
		}
	}
	return types.Column{}, false
}

// DefaultSort is the first sortable column ascending, or unsorted when no
// column is sortable.
func (s *Schema) DefaultSort() types.SortState {
	col, ok := s.FirstSortable()
	if !ok {
		return types.SortState{}
	}
	return types.SortState{ColumnID: col.ID, Direction: types.Asc}
}
