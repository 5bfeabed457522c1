package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

func TestNewSchema(t *testing.T) {
	tests := []struct {
		name    string
		columns []types.Column
		wantErr error
	}{
		{name: "valid", columns: productColumns()},
		{name: "empty schema", columns: nil, wantErr: types.ErrEmptySchema},
		{name: "empty id", columns: []types.Column{{Title: "x"}}, wantErr: types.ErrEmptyColumnID},
		{
			name:    "duplicate id",
			columns: []types.Column{{ID: "a"}, {ID: "a"}},
			wantErr: types.ErrDuplicateColumn,
		},
		{
			name:    "bad sort kind",
			columns: []types.Column{{ID: "a", SortKind: types.SortKind(9)}},
			wantErr: types.ErrInvalidSortKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchema(tt.columns)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.columns), s.Len())
		})
	}
}

func TestSchemaCopiesColumns(t *testing.T) {
	cols := productColumns()
	s, err := NewSchema(cols)
	require.NoError(t, err)

	cols[0].Sortable = false
	col, ok := s.Column("name")
	require.True(t, ok)
	assert.True(t, col.Sortable)

	got := s.Columns()
	got[0].ID = "changed"
	_, ok = s.Column("name")
	assert.True(t, ok)
}

func TestSchemaSortable(t *testing.T) {
	s, err := NewSchema(productColumns())
	require.NoError(t, err)

	col, err := s.Sortable("qty")
	require.NoError(t, err)
	assert.Equal(t, types.SortNumber, col.SortKind)

	_, err = s.Sortable("note")
	assert.ErrorIs(t, err, types.ErrNotSortable)
	_, err = s.Sortable("missing")
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
}

func TestSchemaDefaultSort(t *testing.T) {
	s, err := NewSchema(productColumns())
	require.NoError(t, err)
	assert.Equal(t, types.SortState{ColumnID: "name", Direction: types.Asc}, s.DefaultSort())

	s, err = NewSchema([]types.Column{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.False(t, s.DefaultSort().IsSorted())
}
