package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

func TestNewStoreRoundTrip(t *testing.T) {
	rows := NewStore()
	require.NoError(t, rows.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer rows.Detach()

	require.NoError(t, rows.CreateDataset("fruit", []types.ColumnSpec{
		{ID: "title", Title: "Name", Sortable: true},
	}))
	res, err := rows.Import("fruit", strings.NewReader("{\"title\":\"pear\"}\n{\"title\":\"apple\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)

	page, err := rows.Page(context.Background(), "fruit", types.Query{Sort: "title", Order: types.Asc, End: -1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "apple", page[0]["title"])
}
