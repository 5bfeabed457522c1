package store

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

var productSpecs = []types.ColumnSpec{
	{ID: "title", Title: "Name", Sortable: true},
	{ID: "quantity", Title: "Quantity", Sortable: true, SortKind: "number"},
	{ID: "price", Title: "Price", Sortable: true, SortKind: "number", Render: "money"},
	{ID: "createdAt", Title: "Created"},
	{ID: "note", Title: "Note"},
}

const productRows = `{"id":"p1","title":"banana","quantity":3,"price":10,"createdAt":"2026-01-05"}
{"id":"p2","title":"Apple","quantity":1,"price":30,"createdAt":"2026-02-10"}
not json
{"id":"p3","title":"apple","quantity":2,"price":10,"createdAt":"2026-03-15"}

{"title":"cherry","quantity":2,"price":20,"createdAt":"2026-04-20"}
[1,2,3]
`

func attachTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { s.Detach() })
	return s
}

func seededStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s := attachTestStore(t, dir)
	require.NoError(t, s.CreateDataset("products", productSpecs))
	res, err := s.Import("products", strings.NewReader(productRows))
	require.NoError(t, err)
	require.Equal(t, types.ImportResult{Imported: 4, Skipped: 2}, res)
	return s, dir
}

func titles(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprint(r["title"])
	}
	return out
}

func TestStoreLifecycle(t *testing.T) {
	dir := t.TempDir()
	s := NewStore()

	require.NoError(t, s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	_, err := os.Stat(filepath.Join(dir, DBFile))
	assert.NoError(t, err)
	assert.ErrorIs(t, s.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}), ErrAlreadyAttached)

	require.NoError(t, s.Detach())
	require.NoError(t, s.Detach())

	_, err = s.Datasets()
	assert.ErrorIs(t, err, ErrDetached)
	_, err = s.Page(context.Background(), "products", types.Query{End: -1})
	assert.ErrorIs(t, err, ErrDetached)
	assert.ErrorIs(t, s.CreateDataset("products", productSpecs), ErrDetached)

	assert.ErrorIs(t, NewStore().Attach(types.Config{}), types.ErrBackendEmpty)
}

func TestCreateDatasetValidation(t *testing.T) {
	s := attachTestStore(t, t.TempDir())

	tests := []struct {
		name    string
		dataset string
		columns []types.ColumnSpec
		wantErr error
	}{
		{name: "bad name", dataset: "../etc", columns: productSpecs, wantErr: types.ErrInvalidDataset},
		{name: "empty name", dataset: "", columns: productSpecs, wantErr: types.ErrInvalidDataset},
		{name: "no columns", dataset: "a", wantErr: types.ErrEmptySchema},
		{name: "empty column id", dataset: "a", columns: []types.ColumnSpec{{Title: "x"}}, wantErr: types.ErrEmptyColumnID},
		{name: "duplicate", dataset: "a", columns: []types.ColumnSpec{{ID: "x"}, {ID: "x"}}, wantErr: types.ErrDuplicateColumn},
		{name: "bad kind", dataset: "a", columns: []types.ColumnSpec{{ID: "x", SortKind: "date"}}, wantErr: types.ErrInvalidSortKind},
		{name: "valid", dataset: "orders_2026", columns: productSpecs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateDataset(tt.dataset, tt.columns)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestImportAssignsIDs(t *testing.T) {
	s, _ := seededStore(t)
	rows, err := s.Page(context.Background(), "products", types.Query{End: -1})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"banana", "Apple", "apple", "cherry"}, titles(rows))
	assert.Equal(t, "p1", rows[0]["id"])
	id, ok := rows[3]["id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36)

	_, err = s.Import("missing", strings.NewReader(productRows))
	assert.ErrorIs(t, err, types.ErrDatasetMissing)
}

func TestPageSorting(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query types.Query
		want  []string
	}{
		{name: "title asc upper first", query: types.Query{Sort: "title", End: -1}, want: []string{"Apple", "apple", "banana", "cherry"}},
		{name: "title desc", query: types.Query{Sort: "title", Order: types.Desc, End: -1}, want: []string{"cherry", "banana", "apple", "Apple"}},
		{name: "quantity desc", query: types.Query{Sort: "quantity", Order: types.Desc, End: -1}, want: []string{"banana", "apple", "cherry", "Apple"}},
		{name: "price ties keep import order asc", query: types.Query{Sort: "price", End: -1}, want: []string{"banana", "apple", "cherry", "Apple"}},
		{name: "price ties keep import order desc", query: types.Query{Sort: "price", Order: types.Desc, End: -1}, want: []string{"Apple", "cherry", "banana", "apple"}},
		{name: "window", query: types.Query{Sort: "title", Start: 1, End: 3}, want: []string{"apple", "banana"}},
		{name: "window past end", query: types.Query{Sort: "title", Start: 3, End: 6}, want: []string{"cherry"}},
		{name: "empty window", query: types.Query{Sort: "title", Start: 10, End: 12}, want: []string{}},
		{name: "unsorted is import order", query: types.Query{End: 2}, want: []string{"banana", "Apple"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Page(ctx, "products", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(rows))
		})
	}
}

func TestPageRejectsBadSort(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	_, err := s.Page(ctx, "products", types.Query{Sort: "color", End: -1})
	assert.ErrorIs(t, err, types.ErrUnknownColumn)
	_, err = s.Page(ctx, "products", types.Query{Sort: "note", End: -1})
	assert.ErrorIs(t, err, types.ErrNotSortable)
	_, err = s.Page(ctx, "orders", types.Query{End: -1})
	assert.ErrorIs(t, err, types.ErrDatasetMissing)
}

func TestPageRangeFilter(t *testing.T) {
	s, _ := seededStore(t)
	ctx := context.Background()

	q := types.Query{Sort: "title", End: -1, Params: url.Values{types.ParamFrom: {"2026-02-01"}, types.ParamTo: {"2026-03-31"}}}
	rows, err := s.Page(ctx, "products", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "apple"}, titles(rows))

	n, err := s.Count(ctx, "products", q)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Count(ctx, "products", types.Query{})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestPageConcurrentQueries(t *testing.T) {
	s, _ := seededStore(t)
	q := types.Query{Sort: "title", End: 2}

	var wg sync.WaitGroup
	results := make([][]types.Row, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := s.Page(context.Background(), "products", q)
			assert.NoError(t, err)
			results[i] = rows
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, []string{"Apple", "apple"}, titles(r))
	}
}

func TestReattachReloadsJSONL(t *testing.T) {
	s, dir := seededStore(t)
	require.NoError(t, s.Detach())

	_, err := os.Stat(filepath.Join(dir, "products.rows.jsonl"))
	require.NoError(t, err)

	again := attachTestStore(t, dir)
	datasets, err := again.Datasets()
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "products", datasets[0].Name)
	assert.Equal(t, productSpecs, datasets[0].Columns)

	rows, err := again.Page(context.Background(), "products", types.Query{Sort: "title", End: -1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "apple", "banana", "cherry"}, titles(rows))

	// A further import continues the sequence after the reloaded rows.
	_, err = again.Import("products", strings.NewReader(`{"title":"date","quantity":9,"price":1}`+"\n"))
	require.NoError(t, err)
	rows, err = again.Page(context.Background(), "products", types.Query{End: -1})
	require.NoError(t, err)
	assert.Equal(t, "date", rows[4]["title"])
}

func TestImportFileLZ4(t *testing.T) {
	s := attachTestStore(t, t.TempDir())
	require.NoError(t, s.CreateDataset("products", productSpecs))

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write([]byte(productRows))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "rows.jsonl.lz4")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	res, err := s.ImportFile("products", path)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Imported)

	plain := filepath.Join(t.TempDir(), "rows.jsonl")
	require.NoError(t, os.WriteFile(plain, []byte(productRows), 0o644))
	res, err = s.ImportFile("products", plain)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Imported)

	_, err = s.ImportFile("products", filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}

func TestDropDataset(t *testing.T) {
	s, dir := seededStore(t)

	require.NoError(t, s.DropDataset("products"))
	_, err := s.Schema("products")
	assert.ErrorIs(t, err, types.ErrDatasetMissing)
	_, err = os.Stat(filepath.Join(dir, "products.rows.jsonl"))
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, s.DropDataset("products"), types.ErrDatasetMissing)
}

func TestDatasetSource(t *testing.T) {
	s, _ := seededStore(t)
	rows, err := s.Source("products").Fetch(context.Background(), types.Query{Sort: "quantity", Start: 0, End: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "apple"}, titles(rows))
}
