package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

type fakeServer struct {
	mu      sync.Mutex
	queries []url.Values
	status  int
	rows    []map[string]any
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	status, rows := f.status, f.rows
	f.mu.Unlock()

	switch r.URL.Path {
	case "/api/datasets/products/schema":
		json.NewEncoder(w).Encode([]types.ColumnSpec{
			{ID: "title", Title: "Name", Sortable: true},
			{ID: "price", Title: "Price", Sortable: true, SortKind: "number", Render: "money"},
		})
		return
	case "/api/datasets/products/rows":
	default:
		http.NotFound(w, r)
		return
	}
	if status != 0 {
		http.Error(w, "unavailable", status)
		return
	}
	q, err := types.ParseQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	end := len(rows)
	if q.End >= 0 && q.End < end {
		end = q.End
	}
	start := min(q.Start, end)
	json.NewEncoder(w).Encode(rows[start:end])
}

func (f *fakeServer) setStatus(s int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = s
}

func (f *fakeServer) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{}
	for i := range 5 {
		f.rows = append(f.rows, map[string]any{"id": i, "title": string(rune('a' + i)), "price": i * 10})
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestFetchJSON(t *testing.T) {
	f, srv := newFakeServer(t)
	ctx := context.Background()

	var rows []types.Row
	require.NoError(t, FetchJSON(ctx, nil, srv.URL+"/api/datasets/products/rows?start=0&end=2", &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, json.Number("10"), rows[1]["price"])

	err := FetchJSON(ctx, srv.Client(), srv.URL+"/missing", &rows)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)

	f.setStatus(http.StatusServiceUnavailable)
	err = FetchJSON(ctx, srv.Client(), srv.URL+"/api/datasets/products/rows", &rows)
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
	assert.Contains(t, httpErr.Error(), "unavailable")
}

func TestFetchJSONTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	var rows []types.Row
	err := FetchJSON(context.Background(), nil, srv.URL, &rows)
	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

func TestSourceURL(t *testing.T) {
	s, err := NewSource(nil, "http://example.test/api/datasets/products/rows?embed=category")
	require.NoError(t, err)

	got, err := url.Parse(s.URL(types.Query{
		Sort: "price", Order: types.Desc, Start: 30, End: 60,
		Params: url.Values{"from": {"2026-01-01"}},
	}))
	require.NoError(t, err)
	q := got.Query()
	assert.Equal(t, "price", q.Get("sort"))
	assert.Equal(t, "desc", q.Get("order"))
	assert.Equal(t, "30", q.Get("start"))
	assert.Equal(t, "60", q.Get("end"))
	assert.Equal(t, "2026-01-01", q.Get("from"))
	assert.Equal(t, "category", q.Get("embed"))

	_, err = NewSource(nil, "/relative")
	assert.Error(t, err)
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "http://h:1/api/datasets/my%20set/rows", DatasetEndpoint("http://h:1/", "my set"))
	assert.Equal(t, "http://h:1/api/datasets/p/schema", SchemaEndpoint("http://h:1", "p"))
}

func TestSourceDrivesTable(t *testing.T) {
	f, srv := newFakeServer(t)
	ctx := context.Background()

	cols, err := FetchSchema(ctx, srv.Client(), srv.URL, "products")
	require.NoError(t, err)
	require.Len(t, cols, 2)

	src, err := NewSource(srv.Client(), DatasetEndpoint(srv.URL, "products"))
	require.NoError(t, err)
	tbl, err := table.New(cols, types.Options{PageSize: 2}, src)
	require.NoError(t, err)

	require.Equal(t, table.Applied, tbl.RequestNextPage(ctx))
	q := f.lastQuery()
	assert.Equal(t, "title", q.Get("sort"))
	assert.Equal(t, "asc", q.Get("order"))
	assert.Equal(t, "0", q.Get("start"))
	assert.Equal(t, "2", q.Get("end"))

	f.setStatus(http.StatusInternalServerError)
	before := tbl.Rows()
	assert.Equal(t, table.Failed, tbl.RequestNextPage(ctx))
	assert.Equal(t, before, tbl.Rows())
	assert.Equal(t, 1, tbl.PageState().LoadedPages)

	f.setStatus(0)
	require.Equal(t, table.Applied, tbl.RequestNextPage(ctx))
	require.Equal(t, table.Applied, tbl.RequestNextPage(ctx))
	assert.Len(t, tbl.Rows(), 5)
	assert.True(t, tbl.Exhausted())
}

func TestFetchSchemaMissingDataset(t *testing.T) {
	_, srv := newFakeServer(t)
	_, err := FetchSchema(context.Background(), srv.Client(), srv.URL, "orders")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
}
