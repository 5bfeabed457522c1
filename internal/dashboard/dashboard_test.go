package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/internal/event"
	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

type recorder struct {
	mu      sync.Mutex
	queries []types.Query
	fail    bool
}

func (r *recorder) Fetch(_ context.Context, q types.Query) ([]types.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.fail {
		return nil, errors.New("boom")
	}
	return []types.Row{{"title": "a", "qty": 1}}, nil
}

func (r *recorder) last() types.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

func newTable(t *testing.T, src table.Source, cols []types.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols, types.Options{PageSize: 10}, src)
	require.NoError(t, err)
	return tbl
}

var (
	productCols = []types.Column{{ID: "title", Sortable: true}, {ID: "qty", Sortable: true, SortKind: types.SortNumber}}
	orderCols   = []types.Column{{ID: "note"}, {ID: "qty", Sortable: true, SortKind: types.SortNumber}}
	rng         = Range{
		From: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
)

func TestSelectRangeReloadsEveryTable(t *testing.T) {
	ctx := context.Background()
	products, orders := &recorder{}, &recorder{}
	pt, ot := newTable(t, products, productCols), newTable(t, orders, orderCols)
	require.Equal(t, table.Applied, pt.RequestSort(ctx, "qty", types.Desc))

	d := New(nil)
	d.Add("products", pt)
	d.Add("orders", ot)
	assert.Equal(t, []string{"products", "orders"}, d.Tables())

	outcomes, err := d.SelectRange(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, map[string]table.Outcome{"products": table.Applied, "orders": table.Applied}, outcomes)

	q := products.last()
	assert.Equal(t, "title", q.Sort, "reload sorts by the first sortable column")
	assert.Equal(t, types.Asc, q.Order)
	assert.Equal(t, "2026-01-01", q.Params.Get("from"))
	assert.Equal(t, "2026-01-31", q.Params.Get("to"))
	assert.Equal(t, "qty", orders.last().Sort)
}

func TestSelectRangeReportsFailures(t *testing.T) {
	ok, bad := &recorder{}, &recorder{fail: true}
	d := New(nil)
	d.Add("ok", newTable(t, ok, productCols))
	d.Add("bad", newTable(t, bad, productCols))

	outcomes, err := d.SelectRange(context.Background(), rng)
	require.ErrorIs(t, err, ErrReloadFailed)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, table.Applied, outcomes["ok"])
	assert.Equal(t, table.Failed, outcomes["bad"])
}

func TestSelectRangeJoinsEveryFailure(t *testing.T) {
	d := New(nil)
	d.Add("products", newTable(t, &recorder{fail: true}, productCols))
	d.Add("orders", newTable(t, &recorder{fail: true}, orderCols))

	_, err := d.SelectRange(context.Background(), rng)
	require.ErrorIs(t, err, ErrReloadFailed)
	assert.Contains(t, err.Error(), "products")
	assert.Contains(t, err.Error(), "orders")
}

// gate blocks fetches until released.
type gate struct {
	recorder
	started chan struct{}
	release chan struct{}
}

func (g *gate) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	g.started <- struct{}{}
	<-g.release
	return g.recorder.Fetch(ctx, q)
}

func TestSelectRangeQueuesBehindInFlightFetch(t *testing.T) {
	ctx := context.Background()
	src := &gate{started: make(chan struct{}, 2), release: make(chan struct{}, 2)}
	tbl := newTable(t, src, productCols)

	loaded := make(chan table.Outcome, 1)
	go func() { loaded <- tbl.Load(ctx) }()
	<-src.started

	d := New(nil)
	d.Add("products", tbl)
	outcomes, err := d.SelectRange(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, table.Queued, outcomes["products"])

	src.release <- struct{}{}
	<-src.started
	src.release <- struct{}{}
	assert.Equal(t, table.Stale, <-loaded, "the load is superseded by the queued reload")
	assert.Equal(t, "2026-01-01", src.last().Params.Get("from"))
}

func TestListenAndDispose(t *testing.T) {
	src := &recorder{}
	tbl := newTable(t, src, productCols)
	d := New(nil)
	d.SetLayout(time.RFC3339)
	d.Add("products", tbl)

	var feed event.Feed[Range]
	sub := d.Listen(context.Background(), &feed)
	feed.Publish(rng)
	assert.Equal(t, "2026-01-01T00:00:00Z", src.last().Params.Get("from"))

	sub.Unsubscribe()
	d.Dispose()
	assert.True(t, tbl.Disposed())
	assert.Equal(t, 0, feed.Publish(rng))
}
