package table

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tablekit/pkg/types"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func productColumns() []types.Column {
	return []types.Column{
		{ID: "name", Title: "Name", Sortable: true},
		{ID: "qty", Title: "Quantity", Sortable: true, SortKind: types.SortNumber},
		{ID: "note", Title: "Note"},
	}
}

func numberedRows(n int) []types.Row {
	rows := make([]types.Row, n)
	for i := range rows {
		rows[i] = types.Row{"id": fmt.Sprintf("p%d", i), "name": fmt.Sprintf("item-%02d", i), "qty": i}
	}
	return rows
}

// recordingSource serves a MemorySource and records every query.
type recordingSource struct {
	mu      sync.Mutex
	backing Source
	queries []types.Query
	fail    error
}

func newRecordingSource(t *testing.T, rows []types.Row) *recordingSource {
	t.Helper()
	schema, err := NewSchema(productColumns())
	require.NoError(t, err)
	return &recordingSource{backing: NewMemorySource(schema, rows)}
}

func (s *recordingSource) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return s.backing.Fetch(ctx, q)
}

func (s *recordingSource) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *recordingSource) calls() []types.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Query(nil), s.queries...)
}

// gatedSource blocks every fetch until the test releases it with an error
// (nil for success).
type gatedSource struct {
	backing Source
	started chan types.Query
	release chan error
}

func newGatedSource(t *testing.T, rows []types.Row) *gatedSource {
	t.Helper()
	schema, err := NewSchema(productColumns())
	require.NoError(t, err)
	return &gatedSource{
		backing: NewMemorySource(schema, rows),
		started: make(chan types.Query, 16),
		release: make(chan error),
	}
}

func (s *gatedSource) Fetch(ctx context.Context, q types.Query) ([]types.Row, error) {
	s.started <- q
	if err := <-s.release; err != nil {
		return nil, err
	}
	return s.backing.Fetch(ctx, q)
}

func newRemoteTable(t *testing.T, src Source, pageSize int, options ...Option) *Table {
	t.Helper()
	tbl, err := New(productColumns(), types.Options{PageSize: pageSize, Mode: types.ModeRemote}, src, options...)
	require.NoError(t, err)
	return tbl
}

func names(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprint(r["name"])
	}
	return out
}
