package table

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/olekukonko/ll"

	"github.com/mesh-intelligence/tablekit/internal/logging"
	"github.com/mesh-intelligence/tablekit/internal/view"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Outcome reports what a request did. Requests never return errors: failures
// are rolled back and reported as Failed.
type Outcome int

const (
	// Applied means the request changed state and the view.
	Applied Outcome = iota
	// Ignored means the request named an unknown or non-sortable column.
	Ignored
	// Busy means another fetch was in flight and the request was dropped.
	Busy
	// Exhausted means there are no more pages to load.
	Exhausted
	// Failed means the fetch failed and state was rolled back.
	Failed
	// Stale means the response arrived after a newer reset and was discarded.
	Stale
	// Queued means a reload was stored to run when the current fetch settles.
	Queued
	// Disposed means the table was disposed.
	Disposed
)

var outcomeNames = [...]string{"applied", "ignored", "busy", "exhausted", "failed", "stale", "queued", "disposed"}

// String returns the lower-case outcome name.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return fmt.Sprintf("outcome(%d)", int(o))
	}
	return outcomeNames[o]
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the trace logger. The default is disabled.
func WithLogger(l *ll.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithRows seeds the row buffer of a local table.
func WithRows(rows []types.Row) Option {
	return func(t *Table) {
		t.rows = slices.Clone(rows)
	}
}

// WithParams sets the filter params sent with every fetch.
func WithParams(params url.Values) Option {
	return func(t *Table) {
		t.params = cloneParams(params)
	}
}

type fetchKind int

const (
	fetchReplace fetchKind = iota
	fetchAppend
)

// snapshot holds everything a fetch may change before it settles.
type snapshot struct {
	sort      types.SortState
	page      types.PageState
	rows      []types.Row
	exhausted bool
	params    url.Values
}

type request struct {
	kind  fetchKind
	epoch uint64
	query types.Query
	prev  snapshot
}

type queuedReload struct {
	ctx    context.Context
	params url.Values
}

// Table is the table component. It owns the schema, sort and page state, the
// row buffer and the view. All methods are safe for concurrent use; at most
// one fetch is outstanding at any time.
type Table struct {
	mu     sync.Mutex
	schema *Schema
	mode   types.SortMode
	source Source
	logger *ll.Logger
	view   *view.View

	sort      types.SortState
	page      types.PageState
	rows      []types.Row
	exhausted bool
	params    url.Values

	inflight bool
	epoch    uint64
	pending  *queuedReload
	disposed bool
}

// New validates the schema and options and builds the table and its view.
// A remote table needs a source; a local table takes its rows from WithRows
// or, when a source is given, from Load.
func New(columns []types.Column, opts types.Options, source Source, options ...Option) (*Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validating options: %w", err)
	}
	schema, err := NewSchema(columns)
	if err != nil {
		return nil, fmt.Errorf("validating schema: %w", err)
	}
	if opts.Mode == types.ModeRemote && source == nil {
		return nil, types.ErrNoSource
	}

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = types.DefaultPageSize
	}
	linkPrefix := opts.LinkPrefix
	if linkPrefix == "" {
		linkPrefix = types.DefaultLinkPrefix
	}

	t := &Table{
		schema: schema,
		mode:   opts.Mode,
		source: source,
		logger: logging.Discard("table"),
		page:   types.PageState{PageSize: pageSize},
	}
	for _, o := range options {
		o(t)
	}

	switch {
	case opts.InitialSort != nil && opts.InitialSort.IsSorted():
		if _, err := schema.Sortable(opts.InitialSort.ColumnID); err != nil {
			return nil, fmt.Errorf("initial sort: %w", err)
		}
		t.sort = *opts.InitialSort
	case opts.Mode == types.ModeRemote:
		t.sort = schema.DefaultSort()
	}

	t.view = view.New(schema.Columns(), linkPrefix)
	if t.mode == types.ModeLocal {
		if t.sort.IsSorted() {
			t.rows = schema.SortLocally(t.rows, t.sort.ColumnID, t.sort.Direction)
		}
		t.exhausted = true
		t.view.SetSortIndicator(t.sort)
		t.view.ReplaceBody(t.rows)
	}
	return t, nil
}

// Load fetches the first page under the current sort, replacing the buffer.
// A local table with a source fetches every row once.
func (t *Table) Load(ctx context.Context) Outcome {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return Disposed
	}
	if t.source == nil {
		t.mu.Unlock()
		return Applied
	}
	if t.inflight {
		t.mu.Unlock()
		return Busy
	}
	req := t.beginReset()
	t.mu.Unlock()
	return t.run(ctx, req)
}

// started is a request after its synchronous phase: either already settled
// with outcome, or waiting on the fetch in req.
type started struct {
	outcome Outcome
	req     *request
}

func settled(o Outcome) started { return started{outcome: o} }

// finish runs the fetch of s, if any.
func (t *Table) finish(ctx context.Context, s started) Outcome {
	if s.req == nil {
		return s.outcome
	}
	return t.run(ctx, *s.req)
}

// RequestSort sorts by columnID in dir. Local tables re-sort the buffer in
// place. Remote tables reset to page 1 and fetch it under the new sort; the
// buffer is replaced when the page arrives.
func (t *Table) RequestSort(ctx context.Context, columnID string, dir types.Direction) Outcome {
	t.mu.Lock()
	s := t.startSort(columnID, dir)
	t.mu.Unlock()
	return t.finish(ctx, s)
}

// ToggleSort applies a header activation on columnID: the active column flips
// direction, any other sortable column becomes active ascending.
func (t *Table) ToggleSort(ctx context.Context, columnID string) Outcome {
	return t.finish(ctx, t.startToggle(columnID))
}

func (t *Table) startToggle(columnID string) started {
	t.mu.Lock()
	defer t.mu.Unlock()
	dir := types.Asc
	if t.sort.ColumnID == columnID {
		dir = t.sort.Direction.Flip()
	}
	return t.startSort(columnID, dir)
}

// startSort applies a local sort or begins a remote one. Callers hold t.mu.
func (t *Table) startSort(columnID string, dir types.Direction) started {
	if t.disposed {
		return settled(Disposed)
	}
	col, err := t.schema.Sortable(columnID)
	if err != nil {
		return settled(Ignored)
	}
	if t.inflight {
		return settled(Busy)
	}

	if t.mode == types.ModeLocal {
		t.rows = SortRows(t.rows, col, dir)
		t.sort = types.SortState{ColumnID: col.ID, Direction: dir}
		t.view.SetSortIndicator(t.sort)
		t.view.ReplaceBody(t.rows)
		return settled(Applied)
	}

	prev := t.snapshot()
	t.sort = types.SortState{ColumnID: col.ID, Direction: dir}
	req := t.beginReset()
	req.prev = prev
	return started{req: &req}
}

// RequestNextPage fetches the window after the loaded pages and appends it.
// It is dropped while a fetch is in flight and once a short page has been
// received. Local tables hold every row already and report Exhausted.
func (t *Table) RequestNextPage(ctx context.Context) Outcome {
	return t.finish(ctx, t.startNextPage())
}

func (t *Table) startNextPage() started {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.disposed:
		return settled(Disposed)
	case t.mode == types.ModeLocal:
		return settled(Exhausted)
	case t.inflight:
		return settled(Busy)
	case t.exhausted:
		return settled(Exhausted)
	}

	prev := t.snapshot()
	kind := fetchAppend
	if t.page.LoadedPages == 0 {
		kind = fetchReplace
	}
	start, end := t.page.NextWindow()
	t.page.LoadedPages++
	req := t.begin(kind, prev, start, end)
	return started{req: &req}
}

// Reload replaces the filter params and reloads page 1 sorted by the first
// sortable column. While a fetch is in flight the reload is queued: the
// outstanding response becomes stale and the reload runs once it settles. A
// later Reload supersedes a queued one.
func (t *Table) Reload(ctx context.Context, params url.Values) Outcome {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return Disposed
	}
	if t.source == nil {
		t.mu.Unlock()
		return Ignored
	}
	if t.inflight {
		t.pending = &queuedReload{ctx: ctx, params: cloneParams(params)}
		t.epoch++
		t.mu.Unlock()
		return Queued
	}
	req := t.beginReload(params)
	t.mu.Unlock()
	return t.run(ctx, req)
}

// Dispose detaches the view and turns every later request into a no-op.
// A fetch in flight is discarded on arrival. Idempotent.
func (t *Table) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}
	t.disposed = true
	t.epoch++
	t.pending = nil
	t.rows = nil
	t.view.Detach()
}

// beginReset resets to page 1 under the current sort. Callers hold t.mu.
func (t *Table) beginReset() request {
	prev := t.snapshot()
	t.page.LoadedPages = 1
	t.rows = nil
	t.exhausted = false
	if t.mode == types.ModeLocal {
		return t.begin(fetchReplace, prev, 0, -1)
	}
	return t.begin(fetchReplace, prev, 0, t.page.PageSize)
}

// beginReload swaps the params and resets to the default sort. Callers hold t.mu.
func (t *Table) beginReload(params url.Values) request {
	prev := t.snapshot()
	t.params = cloneParams(params)
	t.sort = t.schema.DefaultSort()
	req := t.beginReset()
	req.prev = prev
	return req
}

// begin marks a fetch in flight and captures the epoch. Resets bump the
// epoch first. Callers hold t.mu.
func (t *Table) begin(kind fetchKind, prev snapshot, start, end int) request {
	if kind == fetchReplace {
		t.epoch++
	}
	t.inflight = true
	return request{
		kind:  kind,
		epoch: t.epoch,
		prev:  prev,
		query: types.Query{
			Sort:   t.sort.ColumnID,
			Order:  t.sort.Direction,
			Start:  start,
			End:    end,
			Params: cloneParams(t.params),
		},
	}
}

// run performs the fetch with the lock released, settles it, then runs any
// reload queued meanwhile.
func (t *Table) run(ctx context.Context, req request) Outcome {
	rows, err := t.source.Fetch(ctx, req.query)

	t.mu.Lock()
	outcome := t.settle(req, rows, err)
	next, nextCtx := t.dequeue()
	t.mu.Unlock()

	if next != nil {
		t.run(nextCtx, *next)
	}
	return outcome
}

// settle applies or rolls back a finished fetch. Callers hold t.mu.
func (t *Table) settle(req request, rows []types.Row, err error) Outcome {
	t.inflight = false

	if t.disposed {
		t.logger.Debugf("discarding response: %v", types.ErrDisposed)
		return Disposed
	}
	if req.epoch != t.epoch {
		t.restore(req.prev)
		t.logger.Debugf("discarding response [%d, %d): %v", req.query.Start, req.query.End, types.ErrStaleResponse)
		return Stale
	}
	if err != nil {
		t.restore(req.prev)
		t.logger.Warnf("fetch [%d, %d) sort %s failed, state rolled back: %v",
			req.query.Start, req.query.End, req.query.Sort, err)
		return Failed
	}

	if t.mode == types.ModeLocal {
		t.rows = slices.Clone(rows)
		if t.sort.IsSorted() {
			t.rows = t.schema.SortLocally(t.rows, t.sort.ColumnID, t.sort.Direction)
		}
		t.exhausted = true
		t.view.SetSortIndicator(t.sort)
		t.view.ReplaceBody(t.rows)
		return Applied
	}

	t.exhausted = len(rows) < t.page.PageSize
	switch req.kind {
	case fetchReplace:
		t.rows = slices.Clone(rows)
		t.view.SetSortIndicator(t.sort)
		t.view.ReplaceBody(t.rows)
	case fetchAppend:
		if len(rows) == 0 {
			t.page.LoadedPages--
			return Exhausted
		}
		t.rows = append(t.rows, rows...)
		t.view.AppendBody(rows)
	}
	return Applied
}

// dequeue starts the queued reload, if any. Callers hold t.mu.
func (t *Table) dequeue() (*request, context.Context) {
	if t.pending == nil || t.disposed || t.inflight {
		return nil, nil
	}
	q := t.pending
	t.pending = nil
	req := t.beginReload(q.params)
	return &req, q.ctx
}

func (t *Table) snapshot() snapshot {
	return snapshot{
		sort:      t.sort,
		page:      t.page,
		rows:      t.rows,
		exhausted: t.exhausted,
		params:    t.params,
	}
}

func (t *Table) restore(s snapshot) {
	t.sort = s.sort
	t.page = s.page
	t.rows = s.rows
	t.exhausted = s.exhausted
	t.params = s.params
}

// Rows returns a copy of the row buffer.
func (t *Table) Rows() []types.Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.rows)
}

// SortState returns the current sort.
func (t *Table) SortState() types.SortState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sort
}

// PageState returns the current page window.
func (t *Table) PageState() types.PageState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.page
}

// Params returns a copy of the filter params.
func (t *Table) Params() url.Values {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneParams(t.params)
}

// Exhausted reports whether the last page has been received.
func (t *Table) Exhausted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exhausted
}

// InFlight reports whether a fetch is outstanding.
func (t *Table) InFlight() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight
}

// Disposed reports whether Dispose has been called.
func (t *Table) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// Mode returns the sort mode.
func (t *Table) Mode() types.SortMode {
	return t.mode
}

// Schema returns the table's schema.
func (t *Table) Schema() *Schema {
	return t.schema
}

// ReadView calls fn with the view while holding the table lock. fn must not
// call back into the table.
func (t *Table) ReadView(fn func(v *view.View)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.view)
}

// HeaderCell returns the header cell node of a column, or nil.
func (t *Table) HeaderCell(columnID string) *types.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return nil
	}
	return t.view.HeaderCell(columnID)
}

// ColumnAt returns the column id of the header cell enclosing n.
func (t *Table) ColumnAt(n *types.Node) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed || n == nil || !t.view.InHeader(n) {
		return "", false
	}
	cell := n.Closest(view.AttrID)
	if cell == nil {
		return "", false
	}
	return cell.Attr(view.AttrID)
}

// Activate publishes a header activation gesture on target. Targets outside
// the header region are ignored. It returns the number of handlers notified.
func (t *Table) Activate(target *types.Node) int {
	t.mu.Lock()
	if t.disposed || target == nil || !t.view.InHeader(target) {
		t.mu.Unlock()
		return 0
	}
	feed := t.view.Activations()
	t.mu.Unlock()
	return feed.Publish(view.Activation{Target: target})
}

func (t *Table) subscribeActivations(fn func(view.Activation)) (unsubscribe func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.disposed {
		return func() {}, false
	}
	sub := t.view.Activations().Subscribe(fn)
	return sub.Unsubscribe, true
}

func cloneParams(p url.Values) url.Values {
	if p == nil {
		return nil
	}
	out := make(url.Values, len(p))
	for k, vs := range p {
		out[k] = slices.Clone(vs)
	}
	return out
}
