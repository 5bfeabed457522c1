// Package dashboard composes tables on one page and relays a date-range
// selection to each of them.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/olekukonko/ll"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/tablekit/internal/event"
	"github.com/mesh-intelligence/tablekit/internal/logging"
	"github.com/mesh-intelligence/tablekit/internal/table"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// ErrReloadFailed is returned when a table could not be reloaded for a range.
var ErrReloadFailed = errors.New("reload failed")

// Range is a selected date range, both ends inclusive.
type Range struct {
	From time.Time
	To   time.Time
}

// Params encodes the range as from/to filter params in layout.
func (r Range) Params(layout string) url.Values {
	return url.Values{
		types.ParamFrom: {r.From.Format(layout)},
		types.ParamTo:   {r.To.Format(layout)},
	}
}

type entry struct {
	name  string
	table *table.Table
}

// Dashboard holds the tables of one page.
type Dashboard struct {
	mu      sync.Mutex
	entries []entry
	layout  string
	logger  *ll.Logger
}

// New returns an empty dashboard. Ranges are formatted with time.DateOnly.
// A nil logger disables tracing.
func New(logger *ll.Logger) *Dashboard {
	if logger == nil {
		logger = logging.Discard("dashboard")
	}
	return &Dashboard{layout: time.DateOnly, logger: logger}
}

// SetLayout changes the time layout used for range params.
func (d *Dashboard) SetLayout(layout string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layout = layout
}

// Add registers a table under name.
func (d *Dashboard) Add(name string, t *table.Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry{name: name, table: t})
}

// Tables returns the registered table names in order.
func (d *Dashboard) Tables() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, len(d.entries))
	for i, e := range d.entries {
		names[i] = e.name
	}
	return names
}

// SelectRange reloads every table with the range params concurrently and
// waits for the reloads it started. A table with a fetch in flight reports
// Queued instead: its reload runs once that fetch settles, which may be after
// SelectRange has returned, and a failure there shows only in the table's
// state. The
// returned error joins every failed reload.
func (d *Dashboard) SelectRange(ctx context.Context, r Range) (map[string]table.Outcome, error) {
	d.mu.Lock()
	entries := append([]entry(nil), d.entries...)
	params := r.Params(d.layout)
	d.mu.Unlock()

	var (
		mu       sync.Mutex
		outcomes = make(map[string]table.Outcome, len(entries))
		failed   []error
		g        errgroup.Group
	)
	for _, e := range entries {
		g.Go(func() error {
			o := e.table.Reload(ctx, params)
			mu.Lock()
			defer mu.Unlock()
			outcomes[e.name] = o
			if o != table.Failed {
				return nil
			}
			err := fmt.Errorf("%s: %w", e.name, ErrReloadFailed)
			failed = append(failed, err)
			return err
		})
	}
	// Wait reports only the first failure; failed holds all of them.
	if err := g.Wait(); err != nil {
		d.logger.Debugf("range %s..%s: %v", params.Get(types.ParamFrom), params.Get(types.ParamTo), err)
	}

	d.logger.Debugf("range %s..%s relayed to %d tables", params.Get(types.ParamFrom), params.Get(types.ParamTo), len(entries))
	return outcomes, errors.Join(failed...)
}

// Listen relays every range published on feed to SelectRange, on the
// publisher's goroutine. Unsubscribe the returned handle to stop.
func (d *Dashboard) Listen(ctx context.Context, feed *event.Feed[Range]) event.Subscription {
	return feed.Subscribe(func(r Range) {
		if _, err := d.SelectRange(ctx, r); err != nil {
			d.logger.Warnf("range reload: %v", err)
		}
	})
}

// Dispose disposes every table.
func (d *Dashboard) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.entries {
		e.table.Dispose()
	}
}
