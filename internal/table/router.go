package table

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/tablekit/internal/event"
	"github.com/mesh-intelligence/tablekit/internal/view"
)

// DefaultScrollThreshold is the distance from the end of the content, in
// the scroll source's units, at which the next page is requested.
const DefaultScrollThreshold = 100

// ScrollEvent is one scroll position report from the table's scroll
// container.
type ScrollEvent struct {
	Offset         int
	ViewportHeight int
	ContentHeight  int
}

// NearEnd reports whether the viewport bottom is within threshold of the
// content end.
func (e ScrollEvent) NearEnd(threshold int) bool {
	return e.ContentHeight-(e.Offset+e.ViewportHeight) <= threshold
}

// Trigger names what caused a routed request.
type Trigger int

const (
	// TriggerSort is a header activation.
	TriggerSort Trigger = iota
	// TriggerPage is a scroll-proximity signal.
	TriggerPage
)

// String returns "sort" or "page".
func (tr Trigger) String() string {
	if tr == TriggerPage {
		return "page"
	}
	return "sort"
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithScrollFeed subscribes the router to a scroll source.
func WithScrollFeed(f *event.Feed[ScrollEvent]) RouterOption {
	return func(r *Router) {
		r.scrollFeed = f
	}
}

// WithScrollThreshold overrides DefaultScrollThreshold.
func WithScrollThreshold(n int) RouterOption {
	return func(r *Router) {
		if n >= 0 {
			r.threshold = n
		}
	}
}

// WithOutcomeHandler is called after every routed request settles. Requests
// that need no fetch report on the publisher's goroutine, the rest on the
// fetch goroutine.
func WithOutcomeHandler(fn func(Trigger, Outcome)) RouterOption {
	return func(r *Router) {
		r.onOutcome = fn
	}
}

// Router maps header activations and scroll signals onto table requests. It
// holds one delegated subscription on the header region and one on the
// scroll feed. Requests start in issue order; fetches run on their own
// goroutines and a request arriving while one is in flight is dropped.
type Router struct {
	table      *Table
	scrollFeed *event.Feed[ScrollEvent]
	threshold  int
	onOutcome  func(Trigger, Outcome)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	unsubs   []func()
	disposer sync.Once
}

// NewRouter subscribes to the table's header region and, when configured,
// the scroll feed. Requests run under ctx until Dispose.
func NewRouter(ctx context.Context, t *Table, opts ...RouterOption) *Router {
	r := &Router{table: t, threshold: DefaultScrollThreshold}
	for _, o := range opts {
		o(r)
	}
	r.ctx, r.cancel = context.WithCancel(ctx)

	if unsub, ok := t.subscribeActivations(r.onActivate); ok {
		r.unsubs = append(r.unsubs, unsub)
	}
	if r.scrollFeed != nil {
		sub := r.scrollFeed.Subscribe(r.onScroll)
		r.unsubs = append(r.unsubs, sub.Unsubscribe)
	}
	return r
}

func (r *Router) onActivate(a view.Activation) {
	id, ok := r.table.ColumnAt(a.Target)
	if !ok {
		return
	}
	r.dispatch(TriggerSort, func() started { return r.table.startToggle(id) })
}

func (r *Router) onScroll(e ScrollEvent) {
	if !e.NearEnd(r.threshold) {
		return
	}
	r.dispatch(TriggerPage, r.table.startNextPage)
}

// dispatch starts a request on the publisher's goroutine under r.mu, so
// requests take effect in the order they were issued. Only the fetch, if
// one is needed, runs on its own goroutine.
func (r *Router) dispatch(tr Trigger, start func() started) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	s := start()
	if s.req == nil {
		r.mu.Unlock()
		r.report(tr, s.outcome)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.report(tr, r.table.run(r.ctx, *s.req))
	}()
}

func (r *Router) report(tr Trigger, o Outcome) {
	if r.onOutcome != nil {
		r.onOutcome(tr, o)
	}
}

// Wait blocks until every routed request has settled.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Dispose releases both subscriptions, cancels outstanding requests, waits
// for them and disposes the table. Idempotent.
func (r *Router) Dispose() {
	r.disposer.Do(func() {
		r.mu.Lock()
		r.closed = true
		unsubs := r.unsubs
		r.unsubs = nil
		r.mu.Unlock()

		for _, u := range unsubs {
			u()
		}
		r.cancel()
		r.wg.Wait()
		r.table.Dispose()
	})
}
