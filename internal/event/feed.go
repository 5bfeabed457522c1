// Package event provides the explicit publish/subscribe handles the table
// uses for header activation and scroll-proximity signals.
package event

import "sync"

// Subscription is a handle returned by Feed.Subscribe.
type Subscription interface {
	// Unsubscribe stops delivery. Idempotent.
	Unsubscribe()
}

// Feed delivers values to subscribers synchronously, in subscription order.
// The zero value is ready to use.
type Feed[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(T)
	order  []uint64
	closed bool
}

// Subscribe registers fn. After Close, Subscribe returns a no-op handle.
func (f *Feed[T]) Subscribe(fn func(T)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return &sub[T]{}
	}
	if f.subs == nil {
		f.subs = make(map[uint64]func(T))
	}
	f.nextID++
	id := f.nextID
	f.subs[id] = fn
	f.order = append(f.order, id)
	return &sub[T]{feed: f, id: id}
}

// Publish calls every subscriber with v and returns how many were called.
// Subscribers run outside the feed lock and may unsubscribe themselves.
func (f *Feed[T]) Publish(v T) int {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return 0
	}
	handlers := make([]func(T), 0, len(f.order))
	for _, id := range f.order {
		handlers = append(handlers, f.subs[id])
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(v)
	}
	return len(handlers)
}

// Len returns the number of live subscriptions.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close drops every subscription; later Publish calls deliver nothing.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.subs = nil
	f.order = nil
}

func (f *Feed[T]) remove(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[id]; !ok {
		return
	}
	delete(f.subs, id)
	for i, o := range f.order {
		if o == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

type sub[T any] struct {
	once sync.Once
	feed *Feed[T]
	id   uint64
}

func (s *sub[T]) Unsubscribe() {
	s.once.Do(func() {
		if s.feed != nil {
			s.feed.remove(s.id)
		}
	})
}
