package repository

import (
	"context"
	"sync"

	"github.com/office/restobook/store"
)

// Feed is a live, typed view over a query: each receive on Updates is a
// complete snapshot of the current result set. Snapshots are conflated
// (a slow consumer sees the latest state). Updates closes on Cancel or
// on a terminal store error, reported by Err. An abandoned Feed must be
// cancelled or the underlying store listener leaks.
type Feed[T any] struct {
	updates chan []T
	stop    func()

	mu     sync.Mutex
	err    error
	closed bool
}

// NewFeed builds a feed whose snapshots are pushed via Emit. stop runs
// once, when the feed is cancelled or failed.
func NewFeed[T any](stop func()) *Feed[T] {
	return &Feed[T]{
		updates: make(chan []T, 1),
		stop:    stop,
	}
}

func (f *Feed[T]) Updates() <-chan []T {
	return f.updates
}

// Err reports the terminal error, if any, once Updates is closed.
func (f *Feed[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed[T]) Cancel() {
	f.close(nil)
}

// Emit publishes a snapshot, replacing any undelivered one.
func (f *Feed[T]) Emit(items []T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case <-f.updates:
	default:
	}
	f.updates <- items
}

// Fail closes the feed with a terminal error.
func (f *Feed[T]) Fail(err error) {
	f.close(err)
}

func (f *Feed[T]) close(err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.err = err
	close(f.updates)
	f.mu.Unlock()

	if f.stop != nil {
		f.stop()
	}
}

// watch subscribes to a query and decodes every snapshot into T,
// optionally reshaping it (client-side sorting) before delivery.
// Cancelling the feed releases the underlying store listener.
func watch[T any](ctx context.Context, q store.Query, transform func([]T) []T) (*Feed[T], error) {
	sub, err := q.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	feed := NewFeed[T](sub.Cancel)
	go func() {
		for docs := range sub.Updates() {
			items, err := decodeDocs[T](docs)
			if err != nil {
				feed.Fail(err)
				return
			}
			if transform != nil {
				items = transform(items)
			}
			feed.Emit(items)
		}
		feed.Fail(sub.Err())
	}()
	return feed, nil
}
