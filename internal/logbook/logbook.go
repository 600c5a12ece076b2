// Package logbook records observations (browser log lines, HTTP requests)
// and lets callers block until one matching a predicate shows up.
//
// Every entry is handed out by WaitFor at most once unless the caller asks to
// include entries that were already waited for. This lets a scenario wait for
// the same message twice and get two distinct occurrences.
package logbook

import (
	"context"
	"errors"
	"sync"
)

// ErrTimeout is returned by WaitFor when the context expires before a
// matching entry is recorded.
var ErrTimeout = errors.New("timed out waiting for entry")

// Entry is a snapshot of a recorded value together with its bookkeeping flags.
type Entry[T any] struct {
	ID        int
	Value     T
	WaitedFor bool
	Expected  bool
}

type record[T any] struct {
	value     T
	waitedFor bool
	expected  bool
}

// Book is an append-only, concurrency-safe list of observations.
type Book[T any] struct {
	mu      sync.Mutex
	records []*record[T]
	// base is the ID of records[0]; IDs keep growing across Clear.
	base   int
	notify chan struct{}
}

// New creates an empty Book.
func New[T any]() *Book[T] {
	return &Book[T]{notify: make(chan struct{})}
}

// Append records v and wakes up all waiters. It returns the entry ID.
func (b *Book[T]) Append(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, &record[T]{value: v})
	close(b.notify)
	b.notify = make(chan struct{})
	return b.base + len(b.records) - 1
}

// Len returns the number of entries recorded since the last Clear.
func (b *Book[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Clear forgets all entries. Waiters keep waiting for new ones.
func (b *Book[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.base += len(b.records)
	b.records = nil
}

// Entries returns a snapshot of all entries in recording order.
func (b *Book[T]) Entries() []Entry[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry[T], 0, len(b.records))
	for i, r := range b.records {
		out = append(out, b.snapshot(i, r))
	}
	return out
}

// Values returns the recorded values in order.
func (b *Book[T]) Values() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]T, 0, len(b.records))
	for _, r := range b.records {
		out = append(out, r.value)
	}
	return out
}

// WaitFor returns the first entry matching match that has not been handed
// out yet, marking it as waited for. With includeWaited set, entries already
// handed out are considered as well. If no entry matches, WaitFor blocks
// until a new one arrives or ctx is done.
func (b *Book[T]) WaitFor(ctx context.Context, match func(T) bool, includeWaited bool) (Entry[T], error) {
	for {
		b.mu.Lock()
		for i, r := range b.records {
			if r.waitedFor && !includeWaited {
				continue
			}
			if match(r.value) {
				r.waitedFor = true
				e := b.snapshot(i, r)
				b.mu.Unlock()
				return e, nil
			}
		}
		notify := b.notify
		b.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return Entry[T]{}, ErrTimeout
			}
			return Entry[T]{}, ctx.Err()
		}
	}
}

// WaitForCount blocks until at least n entries are recorded.
func (b *Book[T]) WaitForCount(ctx context.Context, n int) error {
	for {
		b.mu.Lock()
		have := len(b.records)
		notify := b.notify
		b.mu.Unlock()

		if have >= n {
			return nil
		}

		select {
		case <-notify:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimeout
			}
			return ctx.Err()
		}
	}
}

// Expect flags the entry with the given ID as expected. It reports whether
// the entry still exists.
func (b *Book[T]) Expect(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := id - b.base
	if idx < 0 || idx >= len(b.records) {
		return false
	}
	b.records[idx].expected = true
	return true
}

// Unexpected returns entries satisfying pred that were not flagged expected.
func (b *Book[T]) Unexpected(pred func(T) bool) []Entry[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Entry[T]
	for i, r := range b.records {
		if !r.expected && pred(r.value) {
			out = append(out, b.snapshot(i, r))
		}
	}
	return out
}

// snapshot must be called with b.mu held.
func (b *Book[T]) snapshot(i int, r *record[T]) Entry[T] {
	return Entry[T]{
		ID:        b.base + i,
		Value:     r.value,
		WaitedFor: r.waitedFor,
		Expected:  r.expected,
	}
}
