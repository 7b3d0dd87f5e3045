package service

import (
	"context"
	"sync"
)

// Lazy initializes a value once on first use. Concurrent first callers wait for the one
// in-flight load, or give up when their own context ends. A failed load is not cached: the
// next Get tries again.
type Lazy[T any] struct {
	load    func(ctx context.Context) (T, error)
	mu      sync.Mutex
	value   T
	done    bool
	loading chan struct{}
}

// NewLazy returns a handle that calls load on first Get.
func NewLazy[T any](load func(ctx context.Context) (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Get returns the loaded value, loading it with ctx if no load is in flight.
func (l *Lazy[T]) Get(ctx context.Context) (T, error) {
	var zero T
	for {
		l.mu.Lock()
		if l.done {
			v := l.value
			l.mu.Unlock()
			return v, nil
		}
		wait := l.loading
		if wait == nil {
			l.loading = make(chan struct{})
			l.mu.Unlock()
			return l.run(ctx)
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func (l *Lazy[T]) run(ctx context.Context) (v T, err error) {
	defer func() {
		l.mu.Lock()
		if err == nil {
			l.value, l.done = v, true
		}
		close(l.loading)
		l.loading = nil
		l.mu.Unlock()
	}()
	return l.load(ctx)
}

// Peek returns the value without loading it.
func (l *Lazy[T]) Peek() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.done
}
