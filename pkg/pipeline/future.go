package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotReady is returned by Await when the grace window elapses first
var ErrNotReady = errors.New("result not ready")

// Future is a one-shot result slot. Only the first Resolve counts.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go runs fn on its own goroutine. A panic resolves the future with an error.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.Resolve(zero, fmt.Errorf("task panicked: %v", r))
			}
		}()
		f.Resolve(fn())
	}()
	return f
}

func (f *Future[T]) Resolve(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits at most grace. The task itself is never cancelled.
func (f *Future[T]) Await(ctx context.Context, grace time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	var zero T
	if grace <= 0 {
		return zero, ErrNotReady
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.val, f.err
	case <-timer.C:
		return zero, ErrNotReady
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
