// Package internal provides internal implementation details for cachex.
package internal

import (
	"context"
	"sync"
)

// Latch records the first of several competing outcomes.
// Later calls to Succeed or Fail are ignored.
type Latch struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewLatch creates an unsettled latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Succeed settles the latch without error.
func (l *Latch) Succeed() {
	l.settle(nil)
}

// Fail settles the latch with err.
func (l *Latch) Fail(err error) {
	l.settle(err)
}

func (l *Latch) settle(err error) {
	l.once.Do(func() {
		l.err = err
		close(l.done)
	})
}

// Settled reports whether an outcome has been recorded.
func (l *Latch) Settled() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the latch settles or ctx is done.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
