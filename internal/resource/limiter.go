// Package resource holds the process-wide pixel cache budget used while
// decoding images.
//
// The budget is global mutable state. The process-wide baseline is set once
// at startup with Limiter.SetLimit. Per-request overrides go through
// Limiter.Acquire, which returns a release function that restores the
// previous value; defer it immediately so the budget is restored on every
// exit path, panics included.
package resource

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// BytesPerPixel is the in-memory cost of one decoded pixel (8-bit RGBA).
const BytesPerPixel = 4

// Unlimited disables the budget check.
const Unlimited int64 = 0

// ErrLimitExceeded is returned when an image would not fit in the budget.
var ErrLimitExceeded = errors.New("pixel cache resource limit exceeded")

// Limiter guards a pixel cache byte budget.
//
// Reads through Limit and Check are lock-free. Acquire serializes limited
// scopes so that one scope's restore can never clobber another's limit.
type Limiter struct {
	limit atomic.Int64
	scope sync.Mutex
}

// Default is the limiter shared by the whole process.
var Default = &Limiter{}

// Limit returns the current budget in bytes, or Unlimited.
func (l *Limiter) Limit() int64 {
	return l.limit.Load()
}

// SetLimit sets the baseline budget outside of any scope. Requests that do
// not override the budget run concurrently under it; scopes opened by
// Acquire restore to it.
func (l *Limiter) SetLimit(bytes int64) {
	if bytes < 0 {
		bytes = Unlimited
	}
	l.limit.Store(bytes)
}

// Acquire sets the budget to bytes for the duration of a scope and returns
// the function that restores the previous budget. A non-positive value
// leaves the budget untouched and returns a no-op release. Scopes are
// serialized, so only requests that override the baseline wait on each
// other.
//
//	release := resource.Default.Acquire(opts.MaxMemory)
//	defer release()
func (l *Limiter) Acquire(bytes int64) (release func()) {
	if bytes <= 0 {
		return func() {}
	}

	l.scope.Lock()
	previous := l.limit.Swap(bytes)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.limit.Store(previous)
			l.scope.Unlock()
		})
	}
}

// Check returns ErrLimitExceeded if an image of width x height pixels does
// not fit in the current budget.
func (l *Limiter) Check(width, height int) error {
	limit := l.Limit()
	if limit == Unlimited {
		return nil
	}
	need := int64(width) * int64(height) * BytesPerPixel
	if need > limit {
		return fmt.Errorf("%w: %dx%d needs %d bytes, limit is %d", ErrLimitExceeded, width, height, need, limit)
	}
	return nil
}
