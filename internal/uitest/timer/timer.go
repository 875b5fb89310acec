// Package timer implements the bounded polling used for every wait in the
// page-object layer.
package timer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTimeout = errors.New("operation timed out")

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 100 * time.Millisecond
)

// Timer polls a condition every Interval until it holds or Timeout elapses.
// A zero Timeout means a single attempt.
type Timer struct {
	Timeout  time.Duration
	Interval time.Duration
}

func New(timeout, interval time.Duration) *Timer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout < 0 {
		timeout = 0
	}
	return &Timer{Timeout: timeout, Interval: interval}
}

// Default returns a timer with DefaultTimeout and DefaultInterval.
func Default() *Timer {
	return New(DefaultTimeout, DefaultInterval)
}

// WithTimeout returns a copy of t with a different timeout.
func (t *Timer) WithTimeout(timeout time.Duration) *Timer {
	return New(timeout, t.Interval)
}

// Wait polls cond until it returns true. Errors returned by cond count as
// "not yet"; the last one is wrapped into the timeout error.
func (t *Timer) Wait(ctx context.Context, cond func(context.Context) (bool, error)) error {
	_, err := Result(ctx, t,
		func(ctx context.Context) (bool, error) { return cond(ctx) },
		func(ok bool) bool { return ok },
	)
	return err
}

// AlwaysDone retries action until it succeeds.
func (t *Timer) AlwaysDone(ctx context.Context, action func(context.Context) error) error {
	return t.Wait(ctx, func(ctx context.Context) (bool, error) {
		if err := action(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Result polls get until accept approves its value, then returns it. On
// timeout the last value obtained is returned together with an error
// wrapping ErrTimeout.
func Result[T any](ctx context.Context, t *Timer, get func(context.Context) (T, error), accept func(T) bool) (T, error) {
	if t == nil {
		t = Default()
	}

	deadline := time.Now().Add(t.Timeout)

	var (
		last    T
		lastErr error
		tick    *time.Timer
	)
	defer func() {
		if tick != nil {
			tick.Stop()
		}
	}()

	for {
		v, err := attempt(ctx, t, get)
		if err == nil {
			last = v
			if accept == nil || accept(v) {
				return v, nil
			}
			lastErr = nil
		} else {
			lastErr = err
		}

		if err := ctx.Err(); err != nil {
			return last, err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return last, timeoutError(t.Timeout, lastErr)
		}

		sleep := min(t.Interval, remaining)
		if tick == nil {
			tick = time.NewTimer(sleep)
		} else {
			tick.Reset(sleep)
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-tick.C:
		}
	}
}

// attempt runs get once. With a timeout every attempt gets the whole of it,
// so a slow call still completes and a hung one ends; a single-attempt
// timer runs on ctx as is.
func attempt[T any](ctx context.Context, t *Timer, get func(context.Context) (T, error)) (T, error) {
	if t.Timeout <= 0 {
		return get(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	return get(attemptCtx)
}

func timeoutError(d time.Duration, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w after %s", ErrTimeout, d)
	}
	return fmt.Errorf("%w after %s: %w", ErrTimeout, d, cause)
}
