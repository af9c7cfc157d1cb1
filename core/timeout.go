package core

import (
	"context"
	"errors"
	"time"
)

var errDeadline = context.DeadlineExceeded

// CallContext derives the context for a single external call. A zero or
// negative timeout only adds cancellation.
func CallContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// AsTimeout converts a deadline that fired on a call-scoped context into a
// *TimeoutError. Errors caused by the parent context (caller cancellation or
// the caller's own deadline) are returned unchanged.
func AsTimeout(parent context.Context, err error, op string, timeout time.Duration) error {
	if err == nil || timeout <= 0 || parent.Err() != nil {
		return err
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Operation: op, Timeout: timeout}
	}
	return err
}
