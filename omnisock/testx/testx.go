// Package testx provides small helpers shared by the package tests.
package testx

import (
	"context"
	"testing"
	"time"
)

// WithDeadline derives a context from the test's own deadline, falling back
// to a short default so a wedged operation fails the test instead of hanging.
func WithDeadline(t testing.TB) (context.Context, context.CancelFunc) {
	if d, ok := t.(interface{ Deadline() (time.Time, bool) }); ok {
		if ts, ok := d.Deadline(); ok {
			return context.WithDeadline(context.Background(), ts)
		}
	}

	return context.WithTimeout(context.Background(), 10*time.Second)
}
