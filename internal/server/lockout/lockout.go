// Package lockout keeps brute-force protection state for desktop logins:
// failed password attempts per key, and the time until which a key is locked.
package lockout

import (
	"context"
	"time"
)

// State is the current lockout envelope for a login key.
type State struct {
	FailedCount int
	LockedUntil *time.Time
}

// Locked reports whether the key is locked at now.
func (s State) Locked(now time.Time) bool {
	return s.LockedUntil != nil && s.LockedUntil.After(now)
}

type Store interface {
	Get(ctx context.Context, key string) (State, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (State, error)
	Clear(ctx context.Context, key string) error
}
