package ports

import (
	"context"
	"time"
)

// LoginThrottle tracks failed sign-in attempts per key. Check and
// RegisterFailure return the remaining lockout, zero when none applies.
type LoginThrottle interface {
	Check(ctx context.Context, key string) (time.Duration, error)
	RegisterFailure(ctx context.Context, key string) (time.Duration, error)
	Reset(ctx context.Context, key string) error
}
