package ratelimiter

import (
	"context"
	"time"
)

// Store is the storage backend for bucket state. Implementations must make
// ConsumeTokens atomic per key so concurrent callers cannot both spend the
// last token.
type Store interface {
	// ConsumeTokens refills the bucket for key according to config, then
	// consumes the requested tokens. A negative remaining count means the
	// request must be denied.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the bucket state for the key.
	Reset(ctx context.Context, key string) error
}
