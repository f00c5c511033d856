package outbound

import (
	"context"
	"time"
)

// ClaimStore provides an atomic set-if-absent used for in-flight claims and
// event deduplication.
type ClaimStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}
