// Package tokenstore keeps revoked token ids (jti) until the token would
// have expired anyway.
package tokenstore

import (
	"context"
	"time"
)

// Store records revoked token ids
type Store interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
