package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenDenylist records revoked token IDs until their natural expiry.
// Logout and refresh revoke the presented token here; the auth middleware
// checks membership on every authenticated request.
type TokenDenylist struct {
	rdb *redis.Client
}

func NewTokenDenylist(rdb *redis.Client) *TokenDenylist {
	return &TokenDenylist{rdb: rdb}
}

// defaultRevokeTTL covers tokens issued without an exp claim.
const defaultRevokeTTL = 72 * time.Hour

// Revoke marks the token ID as invalid for ttl. A non-positive ttl falls back
// to the default so a revoked never-expiring token still stays out for a while.
func (d *TokenDenylist) Revoke(ctx context.Context, tokenID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultRevokeTTL
	}
	return d.rdb.Set(ctx, denyKey(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether the token ID has been revoked.
func (d *TokenDenylist) IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	err := d.rdb.Get(ctx, denyKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func denyKey(tokenID uuid.UUID) string {
	return "revoked_token:" + tokenID.String()
}
