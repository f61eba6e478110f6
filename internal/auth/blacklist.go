package auth

import (
	"context"
	"fmt"
	"time"

	radix "github.com/mediocregopher/radix/v3"

	"marketplace-backend/internal/repository"
)

const blacklistKey = "auth:blacklist:%s"

// Blacklist rejects tokens before their natural expiry (logout, password
// change/reset, refresh rotation). The gorm table is the source of truth so
// the set survives restarts; Redis fronts it so the per-request check does
// not always hit the store. A nil Redis client degrades to DB-only.
type Blacklist struct {
	tokens repository.TokenRepository
	redis  radix.Client
	ttl    time.Duration
}

func NewBlacklist(tokens repository.TokenRepository, redis radix.Client, ttl time.Duration) *Blacklist {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Blacklist{tokens: tokens, redis: redis, ttl: ttl}
}

// Add invalidates a jti. Safe to call more than once for the same id.
func (b *Blacklist) Add(ctx context.Context, jti string) error {
	if err := b.tokens.Blacklist(ctx, jti); err != nil {
		return fmt.Errorf("blacklist jti: %w", err)
	}
	b.cache(jti)
	return nil
}

// Contains reports whether the jti has been invalidated.
func (b *Blacklist) Contains(ctx context.Context, jti string) (bool, error) {
	if b.redis != nil {
		var hit string
		if err := b.redis.Do(radix.Cmd(&hit, "GET", fmt.Sprintf(blacklistKey, jti))); err == nil && hit != "" {
			return true, nil
		}
	}
	listed, err := b.tokens.IsBlacklisted(ctx, jti)
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	if listed {
		b.cache(jti)
	}
	return listed, nil
}

// RevokeUser blacklists every live token issued to the user. Run before
// issuing a fresh pair on refresh so old refresh chains cannot replay.
func (b *Blacklist) RevokeUser(ctx context.Context, userID string) error {
	live, err := b.tokens.ListLiveByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list live tokens: %w", err)
	}
	for _, token := range live {
		if err := b.Add(ctx, token.JTI); err != nil {
			return err
		}
	}
	return nil
}

func (b *Blacklist) cache(jti string) {
	if b.redis == nil {
		return
	}
	// cache failures only cost a DB lookup later
	_ = b.redis.Do(radix.FlatCmd(nil, "SETEX",
		fmt.Sprintf(blacklistKey, jti), int64(b.ttl/time.Second), "1"))
}
