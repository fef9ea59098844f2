// AngelaMos | 2026
// store.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

const (
	revokedKeyPrefix = "session:revoked:"
	stateKeyPrefix   = "oauth:state:"

	StateTTL = 10 * time.Minute
)

// Store keeps short-lived auth state in Redis: revoked session ids and
// pending OAuth state values.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Revoke marks jti revoked until ttl elapses. A non-positive ttl means the
// token has already expired and nothing is stored.
func (s *Store) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return n > 0, nil
}

func (s *Store) SaveState(ctx context.Context, state string) error {
	if err := s.client.Set(ctx, stateKey(state), 1, StateTTL).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// ConsumeState reports whether state was pending and removes it, so each
// value is accepted at most once.
func (s *Store) ConsumeState(ctx context.Context, state string) (bool, error) {
	if state == "" {
		return false, nil
	}

	err := s.client.GetDel(ctx, stateKey(state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume oauth state: %w", err)
	}
	return true, nil
}

func stateKey(state string) string {
	return stateKeyPrefix + core.HashToken(state)
}
