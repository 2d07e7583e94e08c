// auth/token_store.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTokenStore implements TokenStore using Redis, keyed by realm ID.
type RedisTokenStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisTokenStore creates a new Redis-backed token store
func NewRedisTokenStore(client redis.UniversalClient, prefix string) *RedisTokenStore {
	return &RedisTokenStore{
		client: client,
		prefix: prefix,
	}
}

// key generates the Redis key for a realm's token
func (s *RedisTokenStore) key(realmID string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, realmID)
}

// SaveToken stores a token for a realm. The entry outlives the access
// token by a generous margin because the refresh token stays usable for
// far longer.
func (s *RedisTokenStore) SaveToken(realmID string, token *OAuthToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// QuickBooks refresh tokens are valid for 100 days.
	ttl := time.Until(token.ExpiresAt) + (100 * 24 * time.Hour)

	if err := s.client.Set(context.Background(), s.key(realmID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken retrieves a token for a realm
func (s *RedisTokenStore) GetToken(realmID string) (*OAuthToken, error) {
	data, err := s.client.Get(context.Background(), s.key(realmID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var token OAuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// DeleteToken removes a realm's token
func (s *RedisTokenStore) DeleteToken(realmID string) error {
	if err := s.client.Del(context.Background(), s.key(realmID)).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
