// auth/token_store_fallback.go
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// FallbackTokenStore provides a resilient token store with a local cache
// that covers Redis outages. Redis remains the durable source of truth;
// the cache only bridges the gap until replication catches up.
type FallbackTokenStore struct {
	redisStore  *RedisTokenStore
	localCache  map[string]*OAuthToken
	cacheMutex  sync.RWMutex
	healthCheck func() bool
	logger      *zap.Logger
}

// NewFallbackTokenStore creates a token store with Redis and local fallback
func NewFallbackTokenStore(redisClient redis.UniversalClient, prefix string, healthCheck func() bool, logger *zap.Logger) *FallbackTokenStore {
	return &FallbackTokenStore{
		redisStore:  NewRedisTokenStore(redisClient, prefix),
		localCache:  make(map[string]*OAuthToken),
		healthCheck: healthCheck,
		logger:      logger,
	}
}

// SaveToken stores a token in Redis and the local cache
func (s *FallbackTokenStore) SaveToken(realmID string, token *OAuthToken) error {
	s.cacheMutex.Lock()
	s.localCache[realmID] = token
	s.cacheMutex.Unlock()

	if s.healthCheck() {
		if err := s.redisStore.SaveToken(realmID, token); err != nil {
			s.logger.Warn("failed to save token to redis, keeping local copy",
				zap.String("realm_id", realmID), zap.Error(err))
		}
	}
	return nil
}

// GetToken retrieves a token, trying Redis first, falling back to the cache
func (s *FallbackTokenStore) GetToken(realmID string) (*OAuthToken, error) {
	if s.healthCheck() {
		token, err := s.redisStore.GetToken(realmID)
		if err == nil {
			s.cacheMutex.Lock()
			s.localCache[realmID] = token
			s.cacheMutex.Unlock()
			return token, nil
		}
		if err == ErrNotConnected {
			return nil, err
		}
		s.logger.Warn("failed to get token from redis, trying local cache",
			zap.String("realm_id", realmID), zap.Error(err))
	}

	s.cacheMutex.RLock()
	token, exists := s.localCache[realmID]
	s.cacheMutex.RUnlock()

	if exists {
		return token, nil
	}
	return nil, ErrNotConnected
}

// DeleteToken removes a token from both stores
func (s *FallbackTokenStore) DeleteToken(realmID string) error {
	s.cacheMutex.Lock()
	delete(s.localCache, realmID)
	s.cacheMutex.Unlock()

	if s.healthCheck() {
		if err := s.redisStore.DeleteToken(realmID); err != nil {
			s.logger.Warn("failed to delete token from redis",
				zap.String("realm_id", realmID), zap.Error(err))
		}
	}
	return nil
}

// StartReplicationRoutine begins background sync of the local cache to Redis
func (s *FallbackTokenStore) StartReplicationRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.healthCheck() {
					continue
				}

				s.cacheMutex.RLock()
				tokensToReplicate := make(map[string]*OAuthToken, len(s.localCache))
				for id, token := range s.localCache {
					tokensToReplicate[id] = token
				}
				s.cacheMutex.RUnlock()

				for id, token := range tokensToReplicate {
					if err := s.redisStore.SaveToken(id, token); err != nil {
						s.logger.Warn("token replication failed",
							zap.String("realm_id", id), zap.Error(err))
					}
				}
			}
		}
	}()
}
