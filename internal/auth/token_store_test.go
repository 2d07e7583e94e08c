package auth

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sampleToken(realmID string) *OAuthToken {
	now := time.Now()
	return &OAuthToken{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		IssuedAt:     now,
		ExpiresAt:    now.Add(time.Hour),
		RealmID:      realmID,
	}
}

func TestRedisTokenStoreRoundTrip(t *testing.T) {
	store := NewRedisTokenStore(newTestRedis(t), "test")

	require.NoError(t, store.SaveToken("realm-1", sampleToken("realm-1")))

	token, err := store.GetToken("realm-1")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "realm-1", token.RealmID)

	require.NoError(t, store.DeleteToken("realm-1"))
	_, err = store.GetToken("realm-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRedisTokenStoreMissingRealm(t *testing.T) {
	store := NewRedisTokenStore(newTestRedis(t), "test")

	_, err := store.GetToken("never-connected")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestFallbackTokenStoreServesFromCacheWhenUnhealthy(t *testing.T) {
	healthy := true
	store := NewFallbackTokenStore(newTestRedis(t), "test", func() bool { return healthy }, zap.NewNop())

	require.NoError(t, store.SaveToken("realm-1", sampleToken("realm-1")))

	healthy = false
	token, err := store.GetToken("realm-1")
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
}

func TestFallbackTokenStoreDeleteClearsCache(t *testing.T) {
	store := NewFallbackTokenStore(newTestRedis(t), "test", func() bool { return false }, zap.NewNop())

	require.NoError(t, store.SaveToken("realm-1", sampleToken("realm-1")))
	require.NoError(t, store.DeleteToken("realm-1"))

	_, err := store.GetToken("realm-1")
	assert.ErrorIs(t, err, ErrNotConnected)
}
