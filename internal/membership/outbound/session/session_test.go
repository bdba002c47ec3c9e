package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("container test")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opt, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis(t *testing.T) {
	client := newRedis(t)
	store := NewRedis(client, time.Minute, instrument.NewNoop())
	ctx := context.Background()

	t.Run("Unknown id is empty", func(t *testing.T) {
		sess, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.True(t, sess.IsEmpty())
	})

	t.Run("Round trip with ttl", func(t *testing.T) {
		// Arrange
		started := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		in := &entity.Session{PendingRegistration: &entity.PendingRegistration{
			FirstName: "Ana", Email: "ana@example.com", EmailVerified: true, StartedAt: started,
		}}

		// Act
		require.NoError(t, store.Save(ctx, "s1", in))
		out, err := store.Get(ctx, "s1")

		// Assert
		require.NoError(t, err)
		require.NotNil(t, out.PendingRegistration)
		assert.Equal(t, "ana@example.com", out.PendingRegistration.Email)
		assert.True(t, out.PendingRegistration.StartedAt.Equal(started))
		assert.Equal(t, entity.RegistrationEmailVerified, out.RegistrationState())

		ttl, err := client.TTL(ctx, keyPrefix+"s1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Second)
	})

	t.Run("Saving an empty session deletes it", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "s1", &entity.Session{}))

		n, err := client.Exists(ctx, keyPrefix+"s1").Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Delete", func(t *testing.T) {
		id := int64(9)
		require.NoError(t, store.Save(ctx, "s2", &entity.Session{AuthenticatedUserID: &id}))
		require.NoError(t, store.Delete(ctx, "s2"))

		sess, err := store.Get(ctx, "s2")
		require.NoError(t, err)
		assert.Nil(t, sess.AuthenticatedUserID)
	})
}
