package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/capsid/internal/adapters/redis"
	"github.com/aretw0/capsid/pkg/domain"
	"github.com/aretw0/capsid/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStore_Contract(t *testing.T) {
	store := redis.NewFromClient(newTestClient(t))
	ports.RunStoreContract(t, store)
}

func TestRedisStore_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := redis.NewFromClient(client, redis.WithTTL(time.Hour))
	ctx := context.Background()

	fresh := domain.HistoryRecord{
		ID:         "fresh",
		Kind:       domain.KindRun,
		Status:     domain.StatusFinished,
		FinishedAt: time.Now().UTC(),
	}
	stale := domain.HistoryRecord{
		ID:         "stale",
		Kind:       domain.KindRun,
		Status:     domain.StatusError,
		FinishedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	require.NoError(t, store.Save(ctx, fresh))
	require.NoError(t, store.Save(ctx, stale))

	// A record that finished more than one TTL ago drops out of the
	// listing on the next List.
	records, err := store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	assert.Contains(t, ids, "fresh")
	assert.NotContains(t, ids, "stale")

	// The values themselves expire through their SET TTL.
	mr.FastForward(2 * time.Hour)
	_, err = store.Load(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	records, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedisStore_Prefix(t *testing.T) {
	client := newTestClient(t)
	first := redis.NewFromClient(client, redis.WithPrefix("capsid:test-a:"))
	second := redis.NewFromClient(client, redis.WithPrefix("capsid:test-b:"))
	ctx := context.Background()

	rec := domain.HistoryRecord{
		ID:         "shared-id",
		Kind:       domain.KindAction,
		Status:     domain.StatusFinished,
		FinishedAt: time.Now().UTC(),
	}
	require.NoError(t, first.Save(ctx, rec))

	_, err := second.Load(ctx, "shared-id")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	records, err := second.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = first.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "shared-id", records[0].ID)
}

func TestRedisStore_New(t *testing.T) {
	t.Run("Valid URL", func(t *testing.T) {
		mr := miniredis.RunT(t)
		store, err := redis.New("redis://" + mr.Addr())
		require.NoError(t, err)
		defer store.Close()

		ctx := context.Background()
		rec := domain.HistoryRecord{
			ID:         "via-url",
			Kind:       domain.KindRun,
			Status:     domain.StatusFinished,
			FinishedAt: time.Now().UTC(),
		}
		require.NoError(t, store.Save(ctx, rec))
		loaded, err := store.Load(ctx, "via-url")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFinished, loaded.Status)
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := redis.New("not a url")
		assert.Error(t, err)
	})
}
