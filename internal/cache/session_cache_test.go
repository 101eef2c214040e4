package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadgen/internal/model"
)

type sessionStore interface {
	Get(ctx context.Context, id string) (*model.SessionState, bool, error)
	Save(ctx context.Context, state *model.SessionState) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, ttl), mr
}

func TestSessionStores(t *testing.T) {
	redisStore, _ := newRedisStore(t, time.Hour)
	stores := map[string]sessionStore{
		"redis":  redisStore,
		"memory": NewMemorySessionStore(time.Hour),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Ping(ctx))

			_, found, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			state := model.NewSessionState("s1", model.FormatBoth)
			state.Page(model.PageGenerate).MarkGenerated("output/c_binary.stl", "output/c_ascii.stl", "output/c_binary.stl")
			state.AddUploads("uploaded_files/datasheet.pdf")
			require.NoError(t, store.Save(ctx, state))
			assert.False(t, state.UpdatedAt.IsZero())

			got, found, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, model.FormatBoth, got.Format)
			assert.True(t, got.Page(model.PageGenerate).Generated)
			assert.Equal(t, []string{"uploaded_files/datasheet.pdf"}, got.Uploads)

			got.Page(model.PageGenerate).Reset()
			again, _, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.True(t, again.Page(model.PageGenerate).Generated, "mutating a loaded state must not leak into the store")

			require.NoError(t, store.Delete(ctx, "s1"))
			_, found, err = store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestRedisSessionStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.NewSessionState("s2", model.FormatBinary)))
	assert.Equal(t, time.Minute, mr.TTL("cadgen:session:s2"))

	mr.FastForward(2 * time.Minute)
	_, found, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisSessionStoreCorruptPayload(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set("cadgen:session:bad", "{not json"))

	_, _, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisSessionStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	mr.Close()

	ctx := context.Background()
	assert.Error(t, store.Ping(ctx))
	_, _, err := store.Get(ctx, "s1")
	assert.Error(t, err)
}
