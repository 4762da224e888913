package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourchat/internal/common/config"
	"tourchat/internal/common/database"
	"tourchat/internal/models"
)

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	defer store.Close()

	conv := models.NewConversation("conv-1", time.Now())
	conv.Params.Country = "Турция"

	require.NoError(t, store.Save(context.Background(), conv))

	got, err := store.Get(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Турция", got.Params.Country)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	defer store.Close()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	defer store.Close()

	conv := models.NewConversation("conv-ttl", time.Now())
	require.NoError(t, store.Save(context.Background(), conv))

	time.Sleep(20 * time.Millisecond)

	_, err := store.Get(context.Background(), "conv-ttl")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	defer store.Close()

	conv := models.NewConversation("conv-del", time.Now())
	require.NoError(t, store.Save(context.Background(), conv))
	require.NoError(t, store.Delete(context.Background(), "conv-del"))

	_, err := store.Get(context.Background(), "conv-del")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is a no-op
	assert.NoError(t, store.Delete(context.Background(), "conv-del"))
}

func TestMemoryStore_LockSerializesAccess(t *testing.T) {
	store := NewMemoryStore(30 * time.Minute)
	defer store.Close()

	unlock := store.Lock("conv-lock")

	acquired := make(chan struct{})
	go func() {
		u := store.Lock("conv-lock")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)

	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store, _ := newRedisStore(t, 30*time.Minute)
	defer store.Close()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := models.NewConversation("conv-r1", now)
	conv.Params.Country = "Египет"
	conv.Params.Adults = 2
	conv.Stage = models.StageCollecting

	require.NoError(t, store.Save(context.Background(), conv))

	got, err := store.Get(context.Background(), "conv-r1")
	require.NoError(t, err)
	assert.Equal(t, "Египет", got.Params.Country)
	assert.Equal(t, 2, got.Params.Adults)
	assert.Equal(t, models.StageCollecting, got.Stage)
}

func TestRedisStore_GetMissing(t *testing.T) {
	store, _ := newRedisStore(t, 30*time.Minute)
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	defer store.Close()

	conv := models.NewConversation("conv-r2", time.Now())
	require.NoError(t, store.Save(context.Background(), conv))

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(context.Background(), "conv-r2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	defer store.Close()

	conv := models.NewConversation("conv-r3", time.Now())
	require.NoError(t, store.Save(context.Background(), conv))
	require.NoError(t, store.Delete(context.Background(), "conv-r3"))

	_, err := store.Get(context.Background(), "conv-r3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_GetBackendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(&database.RedisClient{Client: db}, time.Minute)

	mock.ExpectGet(keyPrefix + "conv-err").SetErr(assert.AnError)

	_, err := store.Get(context.Background(), "conv-err")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound, "backend failures must not masquerade as a fresh conversation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_CorruptedPayload(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(&database.RedisClient{Client: db}, time.Minute)

	mock.ExpectGet(keyPrefix + "conv-bad").SetVal("{not json")

	_, err := store.Get(context.Background(), "conv-bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
	assert.NoError(t, mock.ExpectationsWereMet())
}
