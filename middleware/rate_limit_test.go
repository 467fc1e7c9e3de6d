package middleware_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendly/config"
	"agendly/middleware"
)

func newRedisStorage(t *testing.T) *middleware.RedisStorage {
	t.Helper()

	srv := miniredis.RunT(t)
	return middleware.NewRedisStorage(config.RedisConfig{
		Address: srv.Addr(),
	})
}

func TestRedisStorageSetGet(t *testing.T) {
	storage := newRedisStorage(t)
	defer storage.Close()

	require.NoError(t, storage.Set("rl:1:/api/v1/tickets", []byte("3"), time.Minute))

	val, err := storage.Get("rl:1:/api/v1/tickets")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), val)
}

func TestRedisStorageMissingKey(t *testing.T) {
	storage := newRedisStorage(t)
	defer storage.Close()

	// The limiter treats a nil value as "no hits yet"; a miss must not
	// surface as an error.
	val, err := storage.Get("rl:unknown")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestRedisStorageDeleteAndReset(t *testing.T) {
	storage := newRedisStorage(t)
	defer storage.Close()

	require.NoError(t, storage.Set("a", []byte("1"), time.Minute))
	require.NoError(t, storage.Set("b", []byte("2"), time.Minute))

	require.NoError(t, storage.Delete("a"))
	val, err := storage.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, storage.Reset())
	val, err = storage.Get("b")
	require.NoError(t, err)
	assert.Nil(t, val)
}
