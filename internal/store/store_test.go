package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a Redis store on it.
func setupTestRedis(t *testing.T, opts ...RedisOption) (*Redis, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, opts...), mr, client
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	file, err := NewFile(t.TempDir())
	require.NoError(t, err)
	rs, _, _ := setupTestRedis(t)

	return map[string]Store{
		"memory": NewMemory(time.Hour),
		"file":   file,
		"redis":  rs,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, "device-1:cart-items")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, "device-1:cart-items", []byte(`[1]`)))
			got, err := s.Load(ctx, "device-1:cart-items")
			require.NoError(t, err)
			assert.Equal(t, `[1]`, string(got))

			require.NoError(t, s.Update(ctx, "device-1:cart-items", func(cur []byte) ([]byte, error) {
				assert.Equal(t, `[1]`, string(cur))
				return []byte(`[1,2]`), nil
			}))
			got, err = s.Load(ctx, "device-1:cart-items")
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(got))

			require.NoError(t, s.Update(ctx, "device-1:cart-items", func(cur []byte) ([]byte, error) {
				return nil, nil
			}))
			_, err = s.Load(ctx, "device-1:cart-items")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Delete(ctx, "never-written"))
		})
	}
}

func TestStoreUpdateMissingKey(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			seen := []byte("sentinel")
			require.NoError(t, s.Update(ctx, "fresh", func(cur []byte) ([]byte, error) {
				seen = cur
				return []byte("v"), nil
			}))
			assert.Nil(t, seen)
		})
	}
}

func TestStoreUpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, "k", []byte("old")))

			err := s.Update(ctx, "k", func([]byte) ([]byte, error) {
				return nil, boom
			})
			assert.ErrorIs(t, err, boom)

			got, err := s.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "old", string(got))
		})
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		if name == "redis" {
			// miniredis serializes commands, so contention is covered by
			// TestRedisUpdateRetriesOnConflict instead.
			continue
		}
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
						return append(cur, 'x'), nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			got, err := s.Load(ctx, "counter")
			require.NoError(t, err)
			assert.Len(t, got, 50)
		})
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)

	data := []byte("abc")
	require.NoError(t, m.Save(ctx, "k", data))
	data[0] = 'z'

	got, err := m.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, _ := m.Load(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Millisecond)

	require.NoError(t, m.Save(ctx, "a", []byte("1")))
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, m.Sweep())
	_, err := m.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKeysAreEscaped(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	key := "SHA256:ab/cd+ef:cart-items"
	require.NoError(t, f.Save(ctx, key, []byte("[]")))

	got, err := f.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestRedisPrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := setupTestRedis(t, WithPrefix("test:"), WithTTL(30*time.Minute))

	require.NoError(t, s.Save(ctx, "device", []byte("[]")))
	assert.True(t, mr.Exists("test:device"))
	assert.Equal(t, 30*time.Minute, mr.TTL("test:device"))

	require.NoError(t, s.Update(ctx, "device", func([]byte) ([]byte, error) {
		return []byte("[1]"), nil
	}))
	assert.Equal(t, 30*time.Minute, mr.TTL("test:device"))

	mr.FastForward(31 * time.Minute)
	_, err := s.Load(ctx, "device")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisUpdateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	s, _, client := setupTestRedis(t)

	require.NoError(t, s.Save(ctx, "k", []byte("a")))

	calls := 0
	err := s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		calls++
		if calls == 1 {
			// A second writer sneaks in after our read.
			require.NoError(t, client.Set(ctx, "cart:k", "b", 0).Err())
		}
		return append(cur, '!'), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b!", string(got))
}

func TestRedisUpdateGivesUp(t *testing.T) {
	ctx := context.Background()
	s, _, client := setupTestRedis(t, WithMaxRetries(2))

	calls := 0
	err := s.Update(ctx, "k", func(cur []byte) ([]byte, error) {
		calls++
		require.NoError(t, client.Set(ctx, "cart:k", calls, 0).Err())
		return []byte("mine"), nil
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 3, calls)
}

func TestRedisConnectionError(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	s := NewRedis(client)
	mr.Close()

	_, err = s.Load(ctx, "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
