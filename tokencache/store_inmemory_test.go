package tokencache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"agentgate/tokencache"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		require.NoError(t, store.Put(ctx, "user.tenant", []byte(`{"access_token":"a1"}`)))

		blob, err := store.Get(ctx, "user.tenant")
		require.NoError(t, err)
		require.Equal(t, []byte(`{"access_token":"a1"}`), blob)
	})

	t.Run("missing entry", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		_, err := store.Get(ctx, "user.tenant")
		require.ErrorIs(t, err, tokencache.ErrNotFound)
	})

	t.Run("put overwrites, last write wins", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		require.NoError(t, store.Put(ctx, "user.tenant", []byte("first")))
		require.NoError(t, store.Put(ctx, "user.tenant", []byte("second")))

		blob, err := store.Get(ctx, "user.tenant")
		require.NoError(t, err)
		require.Equal(t, []byte("second"), blob)
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		require.NoError(t, store.Put(ctx, "user.tenant", []byte("blob")))
		require.NoError(t, store.Delete(ctx, "user.tenant"))

		_, err := store.Get(ctx, "user.tenant")
		require.ErrorIs(t, err, tokencache.ErrNotFound)
	})

	t.Run("delete of a missing entry is a no-op", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		require.NoError(t, store.Delete(ctx, "user.tenant"))
	})

	t.Run("empty user key is rejected", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		require.Error(t, store.Put(ctx, "", []byte("blob")))
		_, err := store.Get(ctx, "")
		require.Error(t, err)
		require.NotErrorIs(t, err, tokencache.ErrNotFound)
		require.Error(t, store.Delete(ctx, ""))
	})

	t.Run("caller mutating its slice does not corrupt the stored blob", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		in := []byte("original")
		require.NoError(t, store.Put(ctx, "user.tenant", in))
		copy(in, "XXXXXXXX")

		blob, err := store.Get(ctx, "user.tenant")
		require.NoError(t, err)
		require.Equal(t, []byte("original"), blob)

		copy(blob, "YYYYYYYY")
		again, err := store.Get(ctx, "user.tenant")
		require.NoError(t, err)
		require.Equal(t, []byte("original"), again)
	})

	t.Run("readers never observe a torn blob", func(t *testing.T) {
		store := tokencache.NewInMemoryStore()
		blobs := [][]byte{[]byte("aaaaaaaaaaaaaaaa"), []byte("bbbbbbbbbbbbbbbb")}
		require.NoError(t, store.Put(ctx, "user.tenant", blobs[0]))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			failures []string
		)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					_ = store.Put(ctx, "user.tenant", blobs[(i+j)%2])
				}
			}(i)
		}

		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					blob, err := store.Get(ctx, "user.tenant")
					if err != nil {
						mu.Lock()
						failures = append(failures, fmt.Sprintf("unexpected read error: %v", err))
						mu.Unlock()
						return
					}
					if string(blob) != string(blobs[0]) && string(blob) != string(blobs[1]) {
						mu.Lock()
						failures = append(failures, fmt.Sprintf("torn read: %q", blob))
						mu.Unlock()
						return
					}
				}
			}()
		}
		wg.Wait()
		require.Empty(t, failures)
	})
}
