// Package storetest tiene el contrato común que cumplen todos los backends del almacenamiento local.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawdentify/internal/localstore"
)

// Run ejecuta el contrato sobre un backend vacío.
func Run(t *testing.T, b localstore.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := b.Get(ctx, "user-a", "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "user-a", "history", []byte(`[1]`)))
		require.NoError(t, b.Set(ctx, "user-a", "history", []byte(`[1,2]`)))

		v, ok, err := b.Get(ctx, "user-a", "history")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte(`[1,2]`), v)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "user-b", "history", []byte(`[9]`)))

		v, _, err := b.Get(ctx, "user-a", "history")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[1,2]`), v)

		keys, err := b.Keys(ctx, "user-b")
		require.NoError(t, err)
		assert.Equal(t, []string{"history"}, keys)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, b.Set(ctx, "user-a", "theme", []byte(`"dark"`)))
		require.NoError(t, b.Remove(ctx, "user-a", "theme"))
		require.NoError(t, b.Remove(ctx, "user-a", "never-set"))

		_, ok, err := b.Get(ctx, "user-a", "theme")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("binary values", func(t *testing.T) {
		bin := []byte{0x01, 0x01, 0x00, 0xff, 0x10}
		require.NoError(t, b.Set(ctx, "user-c", "blob", bin))

		v, ok, err := b.Get(ctx, "user-c", "blob")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, bin, v)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, b.Set(ctx, "user-d", "saved", []byte{byte('0' + i)}))
			}(i)
		}
		wg.Wait()

		_, ok, err := b.Get(ctx, "user-d", "saved")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
