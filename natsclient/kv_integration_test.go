//go:build integration

package natsclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santicomp2014/lumino/errors"
)

func TestKVStore_BasicOperations(t *testing.T) {
	tc := NewTestClient(t)
	ctx := context.Background()

	kv, err := tc.Client.KeyValue(ctx, "test-basic")
	require.NoError(t, err)

	t.Run("put and get", func(t *testing.T) {
		rev, err := kv.Put(ctx, "some.key", []byte("value"))
		require.NoError(t, err)
		assert.Greater(t, rev, uint64(0))

		entry, err := kv.Get(ctx, "some.key")
		require.NoError(t, err)
		assert.Equal(t, "some.key", entry.Key)
		assert.Equal(t, []byte("value"), entry.Value)
		assert.Equal(t, rev, entry.Revision)
	})

	t.Run("get missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, "missing")
		assert.True(t, errors.Is(err, errors.ErrRecordNotFound))
	})

	t.Run("create is first writer wins", func(t *testing.T) {
		_, err := kv.Create(ctx, "once", []byte("first"))
		require.NoError(t, err)

		_, err = kv.Create(ctx, "once", []byte("second"))
		assert.True(t, errors.Is(err, errors.ErrRecordExists))

		entry, err := kv.Get(ctx, "once")
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), entry.Value)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := kv.Put(ctx, "doomed", []byte("x"))
		require.NoError(t, err)

		require.NoError(t, kv.Delete(ctx, "doomed"))

		_, err = kv.Get(ctx, "doomed")
		assert.True(t, errors.Is(err, errors.ErrRecordNotFound))
	})
}
