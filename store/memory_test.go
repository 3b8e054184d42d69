package store_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-authflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoadMissingKeyReturnsNil(t *testing.T) {
	mem := store.NewMemory()

	value, err := mem.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestMemorySaveLoadClear(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Save(ctx, "auth.session", []byte(`{"v":1}`)))

	value, err := mem.Load(ctx, "auth.session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), value)
	assert.Equal(t, 1, mem.Len())

	require.NoError(t, mem.Clear(ctx, "auth.session"))
	value, err = mem.Load(ctx, "auth.session")
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, 0, mem.Len())
}

func TestMemoryCopiesValues(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	input := []byte("original")
	require.NoError(t, mem.Save(ctx, "k", input))
	input[0] = 'X'

	value, err := mem.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), value)

	value[0] = 'Y'
	again, err := mem.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryClearMissingKeyIsNoOp(t *testing.T) {
	mem := store.NewMemory()
	assert.NoError(t, mem.Clear(context.Background(), "absent"))
}
