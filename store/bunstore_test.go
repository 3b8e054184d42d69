package store_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-authflow/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Bun {
	t.Helper()

	s, err := store.OpenSQLite(context.Background(), "file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestBunLoadMissingKeyReturnsNil(t *testing.T) {
	s := openTestStore(t)

	value, err := s.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestBunSaveLoadClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "auth.session", []byte(`{"version":1}`)))

	value, err := s.Load(ctx, "auth.session")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1}`), value)

	require.NoError(t, s.Clear(ctx, "auth.session"))

	value, err = s.Load(ctx, "auth.session")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestBunSaveOverwritesExistingKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "auth.session", []byte("first")))
	require.NoError(t, s.Save(ctx, "auth.session", []byte("second")))

	value, err := s.Load(ctx, "auth.session")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), value)
}

func TestBunKeysAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tenant-a.auth", []byte("a")))
	require.NoError(t, s.Save(ctx, "tenant-b.auth", []byte("b")))
	require.NoError(t, s.Clear(ctx, "tenant-a.auth"))

	value, err := s.Load(ctx, "tenant-b.auth")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), value)
}
