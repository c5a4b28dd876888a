package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "configuracionTurnos")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "configuracionTurnos", `{"secuencia":"AB"}`))
	require.NoError(t, s.Set(ctx, "celdasTurnos_2024", `{}`))
	require.NoError(t, s.Set(ctx, "celdasTurnos_2025", `{"Enero-1":{"contenido":"A"}}`))

	v, ok, err := s.Get(ctx, "configuracionTurnos")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"secuencia":"AB"}`, v)

	require.NoError(t, s.Set(ctx, "configuracionTurnos", `{"secuencia":"ABC"}`))
	v, _, err = s.Get(ctx, "configuracionTurnos")
	require.NoError(t, err)
	assert.Equal(t, `{"secuencia":"ABC"}`, v)

	keys, err := s.Keys(ctx, "celdasTurnos_")
	require.NoError(t, err)
	assert.Equal(t, []string{"celdasTurnos_2024", "celdasTurnos_2025"}, keys)

	require.NoError(t, s.Delete(ctx, "celdasTurnos_2024"))
	require.NoError(t, s.Delete(ctx, "missing"))

	_, ok, err = s.Get(ctx, "celdasTurnos_2024")
	require.NoError(t, err)
	assert.False(t, ok)

	keys, err = s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	testStoreContract(t, NewFileStore(path, zap.NewNop()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// a second store over the same file sees the persisted records
	reopened := NewFileStore(path, zap.NewNop())
	require.NoError(t, reopened.Load())
	v, ok, err := reopened.Get(context.Background(), "celdasTurnos_2025")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"Enero-1":{"contenido":"A"}}`, v)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewFileStore(path, zap.NewNop())
	assert.Error(t, s.Load())

	_, _, err := s.Get(context.Background(), "x")
	assert.Error(t, err)
}
