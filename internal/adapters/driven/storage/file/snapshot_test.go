package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

func TestSnapshotStore_ReadMissing(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "index.dqvi"))

	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotStore_WriteRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultSnapshotName)
	store := NewSnapshotStore(path)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, []byte("first")))
	require.NoError(t, store.Write(ctx, []byte("second")))

	data, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, path, store.Location())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotStore_CancelledContext(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "index.dqvi"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Write(ctx, []byte("x")), context.Canceled)
	_, err := store.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
