package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/heapoverflow/pkg/types"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	b := NewBackend()
	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, DatabaseFile))
	assert.NoError(t, err, "database file should be created")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyOpen)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{}), types.ErrBackendEmpty)
}

func TestBackend_Detach(t *testing.T) {
	b := openTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.Categories().Fetch(ctx, nil)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Ping(ctx), types.ErrStoreDetached)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	ctx := context.Background()
	config := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	b, err := Open(config)
	require.NoError(t, err)
	c := newCategory(t, 1, "Go")
	require.NoError(t, b.Categories().Set(ctx, c))
	require.NoError(t, b.Close())

	b, err = Open(config)
	require.NoError(t, err)
	defer b.Close()

	got, err := b.Categories().Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", got.Name)
}

func newCategory(t *testing.T, guild snowflake.ID, name string) *types.Category {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &types.Category{
		ID:        id,
		GuildID:   guild,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}
