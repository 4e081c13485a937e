package badger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	backend, err := OpenBackend(file, false)
	assert.Error(t, err)
	assert.Nil(t, backend)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestWithTransaction_Commit(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.AddEntries(ctx, &core.Entry{Primary: "Иванов", Secondary: "Ivanov"})
		if err != nil {
			return err
		}
		_, err = repo.AddEntries(ctx, &core.Entry{Primary: "Петров", Secondary: "Petrov"})
		return err
	})
	require.NoError(t, err)

	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestWithTransaction_Rollback(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := repo.AddEntries(ctx, &core.Entry{Primary: "Иванов"}); err != nil {
			return err
		}
		// Visible inside the unit of work
		count, err := repo.CountEntries(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, 1, count)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repo.CountEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.WithTransaction(ctx, func(ctx context.Context) error {
		inner := repo.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.AddEntries(ctx, &core.Entry{Primary: "Сидоров"})
			return err
		})
		require.NoError(t, inner)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The inner unit did not commit on its own
	_, err = repo.FindEntryByText(ctx, "Сидоров", "")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
