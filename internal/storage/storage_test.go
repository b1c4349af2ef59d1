package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewLocalStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("StoreFromBytes", func(t *testing.T) {
		testData := []byte("\x89PNG\r\n\x1a\nfake")

		path, err := storage.StoreFromBytes(ctx, testData, ".png")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(path, ".png"))

		content, err := storage.Read(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, testData, content)

		require.NoError(t, storage.Delete(ctx, path))
	})

	t.Run("Delete", func(t *testing.T) {
		path, err := storage.StoreFromBytes(ctx, []byte("test"), "")
		require.NoError(t, err)

		require.NoError(t, storage.Delete(ctx, path))
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		err = storage.Delete(ctx, filepath.Join(tempDir, "nonexistent"))
		assert.Error(t, err)
	})

	t.Run("refuses paths outside the root", func(t *testing.T) {
		outside := filepath.Join(tempDir, "..", "escape.txt")

		_, err := storage.Read(ctx, outside)
		assert.ErrorContains(t, err, "invalid file path")
		assert.Error(t, storage.Delete(ctx, "/etc/passwd"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := storage.StoreFromBytes(cctx, []byte("x"), "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
