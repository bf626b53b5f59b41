package db_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/notes/db"
)

func TestMigrationsSourceURL(t *testing.T) {
	t.Run("absolute path", func(t *testing.T) {
		dir := t.TempDir()

		url, err := db.MigrationsSourceURL(dir)

		require.NoError(t, err)
		assert.Equal(t, "file://"+filepath.ToSlash(dir), url)
	})

	t.Run("relative path is resolved", func(t *testing.T) {
		url, err := db.MigrationsSourceURL("migrations/notes")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "file://"))
		assert.True(t, strings.HasSuffix(url, "/migrations/notes"))
		assert.True(t, filepath.IsAbs(strings.TrimPrefix(url, "file://")))
	})
}
