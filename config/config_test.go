package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults when nothing is set", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "sqlite", cfg.CacheBackend)
		assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
		assert.Equal(t, "merged.json", cfg.DataMergedDocument)
		assert.Equal(t, "wd.json", cfg.DataWikidataDocument)
		assert.Equal(t, "myndigheter:dataset:v1", cfg.CacheKey)
		assert.Equal(t, ":3000", cfg.Address())
	})

	t.Run("should read values from an env file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte("CACHE_BACKEND=memory\nCACHE_TTL=2h\n"), 0o600))
		t.Cleanup(func() {
			os.Unsetenv("CACHE_BACKEND")
			os.Unsetenv("CACHE_TTL")
		})

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.CacheBackend)
		assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	})

	t.Run("should reject an unknown cache backend", func(t *testing.T) {
		t.Setenv("CACHE_BACKEND", "localstorage")

		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CacheBackend")
	})

	t.Run("should reject a base url that is not a url", func(t *testing.T) {
		t.Setenv("DATA_BASE_URL", "not a url")

		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DataBaseURL")
	})
}
