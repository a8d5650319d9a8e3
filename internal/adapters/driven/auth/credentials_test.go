package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/ragmem/internal/core/domain"
)

func TestEnvCredentials(t *testing.T) {
	t.Run("environment variable wins", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "KEY_from_env")
		dir := t.TempDir()
		writeEnvFile(t, dir, "KEY_from_file")

		key, err := NewEnvCredentials(dir).APIKey()

		require.NoError(t, err)
		assert.Equal(t, "KEY_from_env", key)
	})

	t.Run("falls back to .env file", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")
		dir := t.TempDir()
		writeEnvFile(t, dir, "KEY_from_file")

		key, err := NewEnvCredentials(dir).APIKey()

		require.NoError(t, err)
		assert.Equal(t, "KEY_from_file", key)
	})

	t.Run("no key anywhere", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "")

		_, err := NewEnvCredentials(t.TempDir()).APIKey()

		assert.ErrorIs(t, err, domain.ErrNoCredentials)
	})

	t.Run("key is cached after first resolution", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "KEY_first")
		provider := NewEnvCredentials(t.TempDir())

		key, err := provider.APIKey()
		require.NoError(t, err)
		require.Equal(t, "KEY_first", key)

		t.Setenv(APIKeyEnv, "KEY_second")
		key, err = provider.APIKey()
		require.NoError(t, err)
		assert.Equal(t, "KEY_first", key)
	})
}

func writeEnvFile(t *testing.T, dir, key string) {
	t.Helper()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(APIKeyEnv+"="+key+"\n"), 0o600))
}
