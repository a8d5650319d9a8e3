// Package auth resolves the Telnyx API key used by the storage and
// AI clients. Resolution order: process environment first, then a
// .env file in the workspace root.
package auth

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/logger"
)

// Ensure EnvCredentials implements the interface.
var _ driven.CredentialsProvider = (*EnvCredentials)(nil)

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "TELNYX_API_KEY"

// EnvCredentials resolves the API key from the environment, falling
// back to a .env file next to the workspace. The key is resolved once
// and cached for the lifetime of the process.
type EnvCredentials struct {
	workspace string

	once sync.Once
	key  string
}

// NewEnvCredentials creates a provider looking for a .env file under
// the given workspace directory.
func NewEnvCredentials(workspace string) *EnvCredentials {
	return &EnvCredentials{workspace: workspace}
}

// APIKey returns the resolved key or domain.ErrNoCredentials.
func (c *EnvCredentials) APIKey() (string, error) {
	c.once.Do(func() {
		if key := os.Getenv(APIKeyEnv); key != "" {
			c.key = key
			return
		}

		envFile := filepath.Join(c.workspace, ".env")
		vars, err := godotenv.Read(envFile)
		if err != nil {
			logger.Debug("No .env file at %s: %v", envFile, err)
			return
		}
		c.key = vars[APIKeyEnv]
	})

	if c.key == "" {
		return "", domain.ErrNoCredentials
	}
	return c.key, nil
}
