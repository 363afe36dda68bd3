// ABOUTME: Tests for configuration loading, env expansion, defaults, and validation.
// ABOUTME: Uses temp files to exercise the full Load path.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
  base_url: "https://connect.example.com/"
project:
  id: "proj-123"
signing:
  key_path: "/etc/connect/signing.pem"
upstream:
  actions_base_url: "https://actions.example.com/"
  proxy_base_url: "https://proxy.example.com"
catalog:
  limit_to_integrations: ["slack", "github"]
auth:
  dev_mode: true
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	// Trailing slashes are trimmed so URL joins stay predictable
	assert.Equal(t, "https://connect.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "https://actions.example.com", cfg.Upstream.ActionsBaseURL)
	assert.Equal(t, "proj-123", cfg.Project.ID)
	assert.Equal(t, []string{"slack", "github"}, cfg.Catalog.LimitToIntegrations)
	assert.True(t, cfg.Auth.DevMode)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
project:
  id: "proj-123"
signing:
  key: "inline-key"
upstream:
  actions_base_url: "https://actions.example.com"
  proxy_base_url: "https://proxy.example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.Server.HTTPAddr)
	assert.Equal(t, "http://localhost:3001", cfg.Server.BaseURL)
	// Catalog user falls back to the project ID
	assert.Equal(t, "proj-123", cfg.Catalog.UserID)
	assert.False(t, cfg.Auth.DevMode)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_CONNECT_PROJECT", "proj-from-env")
	t.Setenv("TEST_CONNECT_KEY", "pem-from-env")

	path := writeConfig(t, `
project:
  id: "${TEST_CONNECT_PROJECT}"
signing:
  key: "${TEST_CONNECT_KEY}"
upstream:
  actions_base_url: "https://actions.example.com"
  proxy_base_url: "https://proxy.example.com"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "proj-from-env", cfg.Project.ID)
	assert.Equal(t, "pem-from-env", cfg.Signing.Key)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Project: ProjectConfig{ID: "proj"},
			Signing: SigningConfig{Key: "pem"},
			Upstream: UpstreamConfig{
				ActionsBaseURL: "https://actions.example.com",
				ProxyBaseURL:   "https://proxy.example.com",
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("missing project id", func(t *testing.T) {
		cfg := base()
		cfg.Project.ID = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "project.id")
	})

	t.Run("missing signing material", func(t *testing.T) {
		cfg := base()
		cfg.Signing = SigningConfig{}
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "signing.key")
	})

	t.Run("openapi enabled without dir", func(t *testing.T) {
		cfg := base()
		cfg.Catalog.OpenAPI.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog.openapi.dir")
	})

	t.Run("static tools enabled without path", func(t *testing.T) {
		cfg := base()
		cfg.Catalog.StaticTools.Enabled = true
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog.static_tools.path")
	})
}
