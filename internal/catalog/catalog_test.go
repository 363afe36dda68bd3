// ABOUTME: Tests for catalog assembly, collision detection, and filtering.
// ABOUTME: Uses a fake action source and temp files for OpenAPI and static tools.

package catalog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/connect-gateway/internal/config"
)

type fakeSource struct {
	actions         map[string][]Action
	integrations    []Integration
	actionsErr      error
	integrationsErr error
}

func (f *fakeSource) Actions(context.Context) (map[string][]Action, error) {
	return f.actions, f.actionsErr
}

func (f *fakeSource) Integrations(context.Context) ([]Integration, error) {
	return f.integrations, f.integrationsErr
}

func objectSchema(required ...string) map[string]any {
	req := make([]any, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]any{
		"type":     "object",
		"required": req,
	}
}

func testSource() *fakeSource {
	return &fakeSource{
		actions: map[string][]Action{
			"slack": {
				{Name: "SLACK_SEND_MESSAGE", Description: "Send a message", Parameters: objectSchema("channel", "text")},
			},
			"github": {
				{Name: "GITHUB_CREATE_ISSUE", Description: "Create an issue", Parameters: objectSchema("repo")},
			},
		},
		integrations: []Integration{
			{ID: "int-1", Type: "slack", Name: "Slack", Enabled: true},
			{ID: "int-2", Type: "github", Name: "GitHub", Enabled: true},
		},
	}
}

func TestBuildRegistryTools(t *testing.T) {
	builder := NewBuilder(testSource(), config.CatalogConfig{}, slog.Default())

	cat, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, cat.Len())

	tool, ok := cat.Get("SLACK_SEND_MESSAGE")
	require.True(t, ok)
	assert.Equal(t, KindRegistry, tool.Kind)
	assert.Equal(t, "slack", tool.IntegrationName)
	assert.Equal(t, []string{"channel", "text"}, tool.RequiredFields)

	// Deterministic order: integrations sorted alphabetically
	tools := cat.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "GITHUB_CREATE_ISSUE", tools[0].Name)
	assert.Equal(t, "SLACK_SEND_MESSAGE", tools[1].Name)
}

func TestBuildDuplicateToolFails(t *testing.T) {
	src := testSource()
	src.actions["github"] = append(src.actions["github"],
		Action{Name: "SLACK_SEND_MESSAGE", Description: "collides"})

	builder := NewBuilder(src, config.CatalogConfig{}, slog.Default())

	_, err := builder.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Contains(t, err.Error(), "SLACK_SEND_MESSAGE")
}

func TestBuildIntegrationAllowList(t *testing.T) {
	builder := NewBuilder(testSource(), config.CatalogConfig{
		LimitToIntegrations: []string{"slack"},
		ProxyTool:           config.ProxyToolConfig{Enabled: true},
	}, slog.Default())

	cat, err := builder.Build(context.Background())
	require.NoError(t, err)

	_, ok := cat.Get("GITHUB_CREATE_ISSUE")
	assert.False(t, ok, "github tools must be filtered out")

	_, ok = cat.Get("SLACK_SEND_MESSAGE")
	assert.True(t, ok)

	// The proxy tool's integration enum honors the allow-list too
	proxy, ok := cat.Get(ProxyToolName)
	require.True(t, ok)
	props := proxy.InputSchema["properties"].(map[string]any)
	integration := props["integration"].(map[string]any)
	assert.Equal(t, []string{"slack"}, integration["enum"])
}

func TestBuildToolAllowList(t *testing.T) {
	builder := NewBuilder(testSource(), config.CatalogConfig{
		LimitToTools: []string{"GITHUB_CREATE_ISSUE"},
	}, slog.Default())

	cat, err := builder.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, cat.Len())
	_, ok := cat.Get("GITHUB_CREATE_ISSUE")
	assert.True(t, ok)
}

func TestBuildProxyTool(t *testing.T) {
	builder := NewBuilder(testSource(), config.CatalogConfig{
		ProxyTool: config.ProxyToolConfig{Enabled: true},
	}, slog.Default())

	cat, err := builder.Build(context.Background())
	require.NoError(t, err)

	tool, ok := cat.Get(ProxyToolName)
	require.True(t, ok)
	assert.Equal(t, KindProxy, tool.Kind)
	assert.Equal(t, []string{"integration", "url", "httpMethod"}, tool.RequiredFields)

	props := tool.InputSchema["properties"].(map[string]any)
	integration := props["integration"].(map[string]any)
	assert.ElementsMatch(t, []string{"slack", "github"}, integration["enum"])
}

func TestBuildStaticTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: LOOKUP_CUSTOMER
  description: Look up a customer record
  integration: internal-crm
  input_schema:
    type: object
    properties:
      email:
        type: string
    required: [email]
`), 0o600))

	builder := NewBuilder(testSource(), config.CatalogConfig{
		StaticTools: config.StaticToolsConfig{Enabled: true, Path: path},
	}, slog.Default())

	cat, err := builder.Build(context.Background())
	require.NoError(t, err)

	tool, ok := cat.Get("LOOKUP_CUSTOMER")
	require.True(t, ok)
	assert.Equal(t, KindStatic, tool.Kind)
	assert.Equal(t, "internal-crm", tool.IntegrationName)
	assert.Equal(t, []string{"email"}, tool.RequiredFields)
}

func TestBuildSourceErrors(t *testing.T) {
	t.Run("integrations failure", func(t *testing.T) {
		src := testSource()
		src.integrationsErr = errors.New("boom")
		builder := NewBuilder(src, config.CatalogConfig{}, slog.Default())

		_, err := builder.Build(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing integrations")
	})

	t.Run("actions failure", func(t *testing.T) {
		src := testSource()
		src.actionsErr = errors.New("boom")
		builder := NewBuilder(src, config.CatalogConfig{}, slog.Default())

		_, err := builder.Build(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fetching registry actions")
	})
}
