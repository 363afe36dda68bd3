// ABOUTME: Tests for the catalog source adapter.
// ABOUTME: Verifies the bound credential reaches every registry call.

package registry

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/connect-gateway/internal/config"
)

func TestCatalogSourceUsesBoundCredential(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/projects/proj-1/actions":
			_, _ = w.Write([]byte(`{"actions": {"slack": []}}`))
		case "/projects/proj-1/sdk/integrations":
			_, _ = w.Write([]byte(`[{"id": "int-1", "type": "slack", "name": "Slack"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client := New(config.UpstreamConfig{
		ActionsBaseURL:      server.URL,
		IntegrationsBaseURL: server.URL,
	}, "proj-1", slog.Default())
	source := NewCatalogSource(client, "deploy-cred")

	actions, err := source.Actions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, actions, "slack")

	integrations, err := source.Integrations(context.Background())
	require.NoError(t, err)
	require.Len(t, integrations, 1)

	for _, header := range seen {
		assert.Equal(t, "Bearer deploy-cred", header)
	}
	assert.Len(t, seen, 2)
}
