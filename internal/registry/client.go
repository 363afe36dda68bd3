// ABOUTME: HTTP client for the remote action registry and integrations endpoint.
// ABOUTME: Lists actions, performs them, and enumerates connectable integrations.

package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/connect-gateway/internal/catalog"
	"github.com/2389/connect-gateway/internal/classify"
	"github.com/2389/connect-gateway/internal/config"
)

// defaultTimeout bounds every registry call; there are no retries, a
// failure surfaces immediately as a classified error.
const defaultTimeout = 30 * time.Second

// Client talks to the deployment's remote action registry.
type Client struct {
	httpClient       *http.Client
	actionsBase      string
	integrationsBase string
	projectID        string
	logger           *slog.Logger
}

// New creates a registry client for the configured upstream endpoints.
func New(upstream config.UpstreamConfig, projectID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:       &http.Client{Timeout: defaultTimeout},
		actionsBase:      upstream.ActionsBaseURL,
		integrationsBase: upstream.IntegrationsBaseURL,
		projectID:        projectID,
		logger:           logger,
	}
}

// actionsPayload is the registry's wire shape for the actions listing.
type actionsPayload struct {
	Actions map[string][]struct {
		Function struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			Parameters  map[string]any `json:"parameters"`
		} `json:"function"`
	} `json:"actions"`
}

// Actions lists every action the registry exposes for the deployment's
// integrations, keyed by integration.
func (c *Client) Actions(ctx context.Context, credential string) (map[string][]catalog.Action, error) {
	url := fmt.Sprintf("%s/projects/%s/actions?limit_to_available=false", c.actionsBase, c.projectID)

	body, err := c.do(ctx, http.MethodGet, url, credential, nil)
	if err != nil {
		return nil, err
	}

	var payload actionsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding actions response: %w", err)
	}

	actions := make(map[string][]catalog.Action, len(payload.Actions))
	for integration, list := range payload.Actions {
		// Keep the key even when the action list is empty: the integration
		// may still contribute OpenAPI or proxy tools, and the integrations
		// fallback enumerates these keys.
		actions[integration] = make([]catalog.Action, 0, len(list))
		for _, entry := range list {
			actions[integration] = append(actions[integration], catalog.Action{
				Name:        entry.Function.Name,
				Description: entry.Function.Description,
				Parameters:  entry.Function.Parameters,
			})
		}
	}
	return actions, nil
}

// Perform executes a registry action on behalf of the credential's user
// and returns the raw JSON result.
func (c *Client) Perform(ctx context.Context, credential, action string, parameters map[string]any) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/projects/%s/actions", c.actionsBase, c.projectID)

	reqBody, err := json.Marshal(map[string]any{
		"action":     action,
		"parameters": parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding action request: %w", err)
	}

	c.logger.Debug("performing registry action", "action", action)

	body, err := c.do(ctx, http.MethodPost, url, credential, reqBody)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// integrationPayload is the wire shape of one connectable integration.
type integrationPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Integrations lists the deployment's connectable integrations. When no
// integrations endpoint is configured, the set is derived from the actions
// listing instead so the catalog can still enumerate integration keys.
func (c *Client) Integrations(ctx context.Context, credential string) ([]catalog.Integration, error) {
	if c.integrationsBase == "" {
		return c.integrationsFromActions(ctx, credential)
	}

	url := fmt.Sprintf("%s/projects/%s/sdk/integrations", c.integrationsBase, c.projectID)

	body, err := c.do(ctx, http.MethodGet, url, credential, nil)
	if err != nil {
		return nil, err
	}

	var payload []integrationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding integrations response: %w", err)
	}

	integrations := make([]catalog.Integration, 0, len(payload))
	for _, p := range payload {
		integrations = append(integrations, catalog.Integration{
			ID:      p.ID,
			Type:    p.Type,
			Name:    p.Name,
			Enabled: true,
		})
	}
	return integrations, nil
}

// integrationsFromActions synthesizes the integration list from the action
// catalog's integration keys.
func (c *Client) integrationsFromActions(ctx context.Context, credential string) ([]catalog.Integration, error) {
	actions, err := c.Actions(ctx, credential)
	if err != nil {
		return nil, err
	}

	integrations := make([]catalog.Integration, 0, len(actions))
	for key := range actions {
		integrations = append(integrations, catalog.Integration{
			Type:    key,
			Name:    key,
			Enabled: true,
		})
	}
	return integrations, nil
}

// do issues one bearer-authenticated JSON request and returns the response
// body. Non-2xx responses are classified before returning.
func (c *Client) do(ctx context.Context, method, url, credential string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading registry response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify.Response(resp.StatusCode, respBody)
	}

	return respBody, nil
}
