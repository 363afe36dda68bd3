// ABOUTME: Dispatches tool invocations to the action registry or the HTTP proxy.
// ABOUTME: Fills OpenAPI path templates, builds query strings, and classifies failures.

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/2389/connect-gateway/internal/auth"
	"github.com/2389/connect-gateway/internal/catalog"
	"github.com/2389/connect-gateway/internal/classify"
	"github.com/2389/connect-gateway/internal/config"
)

// ErrUnknownTool indicates an invocation of a tool the catalog does not hold.
var ErrUnknownTool = errors.New("unknown tool")

const (
	proxyURLHeader       = "X-Connect-Proxy-Url"
	rawResponseHeader    = "X-Connect-Use-Raw-Response"
	slackTokenTypeHeader = "X-Connect-Use-Slack-Token-Type"

	defaultTimeout = 30 * time.Second
)

// Performer executes a named registry action on behalf of a credential.
type Performer interface {
	Perform(ctx context.Context, credential, action string, parameters map[string]any) (json.RawMessage, error)
}

// Dispatcher routes tool calls to the right upstream based on the tool's
// catalog kind. Registry and static tools go through the action registry;
// OpenAPI and proxy tools go through the HTTP proxy with the target URL
// carried in a forwarding header.
type Dispatcher struct {
	catalog    *catalog.Catalog
	performer  Performer
	httpClient *http.Client
	proxyBase  string
	projectID  string
	logger     *slog.Logger
}

// New creates a dispatcher over the given catalog and registry performer.
func New(cat *catalog.Catalog, performer Performer, upstream config.UpstreamConfig, projectID string, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		catalog:    cat,
		performer:  performer,
		httpClient: &http.Client{Timeout: defaultTimeout},
		proxyBase:  upstream.ProxyBaseURL,
		projectID:  projectID,
		logger:     logger,
	}
}

// Invoke executes the named tool with the given arguments under the caller's
// identity and returns the upstream response body as text.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args map[string]any, identity auth.Identity) (string, error) {
	tool, ok := d.catalog.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	d.logger.Debug("dispatching tool", "tool", name, "kind", tool.Kind, "user", identity.UserID)

	switch tool.Kind {
	case catalog.KindOpenAPI:
		binding, ok := d.catalog.Binding(name)
		if !ok {
			return "", fmt.Errorf("%w: %s has no binding", ErrUnknownTool, name)
		}
		return d.invokeOpenAPI(ctx, tool, binding, args, identity)
	case catalog.KindProxy:
		return d.invokeProxy(ctx, args, identity)
	default:
		return d.invokeRegistry(ctx, tool, args, identity)
	}
}

func (d *Dispatcher) invokeRegistry(ctx context.Context, tool *catalog.Tool, args map[string]any, identity auth.Identity) (string, error) {
	result, err := d.performer.Perform(ctx, identity.Token, tool.Name, args)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

var pathParamPattern = regexp.MustCompile(`\{(\w+)\}`)

func (d *Dispatcher) invokeOpenAPI(ctx context.Context, tool *catalog.Tool, binding *catalog.Binding, args map[string]any, identity auth.Identity) (string, error) {
	params, _ := args["params"].(map[string]any)

	// Unresolved placeholders collapse to an empty segment rather than
	// failing the call; the upstream API reports the real problem.
	path := pathParamPattern.ReplaceAllStringFunc(binding.PathTemplate, func(match string) string {
		key := match[1 : len(match)-1]
		value, ok := params[key]
		if !ok {
			return ""
		}
		return url.PathEscape(stringifyValue(value))
	})

	query := url.Values{}
	for _, p := range binding.Params {
		if p.In != catalog.InQuery {
			continue
		}
		if value, ok := params[p.Name]; ok && truthy(value) {
			query.Set(p.Name, stringifyValue(value))
		}
	}

	target := binding.BaseURL + path + "?" + query.Encode()

	var body io.Reader
	if binding.Method != http.MethodGet {
		payload := args["body"]
		if payload == nil {
			payload = map[string]any{}
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	headers := http.Header{}
	headers.Set(rawResponseHeader, "true")

	return d.sendProxied(ctx, binding.Method, tool.IntegrationName, target, body, headers, identity)
}

func (d *Dispatcher) invokeProxy(ctx context.Context, args map[string]any, identity auth.Identity) (string, error) {
	integration, _ := args["integration"].(string)
	target, _ := args["url"].(string)
	method, _ := args["httpMethod"].(string)
	if integration == "" || target == "" || method == "" {
		return "", errors.New("integration, url, and httpMethod are required")
	}
	method = strings.ToUpper(method)

	if queryParams, ok := args["queryParams"].(map[string]any); ok && len(queryParams) > 0 {
		query := url.Values{}
		for key, value := range queryParams {
			query.Set(key, stringifyValue(value))
		}
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target = target + separator + query.Encode()
	}

	headers := http.Header{}
	if callerHeaders, ok := args["headers"].(map[string]any); ok {
		for key, value := range callerHeaders {
			// The proxy injects the integration's own credentials.
			if strings.EqualFold(key, "Authorization") {
				continue
			}
			headers.Set(key, stringifyValue(value))
		}
	}
	if strings.EqualFold(integration, "slack") {
		headers.Set(slackTokenTypeHeader, "user")
	}

	var body io.Reader
	if method != http.MethodGet {
		if payload, ok := args["body"]; ok && payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return "", fmt.Errorf("encode request body: %w", err)
			}
			body = bytes.NewReader(encoded)
		}
	}

	return d.sendProxied(ctx, method, integration, target, body, headers, identity)
}

// sendProxied issues the call through the proxy endpoint, carrying the real
// target URL in a forwarding header.
func (d *Dispatcher) sendProxied(ctx context.Context, method, integration, target string, body io.Reader, headers http.Header, identity auth.Identity) (string, error) {
	// The integration key travels verbatim; user-defined keys are
	// case-sensitive on the upstream side.
	endpoint := fmt.Sprintf("%s/projects/%s/sdk/proxy/%s", d.proxyBase, d.projectID, integration)

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build proxy request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+identity.Token)
	req.Header.Set(proxyURLHeader, target)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("proxy request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read proxy response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classify.Response(resp.StatusCode, responseBody)
	}
	return string(responseBody), nil
}

// stringifyValue renders a decoded JSON value for use in a URL component.
func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

// truthy mirrors loose boolean coercion for query parameter filtering: empty
// strings, zero numbers, false, and null are all omitted.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	default:
		return true
	}
}
