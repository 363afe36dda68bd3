// ABOUTME: Tool catalog assembly from registry actions, OpenAPI docs, and static tools.
// ABOUTME: Produces an immutable, de-duplicated, filtered catalog keyed by tool name.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/2389/connect-gateway/internal/config"
)

// ErrDuplicateTool indicates two sources defined a tool with the same name.
// Silently dropping one would make its integration unreachable without any
// signal, so this is fatal at build time.
var ErrDuplicateTool = errors.New("duplicate tool name")

// Kind tags which source a tool came from.
type Kind string

const (
	KindRegistry Kind = "registry"
	KindOpenAPI  Kind = "openapi"
	KindProxy    Kind = "proxy"
	KindStatic   Kind = "static"
)

// Tool is a single catalog entry exposed to MCP clients.
type Tool struct {
	Name            string
	Description     string
	IntegrationName string
	IntegrationID   string
	RequiredFields  []string
	Kind            Kind
	InputSchema     map[string]any
}

// ParamLocation is where an OpenAPI operation parameter is carried.
type ParamLocation string

const (
	InQuery ParamLocation = "query"
	InPath  ParamLocation = "path"
	InBody  ParamLocation = "body"
)

// Param describes one parameter of an OpenAPI-backed tool.
type Param struct {
	Name     string
	In       ParamLocation
	Required bool
}

// Binding maps an OpenAPI-backed tool to its originating operation.
// Looked up at dispatch time by tool name.
type Binding struct {
	Method       string
	PathTemplate string
	BaseURL      string
	Params       []Param
}

// Integration identifies a connectable third-party service for a deployment.
type Integration struct {
	ID      string
	Type    string
	Name    string
	Enabled bool
}

// Action is one remote registry action, already unwrapped from the
// registry's function envelope.
type Action struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ActionSource supplies the remote registry's view of the deployment:
// its available actions and its connectable integrations.
type ActionSource interface {
	Actions(ctx context.Context) (map[string][]Action, error)
	Integrations(ctx context.Context) ([]Integration, error)
}

// Catalog is the immutable-after-build tool catalog. It is built once at
// startup and shared by concurrent readers without locking.
type Catalog struct {
	tools    map[string]*Tool
	order    []string
	bindings map[string]*Binding
}

// Get returns the tool with the given name.
func (c *Catalog) Get(name string) (*Tool, bool) {
	t, ok := c.tools[name]
	return t, ok
}

// Tools returns every catalog entry in deterministic build order.
func (c *Catalog) Tools() []*Tool {
	result := make([]*Tool, 0, len(c.order))
	for _, name := range c.order {
		result = append(result, c.tools[name])
	}
	return result
}

// Binding returns the OpenAPI binding for the named tool, if it has one.
func (c *Catalog) Binding(name string) (*Binding, bool) {
	b, ok := c.bindings[name]
	return b, ok
}

// Len returns the number of tools in the catalog.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Builder assembles the catalog from its configured sources.
type Builder struct {
	source ActionSource
	cfg    config.CatalogConfig
	logger *slog.Logger
}

// NewBuilder creates a catalog builder. The source provides registry
// actions and the integration list; cfg selects and filters the sources.
func NewBuilder(source ActionSource, cfg config.CatalogConfig, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, cfg: cfg, logger: logger}
}

// Build assembles the full catalog in fixed order: registry actions,
// OpenAPI documents, the generic proxy tool, then static custom tools.
// Duplicate tool names across sources fail with ErrDuplicateTool.
func (b *Builder) Build(ctx context.Context) (*Catalog, error) {
	cat := &Catalog{
		tools:    make(map[string]*Tool),
		bindings: make(map[string]*Binding),
	}

	integrations, err := b.source.Integrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing integrations: %w", err)
	}
	integrations = b.filterIntegrations(integrations)

	if err := b.addRegistryTools(ctx, cat); err != nil {
		return nil, err
	}

	if b.cfg.OpenAPI.Enabled {
		if err := b.addOpenAPITools(cat, integrations); err != nil {
			return nil, err
		}
	}

	if b.cfg.ProxyTool.Enabled {
		if err := add(cat, proxyTool(integrations), nil); err != nil {
			return nil, err
		}
	}

	if b.cfg.StaticTools.Enabled {
		if err := b.addStaticTools(cat); err != nil {
			return nil, err
		}
	}

	b.applyToolFilter(cat)

	b.logger.Info("tool catalog built",
		"tools", cat.Len(),
		"integrations", len(integrations),
	)

	return cat, nil
}

// addRegistryTools converts every remote registry action into a catalog
// entry, restricted to allowed integrations, in sorted integration order.
func (b *Builder) addRegistryTools(ctx context.Context, cat *Catalog) error {
	actions, err := b.source.Actions(ctx)
	if err != nil {
		return fmt.Errorf("fetching registry actions: %w", err)
	}

	keys := make([]string, 0, len(actions))
	for key := range actions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, integration := range keys {
		if !b.integrationAllowed(integration) {
			continue
		}
		for _, action := range actions[integration] {
			tool := &Tool{
				Name:            action.Name,
				Description:     action.Description,
				IntegrationName: integration,
				RequiredFields:  requiredFields(action.Parameters),
				Kind:            KindRegistry,
				InputSchema:     action.Parameters,
			}
			if err := add(cat, tool, nil); err != nil {
				return err
			}
		}
	}

	return nil
}

// add inserts a tool (and optional binding), failing on a name collision.
func add(cat *Catalog, tool *Tool, binding *Binding) error {
	if existing, ok := cat.tools[tool.Name]; ok {
		return fmt.Errorf("%w: %q from %s source already defined by %s source",
			ErrDuplicateTool, tool.Name, tool.Kind, existing.Kind)
	}
	cat.tools[tool.Name] = tool
	cat.order = append(cat.order, tool.Name)
	if binding != nil {
		cat.bindings[tool.Name] = binding
	}
	return nil
}

// filterIntegrations applies the integration allow-list.
func (b *Builder) filterIntegrations(integrations []Integration) []Integration {
	if len(b.cfg.LimitToIntegrations) == 0 {
		return integrations
	}
	var result []Integration
	for _, i := range integrations {
		if b.integrationAllowed(i.Type) {
			result = append(result, i)
		}
	}
	return result
}

func (b *Builder) integrationAllowed(key string) bool {
	if len(b.cfg.LimitToIntegrations) == 0 {
		return true
	}
	for _, allowed := range b.cfg.LimitToIntegrations {
		if allowed == key {
			return true
		}
	}
	return false
}

// applyToolFilter restricts the final catalog to the tool allow-list.
func (b *Builder) applyToolFilter(cat *Catalog) {
	if len(b.cfg.LimitToTools) == 0 {
		return
	}

	allowed := make(map[string]struct{}, len(b.cfg.LimitToTools))
	for _, name := range b.cfg.LimitToTools {
		allowed[name] = struct{}{}
	}

	var order []string
	for _, name := range cat.order {
		if _, ok := allowed[name]; ok {
			order = append(order, name)
			continue
		}
		delete(cat.tools, name)
		delete(cat.bindings, name)
	}
	cat.order = order
}

// requiredFields extracts the ordered "required" list from a JSON schema.
func requiredFields(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			fields = append(fields, s)
		}
	}
	return fields
}
