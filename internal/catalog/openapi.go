// ABOUTME: OpenAPI document ingestion synthesizing tools and dispatch bindings.
// ABOUTME: Documents are matched to active integrations by filename convention.

package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// openAPIExtensions are the document file extensions the loader accepts.
var openAPIExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
}

// addOpenAPITools parses every OpenAPI document in the configured directory,
// matches each to an active integration by file name (the integration's
// stable key, or "custom.<key>" for user-defined integrations), and
// synthesizes one tool plus one binding per operation. A document with no
// matching integration is skipped, not an error.
func (b *Builder) addOpenAPITools(cat *Catalog, integrations []Integration) error {
	entries, err := os.ReadDir(b.cfg.OpenAPI.Dir)
	if err != nil {
		return fmt.Errorf("reading openapi dir: %w", err)
	}

	byKey := make(map[string]Integration, len(integrations))
	for _, i := range integrations {
		byKey[i.Type] = i
	}

	loader := openapi3.NewLoader()

	for _, entry := range entries {
		if entry.IsDir() || !openAPIExtensions[filepath.Ext(entry.Name())] {
			continue
		}

		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		integration, ok := byKey[key]
		if !ok {
			b.logger.Debug("skipping openapi document with no active integration",
				"file", entry.Name())
			continue
		}

		path := filepath.Join(b.cfg.OpenAPI.Dir, entry.Name())
		doc, err := loader.LoadFromFile(path)
		if err != nil {
			return fmt.Errorf("parsing openapi document %s: %w", entry.Name(), err)
		}

		if err := b.addDocumentTools(cat, doc, integration); err != nil {
			return fmt.Errorf("document %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// addDocumentTools converts every operation of a document into a tool and
// binding, in sorted path and method order so builds are deterministic.
func (b *Builder) addDocumentTools(cat *Catalog, doc *openapi3.T, integration Integration) error {
	var baseURL string
	if len(doc.Servers) > 0 {
		baseURL = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	pathMap := doc.Paths.Map()
	pathKeys := make([]string, 0, len(pathMap))
	for p := range pathMap {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	for _, p := range pathKeys {
		item := pathMap[p]
		ops := item.Operations()
		methods := make([]string, 0, len(ops))
		for m := range ops {
			methods = append(methods, m)
		}
		sort.Strings(methods)

		for _, method := range methods {
			op := ops[method]
			tool, binding := operationTool(method, p, baseURL, item, op, integration)
			if err := add(cat, tool, binding); err != nil {
				return err
			}
		}
	}

	return nil
}

// operationTool synthesizes the tool definition and dispatch binding for
// one OpenAPI operation.
func operationTool(method, pathTemplate, baseURL string, item *openapi3.PathItem, op *openapi3.Operation, integration Integration) (*Tool, *Binding) {
	binding := &Binding{
		Method:       method,
		PathTemplate: pathTemplate,
		BaseURL:      baseURL,
	}

	paramProps := map[string]any{}
	var required []string

	// Path-level parameters apply to every operation under the path
	for _, ref := range append(append(openapi3.Parameters{}, item.Parameters...), op.Parameters...) {
		p := ref.Value
		if p == nil {
			continue
		}
		var in ParamLocation
		switch p.In {
		case openapi3.ParameterInQuery:
			in = InQuery
		case openapi3.ParameterInPath:
			in = InPath
		default:
			// header and cookie parameters are not exposed to the agent
			continue
		}

		binding.Params = append(binding.Params, Param{
			Name:     p.Name,
			In:       in,
			Required: p.Required,
		})

		schema := schemaToMap(p.Schema)
		if p.Description != "" {
			schema["description"] = p.Description
		}
		paramProps[p.Name] = schema
		if p.Required {
			required = append(required, p.Name)
		}
	}

	properties := map[string]any{
		"params": map[string]any{
			"type":                 "object",
			"properties":           paramProps,
			"required":             required,
			"additionalProperties": false,
		},
	}

	if rb := op.RequestBody; rb != nil && rb.Value != nil {
		bodySchema := map[string]any{"type": "object", "additionalProperties": true}
		if media, ok := rb.Value.Content["application/json"]; ok && media.Schema != nil {
			bodySchema = schemaToMap(media.Schema)
		}
		properties["body"] = bodySchema
		binding.Params = append(binding.Params, Param{
			Name:     "body",
			In:       InBody,
			Required: rb.Value.Required,
		})
	}

	tool := &Tool{
		Name:            operationName(method, pathTemplate, op),
		Description:     operationDescription(op),
		IntegrationName: integration.Type,
		IntegrationID:   integration.ID,
		RequiredFields:  required,
		Kind:            KindOpenAPI,
		InputSchema: map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   []string{"params"},
		},
	}

	return tool, binding
}

// operationName prefers the document's operationId, falling back to a
// name derived from the method and path.
func operationName(method, pathTemplate string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, strings.Trim(pathTemplate, "/"))

	return strings.ToUpper(method) + "_" + sanitized
}

func operationDescription(op *openapi3.Operation) string {
	if op.Description != "" {
		return op.Description
	}
	return op.Summary
}

// schemaToMap flattens a schema ref into the plain map shape MCP clients
// expect. A missing schema degrades to an untyped string.
func schemaToMap(ref *openapi3.SchemaRef) map[string]any {
	if ref == nil || ref.Value == nil {
		return map[string]any{"type": "string"}
	}

	raw, err := json.Marshal(ref)
	if err != nil {
		return map[string]any{"type": "string"}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"type": "string"}
	}
	return m
}
