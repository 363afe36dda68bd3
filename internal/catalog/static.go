// ABOUTME: Statically defined custom tools loaded from a YAML file.
// ABOUTME: Appended verbatim to the catalog after all derived sources.

package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// staticTool is the YAML shape of one custom tool definition.
type staticTool struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Integration string         `yaml:"integration"`
	InputSchema map[string]any `yaml:"input_schema"`
}

// addStaticTools loads the configured custom tool definitions and appends
// them to the catalog. Static tools dispatch through the registry's
// perform-action endpoint under their own name.
func (b *Builder) addStaticTools(cat *Catalog) error {
	data, err := os.ReadFile(b.cfg.StaticTools.Path)
	if err != nil {
		return fmt.Errorf("reading static tools file: %w", err)
	}

	var defs []staticTool
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("parsing static tools file: %w", err)
	}

	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("static tool with empty name in %s", b.cfg.StaticTools.Path)
		}
		if !b.integrationAllowed(def.Integration) {
			continue
		}

		schema := def.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}

		tool := &Tool{
			Name:            def.Name,
			Description:     def.Description,
			IntegrationName: def.Integration,
			RequiredFields:  requiredFields(schema),
			Kind:            KindStatic,
			InputSchema:     schema,
		}
		if err := add(cat, tool, nil); err != nil {
			return err
		}
	}

	return nil
}
