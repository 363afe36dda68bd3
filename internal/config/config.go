// ABOUTME: Configuration loading and parsing for connect-gateway
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete connect-gateway configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Project  ProjectConfig  `yaml:"project"`
	Signing  SigningConfig  `yaml:"signing"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// BaseURL is the externally reachable URL of this gateway, used when
	// building setup links (e.g., "https://connect.example.com").
	BaseURL string `yaml:"base_url"`
}

// ProjectConfig identifies the deployment's project on the upstream services
type ProjectConfig struct {
	ID string `yaml:"id"`
}

// SigningConfig holds the deployment's RSA signing key material.
// Exactly one of Key (inline PEM) or KeyPath must be supplied.
type SigningConfig struct {
	Key     string `yaml:"key"`
	KeyPath string `yaml:"key_path"`
}

// UpstreamConfig holds base URLs of the downstream services the gateway calls
type UpstreamConfig struct {
	ActionsBaseURL      string `yaml:"actions_base_url"`
	ProxyBaseURL        string `yaml:"proxy_base_url"`
	IntegrationsBaseURL string `yaml:"integrations_base_url"`
	// ConnectWidgetURL is the CDN location of the browser connect widget
	// embedded by the setup page.
	ConnectWidgetURL string `yaml:"connect_widget_url"`
}

// CatalogConfig controls which tool sources are assembled into the catalog
type CatalogConfig struct {
	OpenAPI     OpenAPIConfig     `yaml:"openapi"`
	ProxyTool   ProxyToolConfig   `yaml:"proxy_tool"`
	StaticTools StaticToolsConfig `yaml:"static_tools"`

	// LimitToIntegrations restricts every tool source to the listed
	// integration keys. Empty means no restriction.
	LimitToIntegrations []string `yaml:"limit_to_integrations"`

	// LimitToTools filters the final catalog to the listed tool names.
	// Empty means no restriction.
	LimitToTools []string `yaml:"limit_to_tools"`

	// UserID is the acting user the gateway signs a credential for when
	// fetching registry actions at startup. Defaults to the project ID.
	UserID string `yaml:"user_id"`
}

// OpenAPIConfig controls ingestion of local OpenAPI documents
type OpenAPIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// ProxyToolConfig controls the generic raw API request tool
type ProxyToolConfig struct {
	Enabled bool `yaml:"enabled"`
}

// StaticToolsConfig controls statically defined custom tools
type StaticToolsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// DevMode accepts a plain "user" query parameter in place of a bearer
	// credential. Unsafe anywhere but local development; defaults to false
	// and must be set explicitly.
	DevMode bool `yaml:"dev_mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	defaultHTTPAddr = ":3001"
	defaultBaseURL  = "http://localhost:3001"
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = defaultHTTPAddr
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	c.Server.BaseURL = strings.TrimRight(c.Server.BaseURL, "/")
	c.Upstream.ActionsBaseURL = strings.TrimRight(c.Upstream.ActionsBaseURL, "/")
	c.Upstream.ProxyBaseURL = strings.TrimRight(c.Upstream.ProxyBaseURL, "/")
	c.Upstream.IntegrationsBaseURL = strings.TrimRight(c.Upstream.IntegrationsBaseURL, "/")
	if c.Catalog.UserID == "" {
		c.Catalog.UserID = c.Project.ID
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("project.id is required")
	}

	if c.Signing.Key == "" && c.Signing.KeyPath == "" {
		return fmt.Errorf("either signing.key or signing.key_path is required")
	}

	if c.Upstream.ActionsBaseURL == "" {
		return fmt.Errorf("upstream.actions_base_url is required")
	}
	if c.Upstream.ProxyBaseURL == "" {
		return fmt.Errorf("upstream.proxy_base_url is required")
	}

	if c.Catalog.OpenAPI.Enabled && c.Catalog.OpenAPI.Dir == "" {
		return fmt.Errorf("catalog.openapi.dir is required when catalog.openapi.enabled is true")
	}
	if c.Catalog.StaticTools.Enabled && c.Catalog.StaticTools.Path == "" {
		return fmt.Errorf("catalog.static_tools.path is required when catalog.static_tools.enabled is true")
	}

	return nil
}
