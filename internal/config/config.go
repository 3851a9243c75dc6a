package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	GlobalLocation = "global"
	serviceHost    = "dialogflow.googleapis.com"

	EnvironmentMatchSelf   = "self"
	EnvironmentMatchTarget = "target"

	ToolVersionsStub = "stub"
	ToolVersionsREST = "rest"
)

// Config models cxcheck.yml.
type Config struct {
	Project     string `yaml:"project" json:"project"`
	Location    string `yaml:"location" json:"location"`
	AgentPrefix string `yaml:"agent_prefix" json:"agent_prefix"`
	Environment string `yaml:"environment" json:"environment"`
	Checks      struct {
		FlowVersion     string `yaml:"flow_version" json:"flow_version"`
		PlaybookVersion string `yaml:"playbook_version" json:"playbook_version"`
		ToolVersion     string `yaml:"tool_version" json:"tool_version"`
		WebhookSuffix   string `yaml:"webhook_suffix" json:"webhook_suffix"`
	} `yaml:"checks" json:"checks"`
	Modes struct {
		// EnvironmentMatch selects how environments are matched against
		// Environment: "self" compares each display name with itself.
		EnvironmentMatch string `yaml:"environment_match" json:"environment_match"`
		ToolVersions     string `yaml:"tool_versions" json:"tool_versions"`
	} `yaml:"modes" json:"modes"`
}

// Validate ensures the config meets required structure. Project may be empty;
// it is resolved from credentials at run time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Location) == "" {
		return fmt.Errorf("config.location is required")
	}
	if strings.ContainsAny(c.Location, "/. ") {
		return fmt.Errorf("config.location %q is not a valid location id", c.Location)
	}
	if c.Checks.FlowVersion == "" {
		return fmt.Errorf("config.checks.flow_version is required")
	}
	if c.Checks.PlaybookVersion == "" {
		return fmt.Errorf("config.checks.playbook_version is required")
	}
	if c.Checks.ToolVersion == "" {
		return fmt.Errorf("config.checks.tool_version is required")
	}
	if c.Checks.WebhookSuffix == "" {
		return fmt.Errorf("config.checks.webhook_suffix is required")
	}
	switch c.Modes.EnvironmentMatch {
	case EnvironmentMatchSelf, EnvironmentMatchTarget:
	default:
		return fmt.Errorf("config.modes.environment_match must be %q or %q", EnvironmentMatchSelf, EnvironmentMatchTarget)
	}
	switch c.Modes.ToolVersions {
	case ToolVersionsStub, ToolVersionsREST:
	default:
		return fmt.Errorf("config.modes.tool_versions must be %q or %q", ToolVersionsStub, ToolVersionsREST)
	}
	if c.Modes.EnvironmentMatch == EnvironmentMatchTarget && c.Environment == "" {
		return fmt.Errorf("config.environment is required when environment_match is %q", EnvironmentMatchTarget)
	}
	return nil
}

// Endpoint returns the API host:port serving the configured location.
func (c *Config) Endpoint() string {
	return Endpoint(c.Location)
}

// Endpoint maps a location to its API host:port. The global location uses
// the non-regional host.
func Endpoint(location string) string {
	if location == "" || location == GlobalLocation {
		return serviceHost + ":443"
	}
	return location + "-" + serviceHost + ":443"
}

// Parent returns the agent listing parent for the project and location.
func (c *Config) Parent(project string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, c.Location)
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses config from raw YAML bytes on top of the defaults and
// validates the result.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate one with cxcheck config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `# project is resolved from credentials when empty
project: ""
location: global
agent_prefix: Zermatt
environment: prod

checks:
  flow_version: "1.0.0"
  playbook_version: "1.0.0"
  tool_version: "1.0.0"
  webhook_suffix: "v1.0.2"

modes:
  # self: every environment matches (target is ignored); target: substring match on environment
  environment_match: self
  # stub: tool versions are never listed; rest: list through the REST API
  tool_versions: stub
`
