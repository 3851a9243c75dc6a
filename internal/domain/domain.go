package domain

import "context"

type Agent struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type Flow struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type FlowVersion struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

type Playbook struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type PlaybookVersion struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Tool struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type ToolVersion struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type Environment struct {
	Name          string         `json:"name"`
	DisplayName   string         `json:"display_name"`
	WebhookConfig *WebhookConfig `json:"webhook_config,omitempty"`
}

// WebhookOverrides returns the environment's overrides, or false when the
// environment carries no webhook configuration at all.
func (e Environment) WebhookOverrides() ([]WebhookOverride, bool) {
	if e.WebhookConfig == nil {
		return nil, false
	}
	return e.WebhookConfig.Overrides, true
}

type WebhookConfig struct {
	Overrides []WebhookOverride `json:"overrides"`
}

type WebhookOverride struct {
	Name              string             `json:"name"`
	DisplayName       string             `json:"display_name,omitempty"`
	GenericWebService *GenericWebService `json:"generic_web_service,omitempty"`
}

// GenericURI returns the override's generic web service URI. Overrides backed
// by another webhook kind report false.
func (w WebhookOverride) GenericURI() (string, bool) {
	if w.GenericWebService == nil {
		return "", false
	}
	return w.GenericWebService.URI, true
}

type GenericWebService struct {
	URI string `json:"uri"`
}

// ResourceLister lists the children of a fully-qualified parent resource.
// Implementations drain every page before returning.
type ResourceLister interface {
	ListAgents(ctx context.Context, parent string) ([]Agent, error)
	ListFlows(ctx context.Context, agent string) ([]Flow, error)
	ListFlowVersions(ctx context.Context, flow string) ([]FlowVersion, error)
	ListPlaybooks(ctx context.Context, agent string) ([]Playbook, error)
	ListPlaybookVersions(ctx context.Context, playbook string) ([]PlaybookVersion, error)
	ListTools(ctx context.Context, agent string) ([]Tool, error)
	ListToolVersions(ctx context.Context, tool string) ([]ToolVersion, error)
	ListEnvironments(ctx context.Context, agent string) ([]Environment, error)
}

const (
	CheckFlowVersion     = "flow_version"
	CheckPlaybookVersion = "playbook_version"
	CheckEnvironment     = "environment"
	CheckToolVersion     = "tool_version"
	CheckWebhookOverride = "webhook_override"
)

type Check struct {
	Name   string `json:"name" enum:"flow_version,playbook_version,environment,tool_version,webhook_override"`
	Label  string `json:"label"`
	Target string `json:"target"`
	Passed bool   `json:"passed"`
}

type Report struct {
	RunID     string   `json:"run_id"`
	Project   string   `json:"project"`
	Location  string   `json:"location"`
	Agents    []string `json:"agents"`
	Checks    []Check  `json:"checks"`
	CheckedAt string   `json:"checked_at" format:"date-time"`
}

// Results maps check name to outcome.
func (r Report) Results() map[string]bool {
	out := make(map[string]bool, len(r.Checks))
	for _, c := range r.Checks {
		out[c.Name] = c.Passed
	}
	return out
}

// AllPassed reports whether every check passed. An empty report passes.
func (r Report) AllPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}
