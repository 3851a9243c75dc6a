package engine_test

import (
	"context"
	"fmt"

	"cxcheck/internal/domain"
)

// fakeLister serves fixture data keyed by parent name and records each call.
type fakeLister struct {
	agents           []domain.Agent
	flows            map[string][]domain.Flow
	flowVersions     map[string][]domain.FlowVersion
	playbooks        map[string][]domain.Playbook
	playbookVersions map[string][]domain.PlaybookVersion
	tools            map[string][]domain.Tool
	toolVersions     map[string][]domain.ToolVersion
	environments     map[string][]domain.Environment
	failOn           string
	calls            []string
}

func (f *fakeLister) record(op, parent string) error {
	call := op + " " + parent
	f.calls = append(f.calls, call)
	if f.failOn != "" && f.failOn == call {
		return fmt.Errorf("%s: permission denied", call)
	}
	return nil
}

func (f *fakeLister) ListAgents(_ context.Context, parent string) ([]domain.Agent, error) {
	if err := f.record("agents", parent); err != nil {
		return nil, err
	}
	return f.agents, nil
}

func (f *fakeLister) ListFlows(_ context.Context, agent string) ([]domain.Flow, error) {
	if err := f.record("flows", agent); err != nil {
		return nil, err
	}
	return f.flows[agent], nil
}

func (f *fakeLister) ListFlowVersions(_ context.Context, flow string) ([]domain.FlowVersion, error) {
	if err := f.record("flow_versions", flow); err != nil {
		return nil, err
	}
	return f.flowVersions[flow], nil
}

func (f *fakeLister) ListPlaybooks(_ context.Context, agent string) ([]domain.Playbook, error) {
	if err := f.record("playbooks", agent); err != nil {
		return nil, err
	}
	return f.playbooks[agent], nil
}

func (f *fakeLister) ListPlaybookVersions(_ context.Context, playbook string) ([]domain.PlaybookVersion, error) {
	if err := f.record("playbook_versions", playbook); err != nil {
		return nil, err
	}
	return f.playbookVersions[playbook], nil
}

func (f *fakeLister) ListTools(_ context.Context, agent string) ([]domain.Tool, error) {
	if err := f.record("tools", agent); err != nil {
		return nil, err
	}
	return f.tools[agent], nil
}

func (f *fakeLister) ListToolVersions(_ context.Context, tool string) ([]domain.ToolVersion, error) {
	if err := f.record("tool_versions", tool); err != nil {
		return nil, err
	}
	return f.toolVersions[tool], nil
}

func (f *fakeLister) ListEnvironments(_ context.Context, agent string) ([]domain.Environment, error) {
	if err := f.record("environments", agent); err != nil {
		return nil, err
	}
	return f.environments[agent], nil
}

func (f *fakeLister) callsOf(op string) []string {
	var out []string
	for _, c := range f.calls {
		if len(c) > len(op) && c[:len(op)+1] == op+" " {
			out = append(out, c[len(op)+1:])
		}
	}
	return out
}

func agent(id, display string) domain.Agent {
	return domain.Agent{Name: "projects/p1/locations/global/agents/" + id, DisplayName: display}
}

func webhookEnv(name string, uris ...string) domain.Environment {
	env := domain.Environment{Name: name, DisplayName: name, WebhookConfig: &domain.WebhookConfig{}}
	for i, uri := range uris {
		o := domain.WebhookOverride{Name: fmt.Sprintf("%s/webhooks/%d", name, i)}
		if uri != "" {
			o.GenericWebService = &domain.GenericWebService{URI: uri}
		}
		env.WebhookConfig.Overrides = append(env.WebhookConfig.Overrides, o)
	}
	return env
}
