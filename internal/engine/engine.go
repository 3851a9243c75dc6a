package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cxcheck/internal/config"
	"cxcheck/internal/domain"
)

// Engine runs the post-deployment checks against one project.
type Engine struct {
	Client  domain.ResourceLister
	Config  *config.Config
	Project string
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

// New builds an engine for the resolved project.
func New(client domain.ResourceLister, cfg *config.Config, project string, logger *zap.Logger) Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Engine{
		Client:  client,
		Config:  cfg,
		Project: project,
		Logger:  logger,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

// Agents lists the agents of the project and keeps those whose display name
// contains the configured prefix, ignoring case.
func (e Engine) Agents(ctx context.Context) ([]domain.Agent, error) {
	parent := e.Config.Parent(e.Project)
	all, err := e.Client.ListAgents(ctx, parent)
	if err != nil {
		return nil, err
	}
	agents := FilterAgents(all, e.Config.AgentPrefix)
	e.Logger.Debug("agents filtered",
		zap.String("parent", parent),
		zap.Int("listed", len(all)),
		zap.Int("matched", len(agents)))
	return agents, nil
}

// FilterAgents keeps agents whose display name contains prefix, ignoring case.
// Input order is preserved.
func FilterAgents(agents []domain.Agent, prefix string) []domain.Agent {
	needle := strings.ToLower(prefix)
	out := make([]domain.Agent, 0, len(agents))
	for _, a := range agents {
		if strings.Contains(strings.ToLower(a.DisplayName), needle) {
			out = append(out, a)
		}
	}
	return out
}

// FlowVersionExists reports whether any flow version display name contains
// target.
func (e Engine) FlowVersionExists(ctx context.Context, agents []domain.Agent, target string) (bool, error) {
	return existsUnder(ctx, agents,
		e.Client.ListFlows, func(f domain.Flow) string { return f.Name },
		e.Client.ListFlowVersions, func(v domain.FlowVersion) string { return v.DisplayName },
		contains(target))
}

// PlaybookVersionExists reports whether any playbook version description
// contains target. Playbook versions carry no display name.
func (e Engine) PlaybookVersionExists(ctx context.Context, agents []domain.Agent, target string) (bool, error) {
	return existsUnder(ctx, agents,
		e.Client.ListPlaybooks, func(p domain.Playbook) string { return p.Name },
		e.Client.ListPlaybookVersions, func(v domain.PlaybookVersion) string { return v.Description },
		contains(target))
}

// ToolVersionExists always reports false in stub mode without calling the
// API. In rest mode it matches tool version display names.
func (e Engine) ToolVersionExists(ctx context.Context, agents []domain.Agent, target string) (bool, error) {
	if e.Config.Modes.ToolVersions != config.ToolVersionsREST {
		return false, nil
	}
	return existsUnder(ctx, agents,
		e.Client.ListTools, func(t domain.Tool) string { return t.Name },
		e.Client.ListToolVersions, func(v domain.ToolVersion) string { return v.DisplayName },
		contains(target))
}

// EnvironmentMatches reports whether any agent has an environment selected by
// target. In self mode every environment is selected, so target is ignored.
func (e Engine) EnvironmentMatches(ctx context.Context, agents []domain.Agent, target string) (bool, error) {
	e.warnSelfMatch(target)
	for _, a := range agents {
		envs, err := e.Client.ListEnvironments(ctx, a.Name)
		if err != nil {
			return false, err
		}
		for _, env := range envs {
			if e.selects(env, target) {
				return true, nil
			}
		}
	}
	return false, nil
}

// WebhookOverrideMatches reports whether a selected environment has a generic
// webhook override whose URI contains suffix. The first selected environment
// without webhook configuration ends the search with false.
func (e Engine) WebhookOverrideMatches(ctx context.Context, agents []domain.Agent, envName, suffix string) (bool, error) {
	e.warnSelfMatch(envName)
	for _, a := range agents {
		envs, err := e.Client.ListEnvironments(ctx, a.Name)
		if err != nil {
			return false, err
		}
		for _, env := range envs {
			if !e.selects(env, envName) {
				continue
			}
			overrides, ok := env.WebhookOverrides()
			if !ok {
				e.Logger.Debug("environment has no webhook config", zap.String("environment", env.Name))
				return false, nil
			}
			for _, o := range overrides {
				uri, ok := o.GenericURI()
				if !ok {
					continue
				}
				if strings.Contains(uri, suffix) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

// Run filters agents once and runs every check in sequence. The first listing
// error aborts the run.
func (e Engine) Run(ctx context.Context) (domain.Report, error) {
	report := domain.Report{
		RunID:    e.NewID(),
		Project:  e.Project,
		Location: e.Config.Location,
	}
	log := e.Logger.With(zap.String("run_id", report.RunID))
	log.Info("checks starting", zap.String("project", e.Project), zap.String("location", e.Config.Location))

	agents, err := e.Agents(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	report.Agents = make([]string, 0, len(agents))
	for _, a := range agents {
		report.Agents = append(report.Agents, a.Name)
	}

	c := e.Config.Checks
	flow, err := e.FlowVersionExists(ctx, agents, c.FlowVersion)
	if err != nil {
		return domain.Report{}, fmt.Errorf("flow version check: %w", err)
	}
	playbook, err := e.PlaybookVersionExists(ctx, agents, c.PlaybookVersion)
	if err != nil {
		return domain.Report{}, fmt.Errorf("playbook version check: %w", err)
	}
	tool, err := e.ToolVersionExists(ctx, agents, c.ToolVersion)
	if err != nil {
		return domain.Report{}, fmt.Errorf("tool version check: %w", err)
	}
	env, err := e.EnvironmentMatches(ctx, agents, e.Config.Environment)
	if err != nil {
		return domain.Report{}, fmt.Errorf("environment check: %w", err)
	}
	webhook, err := e.WebhookOverrideMatches(ctx, agents, e.Config.Environment, c.WebhookSuffix)
	if err != nil {
		return domain.Report{}, fmt.Errorf("webhook override check: %w", err)
	}

	report.Checks = []domain.Check{
		{Name: domain.CheckFlowVersion, Label: "Flow version created", Target: c.FlowVersion, Passed: flow},
		{Name: domain.CheckPlaybookVersion, Label: "Playbook version created", Target: c.PlaybookVersion, Passed: playbook},
		{Name: domain.CheckEnvironment, Label: "Environment matches", Target: e.Config.Environment, Passed: env},
		{Name: domain.CheckToolVersion, Label: "Tool version created", Target: c.ToolVersion, Passed: tool},
		{Name: domain.CheckWebhookOverride, Label: "Webhook override matches", Target: c.WebhookSuffix, Passed: webhook},
	}
	report.CheckedAt = e.Now().UTC().Format(time.RFC3339)
	log.Info("checks finished", zap.Int("agents", len(agents)), zap.Bool("all_passed", report.AllPassed()))
	return report, nil
}

// selects applies the configured environment selection rule.
func (e Engine) selects(env domain.Environment, target string) bool {
	name := strings.ToLower(env.DisplayName)
	if e.Config.Modes.EnvironmentMatch == config.EnvironmentMatchTarget {
		return strings.Contains(name, strings.ToLower(target))
	}
	// Self comparison: always true.
	return strings.Contains(name, name)
}

func (e Engine) warnSelfMatch(target string) {
	if e.Config.Modes.EnvironmentMatch == config.EnvironmentMatchTarget {
		return
	}
	e.Logger.Warn("environment selection ignores the configured environment; set modes.environment_match=target to compare it",
		zap.String("environment", target))
}

func contains(target string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, target) }
}

// existsUnder walks agent -> child -> grandchild and reports whether any
// grandchild field satisfies match. It stops at the first match.
func existsUnder[C, G any](
	ctx context.Context,
	agents []domain.Agent,
	listChildren func(context.Context, string) ([]C, error),
	childName func(C) string,
	listGrandchildren func(context.Context, string) ([]G, error),
	field func(G) string,
	match func(string) bool,
) (bool, error) {
	for _, a := range agents {
		children, err := listChildren(ctx, a.Name)
		if err != nil {
			return false, err
		}
		for _, child := range children {
			grandchildren, err := listGrandchildren(ctx, childName(child))
			if err != nil {
				return false, err
			}
			for _, g := range grandchildren {
				if match(field(g)) {
					return true, nil
				}
			}
		}
	}
	return false, nil
}
