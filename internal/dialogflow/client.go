// Package dialogflow adapts the Dialogflow CX v3beta1 management API to
// domain.ResourceLister.
package dialogflow

import (
	"context"
	"errors"
	"fmt"

	cx "cloud.google.com/go/dialogflow/cx/apiv3beta1"
	"cloud.google.com/go/dialogflow/cx/apiv3beta1/cxpb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"cxcheck/internal/domain"
)

// ErrToolVersionsUnsupported is returned by ListToolVersions when no REST
// client is attached; the gRPC client library has no tool-version listing.
var ErrToolVersionsUnsupported = errors.New("tool version listing requires the REST client")

// ToolVersionLister lists tool versions outside the gRPC surface.
type ToolVersionLister interface {
	ListToolVersions(ctx context.Context, tool string) ([]domain.ToolVersion, error)
}

// Client implements domain.ResourceLister over the gRPC management clients.
type Client struct {
	agents       *cx.AgentsClient
	flows        *cx.FlowsClient
	versions     *cx.VersionsClient
	playbooks    *cx.PlaybooksClient
	tools        *cx.ToolsClient
	environments *cx.EnvironmentsClient

	// ToolVersions serves ListToolVersions when set.
	ToolVersions ToolVersionLister
}

var _ domain.ResourceLister = (*Client)(nil)

// New dials every management client against endpoint. An empty endpoint
// leaves endpoint selection to opts.
func New(ctx context.Context, endpoint string, opts ...option.ClientOption) (*Client, error) {
	if endpoint != "" {
		opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
	}
	c := &Client{}
	var err error
	if c.agents, err = cx.NewAgentsClient(ctx, opts...); err != nil {
		return nil, fmt.Errorf("agents client: %w", err)
	}
	if c.flows, err = cx.NewFlowsClient(ctx, opts...); err != nil {
		c.Close()
		return nil, fmt.Errorf("flows client: %w", err)
	}
	if c.versions, err = cx.NewVersionsClient(ctx, opts...); err != nil {
		c.Close()
		return nil, fmt.Errorf("versions client: %w", err)
	}
	if c.playbooks, err = cx.NewPlaybooksClient(ctx, opts...); err != nil {
		c.Close()
		return nil, fmt.Errorf("playbooks client: %w", err)
	}
	if c.tools, err = cx.NewToolsClient(ctx, opts...); err != nil {
		c.Close()
		return nil, fmt.Errorf("tools client: %w", err)
	}
	if c.environments, err = cx.NewEnvironmentsClient(ctx, opts...); err != nil {
		c.Close()
		return nil, fmt.Errorf("environments client: %w", err)
	}
	return c, nil
}

// Close releases every dialed client.
func (c *Client) Close() error {
	var errs []error
	if c.agents != nil {
		errs = append(errs, c.agents.Close())
	}
	if c.flows != nil {
		errs = append(errs, c.flows.Close())
	}
	if c.versions != nil {
		errs = append(errs, c.versions.Close())
	}
	if c.playbooks != nil {
		errs = append(errs, c.playbooks.Close())
	}
	if c.tools != nil {
		errs = append(errs, c.tools.Close())
	}
	if c.environments != nil {
		errs = append(errs, c.environments.Close())
	}
	return errors.Join(errs...)
}

func (c *Client) ListAgents(ctx context.Context, parent string) ([]domain.Agent, error) {
	it := c.agents.ListAgents(ctx, &cxpb.ListAgentsRequest{Parent: parent})
	out, err := drain[*cxpb.Agent](it, func(a *cxpb.Agent) domain.Agent {
		return domain.Agent{Name: a.GetName(), DisplayName: a.GetDisplayName()}
	})
	if err != nil {
		return nil, fmt.Errorf("list agents under %s: %w", parent, err)
	}
	return out, nil
}

func (c *Client) ListFlows(ctx context.Context, agent string) ([]domain.Flow, error) {
	it := c.flows.ListFlows(ctx, &cxpb.ListFlowsRequest{Parent: agent})
	out, err := drain[*cxpb.Flow](it, func(f *cxpb.Flow) domain.Flow {
		return domain.Flow{Name: f.GetName(), DisplayName: f.GetDisplayName()}
	})
	if err != nil {
		return nil, fmt.Errorf("list flows of %s: %w", agent, err)
	}
	return out, nil
}

func (c *Client) ListFlowVersions(ctx context.Context, flow string) ([]domain.FlowVersion, error) {
	it := c.versions.ListVersions(ctx, &cxpb.ListVersionsRequest{Parent: flow})
	out, err := drain[*cxpb.Version](it, func(v *cxpb.Version) domain.FlowVersion {
		return domain.FlowVersion{Name: v.GetName(), DisplayName: v.GetDisplayName(), Description: v.GetDescription()}
	})
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", flow, err)
	}
	return out, nil
}

func (c *Client) ListPlaybooks(ctx context.Context, agent string) ([]domain.Playbook, error) {
	it := c.playbooks.ListPlaybooks(ctx, &cxpb.ListPlaybooksRequest{Parent: agent})
	out, err := drain[*cxpb.Playbook](it, func(p *cxpb.Playbook) domain.Playbook {
		return domain.Playbook{Name: p.GetName(), DisplayName: p.GetDisplayName()}
	})
	if err != nil {
		return nil, fmt.Errorf("list playbooks of %s: %w", agent, err)
	}
	return out, nil
}

func (c *Client) ListPlaybookVersions(ctx context.Context, playbook string) ([]domain.PlaybookVersion, error) {
	it := c.playbooks.ListPlaybookVersions(ctx, &cxpb.ListPlaybookVersionsRequest{Parent: playbook})
	out, err := drain[*cxpb.PlaybookVersion](it, func(v *cxpb.PlaybookVersion) domain.PlaybookVersion {
		return domain.PlaybookVersion{Name: v.GetName(), Description: v.GetDescription()}
	})
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", playbook, err)
	}
	return out, nil
}

func (c *Client) ListTools(ctx context.Context, agent string) ([]domain.Tool, error) {
	it := c.tools.ListTools(ctx, &cxpb.ListToolsRequest{Parent: agent})
	out, err := drain[*cxpb.Tool](it, func(t *cxpb.Tool) domain.Tool {
		return domain.Tool{Name: t.GetName(), DisplayName: t.GetDisplayName()}
	})
	if err != nil {
		return nil, fmt.Errorf("list tools of %s: %w", agent, err)
	}
	return out, nil
}

func (c *Client) ListToolVersions(ctx context.Context, tool string) ([]domain.ToolVersion, error) {
	if c.ToolVersions == nil {
		return nil, ErrToolVersionsUnsupported
	}
	return c.ToolVersions.ListToolVersions(ctx, tool)
}

func (c *Client) ListEnvironments(ctx context.Context, agent string) ([]domain.Environment, error) {
	it := c.environments.ListEnvironments(ctx, &cxpb.ListEnvironmentsRequest{Parent: agent})
	out, err := drain[*cxpb.Environment](it, environmentFromProto)
	if err != nil {
		return nil, fmt.Errorf("list environments of %s: %w", agent, err)
	}
	return out, nil
}

func environmentFromProto(e *cxpb.Environment) domain.Environment {
	env := domain.Environment{Name: e.GetName(), DisplayName: e.GetDisplayName()}
	wc := e.GetWebhookConfig()
	if wc == nil {
		return env
	}
	env.WebhookConfig = &domain.WebhookConfig{}
	for _, w := range wc.GetWebhookOverrides() {
		o := domain.WebhookOverride{Name: w.GetName(), DisplayName: w.GetDisplayName()}
		if gws := w.GetGenericWebService(); gws != nil {
			o.GenericWebService = &domain.GenericWebService{URI: gws.GetUri()}
		}
		env.WebhookConfig.Overrides = append(env.WebhookConfig.Overrides, o)
	}
	return env
}

type pageIterator[T any] interface {
	Next() (T, error)
}

// drain reads every page of it.
func drain[T, D any](it pageIterator[T], convert func(T) D) ([]D, error) {
	var out []D
	for {
		item, err := it.Next()
		if err == iterator.Done {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, convert(item))
	}
}
