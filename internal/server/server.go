package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cxcheck/internal/domain"
	"cxcheck/internal/engine"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"upstream_error"`
	Message string         `json:"message" example:"list flows of projects/p/locations/global/agents/a: permission denied"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type reportOutput struct {
	Body domain.Report `json:"body"`
}

type agentsOutput struct {
	Body struct {
		Project string         `json:"project"`
		Items   []domain.Agent `json:"items"`
	} `json:"body"`
}

// New returns an HTTP handler exposing the checks.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("cxcheck API", "0.1.0")
	hcfg.OpenAPIPath = ""
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerChecks(group, cfg.Engine)
	registerAgents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps listing failures to 502: every error past request
// decoding comes from the upstream API or credentials.
func handleError(log *zap.Logger, err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return newAPIError(499, "canceled", err.Error(), nil)
	}
	log.Error("check request failed", zap.Error(err))
	return newAPIError(http.StatusBadGateway, "upstream_error", err.Error(), nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerChecks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "run-checks",
		Method:      http.MethodGet,
		Path:        "/checks",
		Summary:     "Run every deployment check",
		Description: "Lists the matching agents and runs the flow, playbook, environment, tool and webhook checks in sequence.",
	}, func(ctx context.Context, _ *struct{}) (*reportOutput, error) {
		r, err := e.Run(ctx)
		if err != nil {
			return nil, handleError(e.Logger, err)
		}
		return &reportOutput{Body: r}, nil
	})
}

func registerAgents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-agents",
		Method:      http.MethodGet,
		Path:        "/agents",
		Summary:     "List agents matching the configured prefix",
	}, func(ctx context.Context, _ *struct{}) (*agentsOutput, error) {
		agents, err := e.Agents(ctx)
		if err != nil {
			return nil, handleError(e.Logger, err)
		}
		out := &agentsOutput{}
		out.Body.Project = e.Project
		out.Body.Items = agents
		return out, nil
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			spec, _ = json.Marshal(api.OpenAPI())
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}
