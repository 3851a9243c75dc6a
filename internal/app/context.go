package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"

	"cxcheck/internal/config"
	"cxcheck/internal/dialogflow"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// findCredentials is swapped in tests.
var findCredentials = google.FindDefaultCredentials

// ResolveProject picks the active cloud project. It prefers the override,
// then GOOGLE_CLOUD_PROJECT, then the project carried by Application
// Default Credentials.
func ResolveProject(ctx context.Context, override string) (string, error) {
	if p := strings.TrimSpace(override); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT")); p != "" {
		return p, nil
	}
	creds, err := findCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return "", fmt.Errorf("resolve project from default credentials: %w", err)
	}
	if creds.ProjectID == "" {
		return "", fmt.Errorf("default credentials carry no project; use --project or GOOGLE_CLOUD_PROJECT")
	}
	return creds.ProjectID, nil
}

// OpenClient builds the resource client for cfg, attaching the REST
// tool-version client when that mode is enabled.
func OpenClient(ctx context.Context, cfg *config.Config) (*dialogflow.Client, error) {
	endpoint := cfg.Endpoint()
	c, err := dialogflow.New(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.Modes.ToolVersions == config.ToolVersionsREST {
		rc, err := dialogflow.NewREST(ctx, endpoint)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.ToolVersions = rc
	}
	return c, nil
}
