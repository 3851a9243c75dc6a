package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxcheck/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "global", cfg.Location)
	assert.Equal(t, "Zermatt", cfg.AgentPrefix)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "1.0.0", cfg.Checks.FlowVersion)
	assert.Equal(t, "1.0.0", cfg.Checks.PlaybookVersion)
	assert.Equal(t, "1.0.0", cfg.Checks.ToolVersion)
	assert.Equal(t, "v1.0.2", cfg.Checks.WebhookSuffix)
	assert.Equal(t, config.EnvironmentMatchSelf, cfg.Modes.EnvironmentMatch)
	assert.Equal(t, config.ToolVersionsStub, cfg.Modes.ToolVersions)
	assert.Empty(t, cfg.Project)
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "dialogflow.googleapis.com:443", config.Endpoint("global"))
	assert.Equal(t, "dialogflow.googleapis.com:443", config.Endpoint(""))
	assert.Equal(t, "europe-west1-dialogflow.googleapis.com:443", config.Endpoint("europe-west1"))
	assert.Equal(t, "us-central1-dialogflow.googleapis.com:443", config.Endpoint("us-central1"))
}

func TestParent(t *testing.T) {
	cfg := config.Default()
	cfg.Location = "us-east1"
	assert.Equal(t, "projects/p1/locations/us-east1", cfg.Parent("p1"))
}

func TestFromYAMLOverlaysDefaults(t *testing.T) {
	cfg, err := config.FromYAML([]byte("location: europe-west2\nchecks:\n  webhook_suffix: v2\n"))
	require.NoError(t, err)
	assert.Equal(t, "europe-west2", cfg.Location)
	assert.Equal(t, "v2", cfg.Checks.WebhookSuffix)
	assert.Equal(t, "1.0.0", cfg.Checks.FlowVersion)
	assert.Equal(t, "Zermatt", cfg.AgentPrefix)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"bad yaml":              "location: [",
		"bad location":          "location: us/central",
		"empty flow version":    "checks:\n  flow_version: \"\"\n",
		"unknown env mode":      "modes:\n  environment_match: fuzzy\n",
		"unknown tool mode":     "modes:\n  tool_versions: grpc\n",
		"target without env":    "environment: \"\"\nmodes:\n  environment_match: target\n",
		"empty webhook suffix":  "checks:\n  webhook_suffix: \"\"\n",
		"empty playbook target": "checks:\n  playbook_version: \"\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.FromYAML([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cxcheck.yml")
	require.NoError(t, os.WriteFile(path, []byte(config.GenerateDefault()), 0o644))
	cfg, err := config.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = config.FromFile(filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cxcheck config init")
}
