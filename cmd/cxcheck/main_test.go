package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	initConfig()
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOCATION", "")
	resetViper(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "global", cfg.Location)
	assert.Equal(t, "dialogflow.googleapis.com:443", cfg.Endpoint())
}

func TestLoadConfigReadsLocationEnv(t *testing.T) {
	t.Setenv("LOCATION", "europe-west1")
	resetViper(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "europe-west1", cfg.Location)
	assert.Equal(t, "europe-west1-dialogflow.googleapis.com:443", cfg.Endpoint())
}

func TestLoadConfigLayersOverridesOnFile(t *testing.T) {
	t.Setenv("LOCATION", "")
	resetViper(t)
	path := filepath.Join(t.TempDir(), "cxcheck.yml")
	require.NoError(t, os.WriteFile(path, []byte("agent_prefix: Matterhorn\nchecks:\n  flow_version: \"2.0.0\"\n"), 0o644))
	viper.Set("config", path)
	viper.Set("flow-version", "3.0.0")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Matterhorn", cfg.AgentPrefix)
	assert.Equal(t, "3.0.0", cfg.Checks.FlowVersion)
	assert.Equal(t, "v1.0.2", cfg.Checks.WebhookSuffix)
}

func TestLoadConfigRejectsInvalidMode(t *testing.T) {
	t.Setenv("LOCATION", "")
	resetViper(t)
	viper.Set("tool-versions", "grpc")
	_, err := loadConfig()
	assert.Error(t, err)
}

func TestCountFailed(t *testing.T) {
	assert.Equal(t, 2, countFailed(map[string]bool{"a": true, "b": false, "c": false}))
}
