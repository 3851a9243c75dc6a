package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cxcheck/internal/domain"
	"cxcheck/internal/report"
)

func sampleReport() domain.Report {
	return domain.Report{
		RunID:    "run-1",
		Project:  "p1",
		Location: "global",
		Agents:   []string{"projects/p1/locations/global/agents/a1"},
		Checks: []domain.Check{
			{Name: domain.CheckFlowVersion, Label: "Flow version created", Target: "1.0.0", Passed: true},
			{Name: domain.CheckPlaybookVersion, Label: "Playbook version created", Target: "1.0.0", Passed: false},
			{Name: domain.CheckEnvironment, Label: "Environment matches", Target: "prod", Passed: true},
			{Name: domain.CheckToolVersion, Label: "Tool version created", Target: "1.0.0", Passed: false},
			{Name: domain.CheckWebhookOverride, Label: "Webhook override matches", Target: "v1.0.2", Passed: true},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, sampleReport(), report.FormatText))
	assert.Equal(t, "Flow version created: True\n"+
		"Playbook version created: False\n"+
		"Environment matches: True\n"+
		"Tool version created: False\n"+
		"Webhook override matches: True\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, sampleReport(), report.FormatJSON))
	var got domain.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleReport().Results(), got.Results())
	assert.Equal(t, "run-1", got.RunID)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, sampleReport(), report.FormatTable))
	out := buf.String()
	assert.Contains(t, out, "Webhook override matches")
	assert.Contains(t, out, "v1.0.2")
}

func TestWriteUnknownFormat(t *testing.T) {
	assert.Error(t, report.Write(&bytes.Buffer{}, sampleReport(), "xml"))
}

func TestWriteAgents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteAgents(&buf, nil, report.FormatJSON))
	assert.JSONEq(t, "[]", buf.String())

	buf.Reset()
	require.NoError(t, report.WriteAgents(&buf, []domain.Agent{{Name: "agents/a1", DisplayName: "Zermatt"}}, report.FormatTable))
	assert.Contains(t, buf.String(), "Zermatt")
}
