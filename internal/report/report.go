// Package report renders check reports for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"cxcheck/internal/domain"
)

const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// Write renders r to w in the given format.
func Write(w io.Writer, r domain.Report, format string) error {
	switch format {
	case "", FormatText:
		return writeText(w, r)
	case FormatTable:
		return writeTable(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("unknown format %q (text, table, json)", format)
	}
}

// writeText prints one "<Label>: True|False" line per check.
func writeText(w io.Writer, r domain.Report) error {
	for _, c := range r.Checks {
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Label, Bool(c.Passed)); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, r domain.Report) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("%s / %s (%d agents)", r.Project, r.Location, len(r.Agents))
	tw.AppendHeader(table.Row{"Check", "Target", "Result"})
	for _, c := range r.Checks {
		tw.AppendRow(table.Row{c.Label, c.Target, Bool(c.Passed)})
	}
	tw.Render()
	return nil
}

// Bool formats a check outcome.
func Bool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// WriteAgents renders a listing of agents.
func WriteAgents(w io.Writer, agents []domain.Agent, format string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if agents == nil {
			agents = []domain.Agent{}
		}
		return enc.Encode(agents)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Display name", "Name"})
	for _, a := range agents {
		tw.AppendRow(table.Row{a.DisplayName, a.Name})
	}
	tw.Render()
	return nil
}
