package diagnose

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

func findByTitle(results []types.DiagnosticResult, title string) *types.DiagnosticResult {
	for i := range results {
		if results[i].Title == title {
			return &results[i]
		}
	}
	return nil
}

func TestComprehensiveDiagnosticsHealthyWorkspace(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	results := e.RunComprehensiveDiagnostics(context.Background(), "/ws")

	// Main class present, class paths present, one live free agent: no
	// findings at all.
	assert.Empty(t, results)
}

func TestComprehensiveDiagnosticsConfigurationFindings(t *testing.T) {
	analyzer := &fakeAnalyzer{info: &types.ProjectInfo{
		ClassPaths:  []string{},
		SourcePaths: []string{"/ws/src"},
	}}
	_, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	results := e.RunComprehensiveDiagnostics(context.Background(), "/ws")

	mainClass := findByTitle(results, "Main class not detected")
	require.NotNil(t, mainClass)
	assert.Equal(t, types.SeverityWarning, mainClass.Severity)
	assert.Equal(t, types.DiagConfiguration, mainClass.Category)
	assert.False(t, mainClass.AutoFixable)

	classPath := findByTitle(results, "Empty class path")
	require.NotNil(t, classPath)
	assert.Equal(t, types.SeverityError, classPath.Severity)
	assert.True(t, classPath.AutoFixable)
}

func TestComprehensiveDiagnosticsBusyAgent(t *testing.T) {
	analyzer, _, probe := healthyCollaborators()
	scanner := &fakeScanner{statuses: []types.PortStatus{
		{Port: 5005, Status: types.PortDebugAgent, DebugInfo: &types.PortDebugInfo{HasActiveClient: true}},
	}}
	e := newTestEngine(analyzer, scanner, probe, 0)

	results := e.RunComprehensiveDiagnostics(context.Background(), "/ws")

	busy := findByTitle(results, "Debug agent on port 5005 has an active client")
	require.NotNil(t, busy)
	assert.Equal(t, types.SeverityInfo, busy.Severity)
	assert.Equal(t, types.DiagConnection, busy.Category)

	// A busy agent is still a live agent.
	assert.Nil(t, findByTitle(results, "No live debug agents"))
}

func TestComprehensiveDiagnosticsNoAgents(t *testing.T) {
	analyzer, _, probe := healthyCollaborators()
	scanner := &fakeScanner{statuses: []types.PortStatus{
		{Port: 5005, Status: types.PortFree},
		{Port: 8000, Status: types.PortInUse},
	}}
	e := newTestEngine(analyzer, scanner, probe, 0)

	results := e.RunComprehensiveDiagnostics(context.Background(), "/ws")

	noAgents := findByTitle(results, "No live debug agents")
	require.NotNil(t, noAgents)
	assert.Equal(t, types.SeverityWarning, noAgents.Severity)
	assert.Contains(t, noAgents.Solution, "-agentlib:jdwp")
}

func TestComprehensiveDiagnosticsSweepFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: fmt.Errorf("workspace vanished")}
	_, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	results := e.RunComprehensiveDiagnostics(context.Background(), "/gone")

	require.Len(t, results, 1)
	assert.Equal(t, types.SeverityCritical, results[0].Severity)
	assert.Equal(t, types.DiagEnvironment, results[0].Category)
	assert.Equal(t, "Diagnostics sweep failed", results[0].Title)
	assert.Contains(t, results[0].Description, "workspace vanished")
}
