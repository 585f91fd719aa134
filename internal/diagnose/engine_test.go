package diagnose

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

type fakeAnalyzer struct {
	info *types.ProjectInfo
	err  error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, workspaceRoot string) (*types.ProjectInfo, error) {
	return f.info, f.err
}

type fakeScanner struct {
	statuses    []types.PortStatus
	err         error
	suggestions []types.ConflictSuggestion
}

func (f *fakeScanner) Scan(ctx context.Context) ([]types.PortStatus, error) {
	return f.statuses, f.err
}

func (f *fakeScanner) SuggestConflictResolution(ctx context.Context, port int) ([]types.ConflictSuggestion, error) {
	return f.suggestions, nil
}

type fakeAgentProbe struct {
	live   bool
	status *types.AgentStatus
	err    error
}

func (f *fakeAgentProbe) QuickCheck(ctx context.Context, host string, port int) bool {
	return f.live
}

func (f *fakeAgentProbe) FullValidate(ctx context.Context, host string, port int) (*types.AgentStatus, error) {
	return f.status, f.err
}

func healthyCollaborators() (*fakeAnalyzer, *fakeScanner, *fakeAgentProbe) {
	analyzer := &fakeAnalyzer{info: &types.ProjectInfo{
		MainClass:   "com.example.App",
		ClassPaths:  []string{"/ws/target/classes"},
		SourcePaths: []string{"/ws/src/main/java"},
		BuildSystem: "maven",
	}}
	scanner := &fakeScanner{statuses: []types.PortStatus{
		{Port: 5005, Status: types.PortDebugAgent, DebugInfo: &types.PortDebugInfo{}},
		{Port: 8000, Status: types.PortFree},
	}}
	probe := &fakeAgentProbe{
		live:   true,
		status: &types.AgentStatus{Port: 5005, Connected: true, JDWPAgentDetected: true},
	}
	return analyzer, scanner, probe
}

func newTestEngine(analyzer ProjectAnalyzer, scanner PortScanner, probe AgentProbe, maxSessions int) *Engine {
	return NewEngine(analyzer, scanner, probe, "localhost", 5005, maxSessions, nil)
}

func stepIDs(steps []*types.TroubleshootingStep) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID
	}
	return ids
}

func TestStartTroubleshootingConnectionProblem(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	session, err := e.StartTroubleshooting(context.Background(),
		"I can't connect to the debugger", "/ws", 0)
	require.NoError(t, err)

	assert.Equal(t, []types.ProblemCategory{types.CategoryConnection}, session.MatchedCategories)
	assert.Equal(t, []string{
		StepAnalyzeProject,
		StepScanPorts,
		StepProbeDebugAgent,
		StepCheckPortConflicts,
		StepGenerateRecommendations,
	}, stepIDs(session.Steps))

	for _, step := range session.Steps {
		assert.Equal(t, types.StepCompleted, step.Status, "step %s", step.ID)
	}

	require.NotNil(t, session.Resolution)
	assert.True(t, session.Resolution.Success)
	assert.Equal(t, "interactive-troubleshooting", session.Resolution.Method)
	assert.Equal(t, "completed 5 of 5 diagnostic steps", session.Resolution.Details)
	assert.NotEmpty(t, session.Recommendations)
	assert.Equal(t, len(session.Steps), session.CurrentStepIndex)
}

func TestStartTroubleshootingMultiMatch(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	session, err := e.StartTroubleshooting(context.Background(),
		"debugger setup is slow and attach fails", "/ws", 0)
	require.NoError(t, err)

	assert.Equal(t, []types.ProblemCategory{
		types.CategoryConnection,
		types.CategoryConfiguration,
		types.CategoryPerformance,
	}, session.MatchedCategories)
	// 2 leading + 2 per category + final recommendations.
	assert.Len(t, session.Steps, 9)
}

func TestStartTroubleshootingUnclassifiedProblem(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	session, err := e.StartTroubleshooting(context.Background(),
		"something is off", "/ws", 0)
	require.NoError(t, err)

	assert.Empty(t, session.MatchedCategories)
	assert.Equal(t, []string{
		StepAnalyzeProject,
		StepScanPorts,
		StepGenerateRecommendations,
	}, stepIDs(session.Steps))
	require.NotNil(t, session.Resolution)
	assert.True(t, session.Resolution.Success)
}

func TestStepFailureDoesNotAbortSession(t *testing.T) {
	analyzer := &fakeAnalyzer{err: fmt.Errorf("workspace unreadable")}
	_, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	session, err := e.StartTroubleshooting(context.Background(),
		"cannot connect", "/ws", 0)
	require.NoError(t, err)

	assert.Equal(t, types.StepFailed, session.Steps[0].Status)
	assert.Equal(t, "workspace unreadable", session.Steps[0].Error)

	// Every later step still ran.
	for _, step := range session.Steps[1:] {
		assert.NotEqual(t, types.StepPending, step.Status, "step %s never ran", step.ID)
	}

	// 4 of 5 completed: still above the success threshold.
	require.NotNil(t, session.Resolution)
	assert.True(t, session.Resolution.Success)
	assert.Equal(t, "completed 4 of 5 diagnostic steps", session.Resolution.Details)
}

func TestResolutionFailsBelowThreshold(t *testing.T) {
	analyzer := &fakeAnalyzer{err: fmt.Errorf("no workspace")}
	scanner := &fakeScanner{err: fmt.Errorf("scan refused")}
	probe := &fakeAgentProbe{err: fmt.Errorf("probe refused")}
	e := newTestEngine(analyzer, scanner, probe, 0)

	session, err := e.StartTroubleshooting(context.Background(),
		"cannot connect", "/ws", 0)
	require.NoError(t, err)

	// Only check-port-conflicts (vacuously) and generate-recommendations
	// complete: 2 of 5 is below the threshold.
	require.NotNil(t, session.Resolution)
	assert.False(t, session.Resolution.Success)
	assert.Equal(t, "completed 2 of 5 diagnostic steps", session.Resolution.Details)
}

func TestConflictStepUsesScannerSuggestions(t *testing.T) {
	analyzer, _, probe := healthyCollaborators()
	scanner := &fakeScanner{
		statuses: []types.PortStatus{
			{Port: 5005, Status: types.PortDebugAgent, DebugInfo: &types.PortDebugInfo{HasActiveClient: true}},
		},
		suggestions: []types.ConflictSuggestion{{Title: "Attach in observer mode"}},
	}
	e := newTestEngine(analyzer, scanner, probe, 0)

	session, err := e.StartTroubleshooting(context.Background(),
		"attach keeps failing", "/ws", 0)
	require.NoError(t, err)

	var conflictStep *types.TroubleshootingStep
	for _, step := range session.Steps {
		if step.ID == StepCheckPortConflicts {
			conflictStep = step
		}
	}
	require.NotNil(t, conflictStep)
	assert.Equal(t, types.StepCompleted, conflictStep.Status)

	result, ok := conflictStep.Result.(map[string]interface{})
	require.True(t, ok, "conflict step result should carry the conflict details")
	assert.Equal(t, 5005, result["conflictPort"])
}

func TestGetSessionNotFound(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	_, err := e.GetSession("no-such-session")
	require.Error(t, err)
	assert.True(t, srverrors.IsCode(err, srverrors.CodeSessionNotFound))
}

func TestGetSessionReturnsStoredSession(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	created, err := e.StartTroubleshooting(context.Background(), "slow debugger", "/ws", 9999)
	require.NoError(t, err)

	got, err := e.GetSession(created.ID)
	require.NoError(t, err)
	assert.Same(t, created, got)
	assert.Equal(t, 9999, got.Context.TargetPort)
}

func TestMaxSessionsEnforced(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 1)

	// A session that has not finished holds its slot and is never evicted.
	e.mu.Lock()
	e.sessions["in-flight"] = &types.TroubleshootingSession{ID: "in-flight"}
	e.mu.Unlock()

	_, err := e.StartTroubleshooting(context.Background(), "second", "/ws", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum number of troubleshooting sessions")

	assert.Len(t, e.ListSessions(), 1)
}

func TestFinishedSessionEvictedAtCap(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 1)

	first, err := e.StartTroubleshooting(context.Background(), "cannot connect", "/ws", 0)
	require.NoError(t, err)
	require.NotNil(t, first.Resolution)

	// The cap was reached once, but the first session has finished:
	// starting another one evicts it instead of failing forever.
	second, err := e.StartTroubleshooting(context.Background(), "still cannot connect", "/ws", 0)
	require.NoError(t, err)

	assert.Len(t, e.ListSessions(), 1)
	_, err = e.GetSession(first.ID)
	assert.True(t, srverrors.IsCode(err, srverrors.CodeSessionNotFound))
	_, err = e.GetSession(second.ID)
	assert.NoError(t, err)
}

func TestCancelledContextStillFinalizes(t *testing.T) {
	analyzer, scanner, probe := healthyCollaborators()
	e := newTestEngine(analyzer, scanner, probe, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := e.StartTroubleshooting(ctx, "cannot connect", "/ws", 0)
	require.NoError(t, err)

	// Cancellation fails the steps fast but the chain still runs to the
	// end and finalizes.
	require.NotNil(t, session.Resolution)
	assert.False(t, session.Resolution.Success)
	assert.Equal(t, len(session.Steps), session.CurrentStepIndex)
	for _, step := range session.Steps {
		assert.Equal(t, types.StepFailed, step.Status, "step %s", step.ID)
	}
}
