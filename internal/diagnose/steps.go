package diagnose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// Built-in step IDs. Every step the generator produces has
// AutoExecute=true; skipped status is reserved for externally injected
// manual steps.
const (
	StepAnalyzeProject           = "analyze-project"
	StepScanPorts                = "scan-ports"
	StepProbeDebugAgent          = "probe-debug-agent"
	StepCheckPortConflicts       = "check-port-conflicts"
	StepValidateLaunchConfig     = "validate-launch-config"
	StepVerifyProjectStructure   = "verify-project-structure"
	StepMeasureAgentLatency      = "measure-agent-latency"
	StepReviewConnectionSettings = "review-connection-settings"
	StepGenerateRecommendations  = "generate-recommendations"
)

// categoryKeywords maps each problem category to the substrings that
// trigger it. Matching is non-exclusive: zero, one, or several categories
// may apply to one problem description.
var categoryKeywords = map[types.ProblemCategory][]string{
	types.CategoryConnection:    {"connection", "connect", "attach"},
	types.CategoryConfiguration: {"configuration", "config", "setup"},
	types.CategoryPerformance:   {"performance", "slow"},
}

// categoryOrder keeps step generation deterministic.
var categoryOrder = []types.ProblemCategory{
	types.CategoryConnection,
	types.CategoryConfiguration,
	types.CategoryPerformance,
}

// classifyProblem tests the lower-cased problem text against every keyword
// set independently and returns all matching categories.
func classifyProblem(problem string) []types.ProblemCategory {
	lowered := strings.ToLower(problem)
	var matched []types.ProblemCategory
	for _, cat := range categoryOrder {
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(lowered, kw) {
				matched = append(matched, cat)
				break
			}
		}
	}
	return matched
}

func newCheckStep(id, title, description string) *types.TroubleshootingStep {
	return &types.TroubleshootingStep{
		ID:          id,
		Title:       title,
		Description: description,
		Kind:        types.StepCheck,
		Status:      types.StepPending,
		AutoExecute: true,
	}
}

// generateSteps builds the ordered step list for the matched categories.
// Pure function: analyze-project and scan-ports always lead, one fixed
// block is appended per matched category, and generate-recommendations
// always closes the chain.
func generateSteps(categories []types.ProblemCategory) []*types.TroubleshootingStep {
	steps := []*types.TroubleshootingStep{
		newCheckStep(StepAnalyzeProject,
			"Analyze project",
			"Detect build system, main class, class paths, and source paths from the workspace."),
		newCheckStep(StepScanPorts,
			"Scan debug ports",
			"Classify the common debug ports as free, in use, or running a debug agent."),
	}

	for _, cat := range categories {
		switch cat {
		case types.CategoryConnection:
			steps = append(steps,
				newCheckStep(StepProbeDebugAgent,
					"Probe debug agent",
					"Perform the full JDWP handshake against the target port."),
				newCheckStep(StepCheckPortConflicts,
					"Check port conflicts",
					"Look for debug agents already held by another client."),
			)
		case types.CategoryConfiguration:
			steps = append(steps,
				newCheckStep(StepValidateLaunchConfig,
					"Validate launch configuration",
					"Check the detected project metadata for missing attach configuration fields."),
				newCheckStep(StepVerifyProjectStructure,
					"Verify project structure",
					"Confirm source and class path directories exist in the workspace."),
			)
		case types.CategoryPerformance:
			steps = append(steps,
				newCheckStep(StepMeasureAgentLatency,
					"Measure agent latency",
					"Time a liveness probe against the target debug port."),
				newCheckStep(StepReviewConnectionSettings,
					"Review connection settings",
					"Summarize the effective host, port, and scan results."),
			)
		}
	}

	steps = append(steps, &types.TroubleshootingStep{
		ID:          StepGenerateRecommendations,
		Title:       "Generate recommendations",
		Description: "Synthesize recommendations from everything the earlier steps found.",
		Kind:        types.StepRecommendation,
		Status:      types.StepPending,
		AutoExecute: true,
	})

	return steps
}

// executeStep dispatches a step to its operation. Each operation calls
// exactly one collaborator or reads prior session context.
func (e *Engine) executeStep(ctx context.Context, session *types.TroubleshootingSession, step *types.TroubleshootingStep) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch step.ID {
	case StepAnalyzeProject:
		return e.opAnalyzeProject(ctx, session)
	case StepScanPorts:
		return e.opScanPorts(ctx, session)
	case StepProbeDebugAgent:
		return e.opProbeDebugAgent(ctx, session)
	case StepCheckPortConflicts:
		return e.opCheckPortConflicts(ctx, session)
	case StepValidateLaunchConfig:
		return e.opValidateLaunchConfig(session)
	case StepVerifyProjectStructure:
		return e.opVerifyProjectStructure(session)
	case StepMeasureAgentLatency:
		return e.opMeasureAgentLatency(ctx, session)
	case StepReviewConnectionSettings:
		return e.opReviewConnectionSettings(session)
	case StepGenerateRecommendations:
		return e.opGenerateRecommendations(session)
	default:
		return nil, fmt.Errorf("unknown step id: %s", step.ID)
	}
}

func (e *Engine) opAnalyzeProject(ctx context.Context, session *types.TroubleshootingSession) (interface{}, error) {
	info, err := e.analyzer.Analyze(ctx, session.Context.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	session.Context.ProjectInfo = info
	return info, nil
}

func (e *Engine) opScanPorts(ctx context.Context, session *types.TroubleshootingSession) (interface{}, error) {
	statuses, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	session.Context.PortInfo = statuses

	agents := 0
	for _, ps := range statuses {
		if ps.Status == types.PortDebugAgent {
			agents++
		}
	}
	return fmt.Sprintf("scanned %d ports, found %d debug agent(s)", len(statuses), agents), nil
}

func (e *Engine) opProbeDebugAgent(ctx context.Context, session *types.TroubleshootingSession) (interface{}, error) {
	port := session.Context.TargetPort
	if port == 0 {
		port = e.defaultPort
	}
	status, err := e.probe.FullValidate(ctx, e.host, port)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (e *Engine) opCheckPortConflicts(ctx context.Context, session *types.TroubleshootingSession) (interface{}, error) {
	for _, ps := range session.Context.PortInfo {
		if ps.Status == types.PortDebugAgent && ps.DebugInfo != nil && ps.DebugInfo.HasActiveClient {
			suggestions, err := e.scanner.SuggestConflictResolution(ctx, ps.Port)
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"conflictPort": ps.Port,
				"suggestions":  suggestions,
			}, nil
		}
	}
	return "no port conflicts detected", nil
}

func (e *Engine) opValidateLaunchConfig(session *types.TroubleshootingSession) (interface{}, error) {
	info := session.Context.ProjectInfo
	if info == nil {
		return nil, fmt.Errorf("project metadata unavailable; analyze-project did not complete")
	}

	var issues []string
	if info.MainClass == "" {
		issues = append(issues, "main class could not be detected")
	}
	if len(info.ClassPaths) == 0 {
		issues = append(issues, "class path is empty; the project may need a build")
	}
	if len(info.SourcePaths) == 0 {
		issues = append(issues, "no source paths detected")
	}
	if len(issues) == 0 {
		return "launch configuration fields can all be filled from project metadata", nil
	}
	return issues, nil
}

func (e *Engine) opVerifyProjectStructure(session *types.TroubleshootingSession) (interface{}, error) {
	info := session.Context.ProjectInfo
	if info == nil {
		return nil, fmt.Errorf("project metadata unavailable; analyze-project did not complete")
	}
	return map[string]interface{}{
		"buildSystem": info.BuildSystem,
		"sourceRoots": len(info.SourcePaths),
		"classRoots":  len(info.ClassPaths),
	}, nil
}

func (e *Engine) opMeasureAgentLatency(ctx context.Context, session *types.TroubleshootingSession) (interface{}, error) {
	port := session.Context.TargetPort
	if port == 0 {
		port = e.defaultPort
	}
	start := time.Now()
	live := e.probe.QuickCheck(ctx, e.host, port)
	elapsed := time.Since(start)
	if !live {
		return nil, fmt.Errorf("no listener on %s:%d", e.host, port)
	}
	return fmt.Sprintf("liveness probe answered in %s", elapsed.Round(time.Millisecond)), nil
}

func (e *Engine) opReviewConnectionSettings(session *types.TroubleshootingSession) (interface{}, error) {
	port := session.Context.TargetPort
	if port == 0 {
		port = e.defaultPort
	}
	summary := map[string]interface{}{
		"host":       e.host,
		"targetPort": port,
	}
	if session.Context.PortInfo != nil {
		agents := make([]int, 0)
		for _, ps := range session.Context.PortInfo {
			if ps.Status == types.PortDebugAgent {
				agents = append(agents, ps.Port)
			}
		}
		summary["liveAgentPorts"] = agents
	}
	return summary, nil
}

func (e *Engine) opGenerateRecommendations(session *types.TroubleshootingSession) (interface{}, error) {
	recs := e.generateFinalRecommendations(session)
	session.Recommendations = recs
	return recs, nil
}
