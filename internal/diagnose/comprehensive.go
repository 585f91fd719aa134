package diagnose

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// RunComprehensiveDiagnostics runs the stateless one-shot sweep. It is
// session-independent: a fixed checklist over project metadata and the
// port scan, wrapped in one boundary that replaces the whole result with a
// single critical finding on any unexpected failure.
func (e *Engine) RunComprehensiveDiagnostics(ctx context.Context, workspaceRoot string) []types.DiagnosticResult {
	results, err := e.runSweep(ctx, workspaceRoot)
	if err != nil {
		e.logger.Error("diagnostics sweep failed", zap.Error(err))
		return []types.DiagnosticResult{{
			Category:    types.DiagEnvironment,
			Severity:    types.SeverityCritical,
			Title:       "Diagnostics sweep failed",
			Description: fmt.Sprintf("The diagnostics sweep could not complete: %v", err),
			Impact:      "No findings are available for this workspace.",
			Solution:    "Verify the workspace root exists and is readable, then rerun debug_diagnose.",
			AutoFixable: false,
		}}
	}
	return results
}

func (e *Engine) runSweep(ctx context.Context, workspaceRoot string) (results []types.DiagnosticResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	info, err := e.analyzer.Analyze(ctx, workspaceRoot)
	if err != nil {
		return nil, err
	}

	results = make([]types.DiagnosticResult, 0, 4)

	if info.MainClass == "" {
		results = append(results, types.DiagnosticResult{
			Category:    types.DiagConfiguration,
			Severity:    types.SeverityWarning,
			Title:       "Main class not detected",
			Description: "No main class could be found in the build files or source tree.",
			Impact:      "Launch configurations cannot be auto-completed; attaching still works.",
			Solution:    "Set mainClass explicitly, or declare it in the build file.",
			AutoFixable: false,
		})
	}

	if len(info.ClassPaths) == 0 {
		results = append(results, types.DiagnosticResult{
			Category:    types.DiagConfiguration,
			Severity:    types.SeverityError,
			Title:       "Empty class path",
			Description: "No compiled class directories were found in the workspace.",
			Impact:      "Breakpoints cannot bind and classes cannot be resolved during debugging.",
			Solution:    "Build the project (mvn compile / gradle build); detected paths are then filled automatically.",
			AutoFixable: true,
		})
	}

	statuses, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	liveAgents := 0
	for _, ps := range statuses {
		if ps.Status != types.PortDebugAgent {
			continue
		}
		liveAgents++
		if ps.DebugInfo != nil && ps.DebugInfo.HasActiveClient {
			results = append(results, types.DiagnosticResult{
				Category:    types.DiagConnection,
				Severity:    types.SeverityInfo,
				Title:       fmt.Sprintf("Debug agent on port %d has an active client", ps.Port),
				Description: "The agent accepted the connection but another debugger already holds it.",
				Impact:      "A direct attach will be rejected until the other client disconnects.",
				Solution:    "Attach in observer mode, or disconnect the existing client.",
				AutoFixable: true,
			})
		}
	}

	if liveAgents == 0 {
		results = append(results, types.DiagnosticResult{
			Category:    types.DiagConnection,
			Severity:    types.SeverityWarning,
			Title:       "No live debug agents",
			Description: "None of the common debug ports is running a JDWP agent.",
			Impact:      "There is nothing to attach to.",
			Solution:    "Start the target JVM with -agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:5005.",
			AutoFixable: false,
		})
	}

	return results, nil
}
