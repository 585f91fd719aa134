package diagnose

import (
	"fmt"
	"strings"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// generateFinalRecommendations synthesizes a flat recommendation list from
// the context accumulated by earlier steps, then appends problem-keyword
// boilerplate. The keyword pass is an independent substring match, not a
// reuse of the step-generation classification.
func (e *Engine) generateFinalRecommendations(session *types.TroubleshootingSession) []string {
	var recs []string

	info := session.Context.ProjectInfo
	switch {
	case info == nil:
		recs = append(recs, "Project analysis did not complete; verify the workspace root path and rerun.")
	default:
		if info.MainClass == "" {
			recs = append(recs, "No main class detected; set mainClass explicitly in the attach configuration.")
		}
		if len(info.ClassPaths) == 0 {
			recs = append(recs, "Class path is empty; build the project so compiled classes exist.")
		} else if len(info.ClassPaths) > 10 {
			recs = append(recs, fmt.Sprintf("Class path has %d entries; trim unused entries to speed up class lookup.", len(info.ClassPaths)))
		}
	}

	foundAgent := false
	for _, ps := range session.Context.PortInfo {
		if ps.Status != types.PortDebugAgent {
			continue
		}
		foundAgent = true
		if ps.DebugInfo != nil && ps.DebugInfo.HasActiveClient {
			recs = append(recs, fmt.Sprintf("The agent on port %d already has a client attached; use observer mode or disconnect the other debugger.", ps.Port))
		} else {
			recs = append(recs, fmt.Sprintf("A free debug agent is listening on port %d; point the attach configuration at it.", ps.Port))
		}
	}
	if session.Context.PortInfo != nil && !foundAgent {
		recs = append(recs, "No debug agent found on any common port; start the JVM with -agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:5005.")
	}

	lowered := strings.ToLower(session.Problem)
	if strings.Contains(lowered, "connection") || strings.Contains(lowered, "attach") {
		recs = append(recs, "For connection problems, confirm host and port first; most attach failures are a wrong or closed port.")
	}
	if strings.Contains(lowered, "configuration") || strings.Contains(lowered, "setup") {
		recs = append(recs, "Run debug_analyze_project and merge the detected values into your configuration.")
	}
	if strings.Contains(lowered, "performance") || strings.Contains(lowered, "slow") {
		recs = append(recs, "Reduce the number of active breakpoints and avoid conditional breakpoints in hot code paths.")
	}

	if len(recs) == 0 {
		recs = append(recs, "No specific issues detected; run debug_diagnose for a full environment sweep.")
	}

	return recs
}
