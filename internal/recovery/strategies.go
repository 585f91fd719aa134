package recovery

import (
	"context"
	"fmt"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// agentLaunchFlag is the literal JVM flag recommended when no live agent
// can be found.
func agentLaunchFlag(port int) string {
	return fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:%d", port)
}

// --- port-detection-retry ---

// portDetectionStrategy probes a fixed ordered list of common debug ports
// and rewrites the attach configuration onto the first live agent found.
type portDetectionStrategy struct {
	host  string
	ports []int
	probe AgentProbe
}

// NewPortDetectionStrategy creates the priority-1 strategy for connection
// failures.
func NewPortDetectionStrategy(host string, ports []int, probe AgentProbe) Strategy {
	return &portDetectionStrategy{host: host, ports: ports, probe: probe}
}

func (s *portDetectionStrategy) Name() string { return "port-detection-retry" }

func (s *portDetectionStrategy) Description() string {
	return "Scan common debug ports for a live JDWP agent and retarget the attach configuration"
}

func (s *portDetectionStrategy) Priority() int { return 1 }

func (s *portDetectionStrategy) Applicable(err *types.DebugError) bool {
	return err.Kind == types.ErrorKindConnection
}

func (s *portDetectionStrategy) Execute(ctx context.Context, err *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error) {
	// Ports are probed strictly in list order so the earliest port always
	// wins when several agents are live.
	for _, port := range s.ports {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		if !s.probe.QuickCheck(ctx, s.host, port) {
			continue
		}

		status, verr := s.probe.FullValidate(ctx, s.host, port)
		if verr != nil || !status.JDWPAgentDetected {
			continue
		}

		cfg := rctx.OriginalConfig.Clone()
		cfg.Host = s.host
		cfg.Port = port

		recs := []string{
			fmt.Sprintf("Found a live debug agent on %s:%d; the attach configuration has been retargeted.", s.host, port),
		}
		if status.HasActiveClient {
			recs = append(recs, "The agent already has an attached client; attach in observer mode to avoid contention.")
		}

		return &types.RecoveryResult{
			Success:         true,
			StrategyName:    s.Name(),
			Message:         fmt.Sprintf("debug agent discovered on port %d", port),
			NewConfig:       cfg,
			Recommendations: recs,
		}, nil
	}

	defaultPort := 5005
	if len(s.ports) > 0 {
		defaultPort = s.ports[0]
	}
	return &types.RecoveryResult{
		Success:      false,
		StrategyName: s.Name(),
		Message:      "no live debug agent found on any common port",
		Recommendations: []string{
			"Start the target JVM with the debug agent enabled:",
			fmt.Sprintf("java %s -jar your-application.jar", agentLaunchFlag(defaultPort)),
			"Then retry the attach.",
		},
	}, nil
}

// --- configuration-auto-fix ---

// configAutoFixStrategy fills gaps in the attach configuration from
// detected project metadata.
type configAutoFixStrategy struct{}

// NewConfigAutoFixStrategy creates the priority-2 strategy for
// configuration failures.
func NewConfigAutoFixStrategy() Strategy {
	return &configAutoFixStrategy{}
}

func (s *configAutoFixStrategy) Name() string { return "configuration-auto-fix" }

func (s *configAutoFixStrategy) Description() string {
	return "Fill missing mainClass, classPaths, and sourcePaths from detected project metadata"
}

func (s *configAutoFixStrategy) Priority() int { return 2 }

func (s *configAutoFixStrategy) Applicable(err *types.DebugError) bool {
	return err.Kind == types.ErrorKindConfiguration
}

func (s *configAutoFixStrategy) Execute(ctx context.Context, err *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error) {
	merged := rctx.OriginalConfig.Clone()
	pi := rctx.ProjectInfo

	var fixes []string
	if pi != nil {
		if merged.MainClass == "" && pi.MainClass != "" {
			merged.MainClass = pi.MainClass
			fixes = append(fixes, fmt.Sprintf("set mainClass to %s", pi.MainClass))
		}
		if len(merged.ClassPaths) == 0 && len(pi.ClassPaths) > 0 {
			merged.ClassPaths = append([]string(nil), pi.ClassPaths...)
			fixes = append(fixes, fmt.Sprintf("set %d class path entries from project metadata", len(pi.ClassPaths)))
		}
		if len(merged.SourcePaths) == 0 && len(pi.SourcePaths) > 0 {
			merged.SourcePaths = append([]string(nil), pi.SourcePaths...)
			fixes = append(fixes, fmt.Sprintf("set %d source path entries from project metadata", len(pi.SourcePaths)))
		}
	}

	if len(fixes) == 0 {
		return &types.RecoveryResult{
			Success:      false,
			StrategyName: s.Name(),
			Message:      "no configuration gaps could be filled from project metadata",
			NewConfig:    merged,
			Recommendations: []string{
				"Verify the workspace contains a recognizable build file (pom.xml or build.gradle).",
				"Set mainClass, classPaths, and sourcePaths explicitly in the attach configuration.",
			},
		}, nil
	}

	return &types.RecoveryResult{
		Success:         true,
		StrategyName:    s.Name(),
		Message:         fmt.Sprintf("filled %d configuration gap(s) from project metadata", len(fixes)),
		NewConfig:       merged,
		Recommendations: fixes,
	}, nil
}

// --- hybrid-debugging-fallback ---

// hybridFallbackStrategy escalates to the non-invasive fallback once two
// attempts of anything have failed, regardless of error kind.
type hybridFallbackStrategy struct {
	starter      HybridStarter
	appURL       string
	logFiles     []string
	apiEndpoints []string
}

// NewHybridFallbackStrategy creates the priority-3 escalation strategy.
func NewHybridFallbackStrategy(starter HybridStarter, appURL string, logFiles, apiEndpoints []string) Strategy {
	return &hybridFallbackStrategy{
		starter:      starter,
		appURL:       appURL,
		logFiles:     logFiles,
		apiEndpoints: apiEndpoints,
	}
}

func (s *hybridFallbackStrategy) Name() string { return "hybrid-debugging-fallback" }

func (s *hybridFallbackStrategy) Description() string {
	return "Start non-invasive hybrid debugging (log tailing + HTTP probes) after repeated failures"
}

func (s *hybridFallbackStrategy) Priority() int { return 3 }

func (s *hybridFallbackStrategy) Applicable(err *types.DebugError) bool {
	// Escalation path: any kind qualifies once two attempts have failed.
	return err.RetryCount >= 2
}

func (s *hybridFallbackStrategy) Execute(ctx context.Context, err *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error) {
	cfg := types.HybridConfig{
		WorkspaceRoot:              rctx.WorkspaceRoot,
		ApplicationURL:             s.appURL,
		LogFiles:                   append([]string(nil), s.logFiles...),
		APIEndpoints:               append([]string(nil), s.apiEndpoints...),
		EnableLogWatching:          true,
		EnableAPITesting:           true,
		EnableBreakpointSimulation: false,
	}

	if serr := s.starter.Start(ctx, cfg); serr != nil {
		return &types.RecoveryResult{
			Success:        false,
			StrategyName:   s.Name(),
			Message:        fmt.Sprintf("hybrid debugging could not be started: %v", serr),
			FallbackMethod: types.FallbackManual,
			Recommendations: []string{
				"Inspect the application logs manually.",
				"Verify the workspace root path and log file locations.",
			},
		}, nil
	}

	return &types.RecoveryResult{
		Success:        true,
		StrategyName:   s.Name(),
		Message:        "hybrid debugging session started",
		FallbackMethod: types.FallbackHybrid,
		Recommendations: []string{
			"Live protocol debugging is unavailable; log tailing and endpoint probing are active instead.",
			"Use debug_hybrid_status to inspect log activity and endpoint health.",
		},
	}, nil
}

// --- self-healing-connection ---

// selfHealingStrategy is a stub: it always fails with manual-intervention
// recommendations but still participates in ordering and history.
type selfHealingStrategy struct{}

// NewSelfHealingStrategy creates the priority-4 stub strategy for timeout
// and handshake failures.
func NewSelfHealingStrategy() Strategy {
	return &selfHealingStrategy{}
}

func (s *selfHealingStrategy) Name() string { return "self-healing-connection" }

func (s *selfHealingStrategy) Description() string {
	return "Placeholder for automatic reconnection after timeout or handshake failures"
}

func (s *selfHealingStrategy) Priority() int { return 4 }

func (s *selfHealingStrategy) Applicable(err *types.DebugError) bool {
	return err.Kind == types.ErrorKindTimeout || err.Kind == types.ErrorKindHandshake
}

func (s *selfHealingStrategy) Execute(ctx context.Context, err *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error) {
	return &types.RecoveryResult{
		Success:      false,
		StrategyName: s.Name(),
		Message:      "automatic connection healing is not available",
		Recommendations: []string{
			"Restart the target JVM and verify the debug agent flag.",
			"Check for network interference between the debugger and the target host.",
			"If another debugger is attached, disconnect it and retry.",
		},
	}, nil
}
