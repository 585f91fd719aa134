package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/internal/hybrid"
	"github.com/debugmcp/jdwp-mcp/internal/recovery"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// jsonResult marshals v into an indented JSON tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseErrorKind(kind string) (types.ErrorKind, bool) {
	switch types.ErrorKind(kind) {
	case types.ErrorKindConnection, types.ErrorKindHandshake,
		types.ErrorKindConfiguration, types.ErrorKindTimeout, types.ErrorKindUnknown:
		return types.ErrorKind(kind), true
	}
	return "", false
}

// buildRecoveryContext assembles the read-only snapshot one recovery
// attempt works from. Project analysis is best effort.
func (s *Server) buildRecoveryContext(ctx context.Context, workspaceRoot string, cfg *types.DebugConfig) *types.RecoveryContext {
	rctx := &types.RecoveryContext{
		WorkspaceRoot:  workspaceRoot,
		OriginalConfig: cfg,
	}
	if workspaceRoot != "" {
		if info, err := s.analyzer.Analyze(ctx, workspaceRoot); err == nil {
			rctx.ProjectInfo = info
		}
	}
	return rctx
}

// Attach & Recovery Handlers

func (s *Server) handleDebugAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.config.CanAttach() {
		return mcp.NewToolResultError("attaching is disabled by the server configuration"), nil
	}

	host := request.GetString("host", s.config.DefaultHost)
	port := request.GetInt("port", 5005)
	workspaceRoot := request.GetString("workspaceRoot", "")
	retryCount := request.GetInt("retryCount", 0)

	status, err := s.prober.FullValidate(ctx, host, port)
	if err == nil && status.JDWPAgentDetected && status.HasActiveClient {
		err = errors.AgentBusy(host, port)
	}
	if err == nil && !status.JDWPAgentDetected {
		err = errors.HandshakeFailed(host, port, fmt.Errorf("listener is not a JDWP agent"))
	}

	if err == nil {
		return jsonResult(map[string]interface{}{
			"attached": true,
			"agent":    status,
		})
	}

	// Attach failed: classify the failure and run the recovery chain.
	debugErr := errors.NewDebugError(err, retryCount)
	rctx := s.buildRecoveryContext(ctx, workspaceRoot, &types.DebugConfig{Host: host, Port: port})

	result, rerr := s.coordinator.AttemptRecovery(ctx, debugErr, rctx)
	if rerr != nil {
		return mcp.NewToolResultError(rerr.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"attached":    false,
		"attachError": debugErr,
		"recovery":    result,
	})
}

func (s *Server) handleDebugRecover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("kind",
			"Specify the failure kind: connection, handshake, configuration, timeout, or unknown.").Error()), nil
	}
	kind, ok := parseErrorKind(kindStr)
	if !ok {
		return mcp.NewToolResultError(errors.InvalidParameter("kind", kindStr,
			"one of connection, handshake, configuration, timeout, unknown").Error()), nil
	}

	message := request.GetString("message", "attach attempt failed")
	retryCount := request.GetInt("retryCount", 0)
	workspaceRoot := request.GetString("workspaceRoot", "")
	host := request.GetString("host", s.config.DefaultHost)
	port := request.GetInt("port", 0)

	debugErr := types.NewDebugError(kind, message)
	debugErr.RetryCount = retryCount

	rctx := s.buildRecoveryContext(ctx, workspaceRoot, &types.DebugConfig{Host: host, Port: port})

	result, rerr := s.coordinator.AttemptRecovery(ctx, debugErr, rctx)
	if rerr != nil {
		return mcp.NewToolResultError(rerr.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleDebugHybridStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.config.CanStartHybrid() {
		return mcp.NewToolResultError("the hybrid fallback is disabled by the server configuration"), nil
	}

	workspaceRoot, err := request.RequireString("workspaceRoot")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("workspaceRoot",
			"Provide the workspace root containing the application log files.").Error()), nil
	}
	appURL := request.GetString("applicationUrl", s.config.Hybrid.ApplicationURL)

	cfg := hybrid.DefaultConfig(workspaceRoot, appURL, s.config.Hybrid.LogFiles, s.config.Hybrid.APIEndpoints)
	if err := s.fallback.Start(ctx, cfg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.fallback.GetStatus())
}

func (s *Server) handleDebugHybridStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.fallback.Stop(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("hybrid debugging session stopped"), nil
}

// Diagnostic Handlers

func (s *Server) handleDebugTroubleshoot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	problem, err := request.RequireString("problem")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("problem",
			"Describe the problem in free text, e.g. \"I can't connect to the debugger\".").Error()), nil
	}
	workspaceRoot, err := request.RequireString("workspaceRoot")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("workspaceRoot",
			"Provide the workspace root of the project being debugged.").Error()), nil
	}
	targetPort := request.GetInt("targetPort", 0)

	session, err := s.engine.StartTroubleshooting(ctx, problem, workspaceRoot, targetPort)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(session)
}

func (s *Server) handleDebugGetTroubleshootingSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("sessionId",
			"Provide the session id returned by debug_troubleshoot.").Error()), nil
	}

	session, err := s.engine.GetSession(sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(session)
}

func (s *Server) handleDebugDiagnose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceRoot, err := request.RequireString("workspaceRoot")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("workspaceRoot",
			"Provide the workspace root to diagnose.").Error()), nil
	}

	findings := s.engine.RunComprehensiveDiagnostics(ctx, workspaceRoot)
	return jsonResult(findings)
}

func (s *Server) handleDebugTroubleshootingGuide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("kind",
			"Specify the failure kind: connection, handshake, configuration, timeout, or unknown.").Error()), nil
	}

	// Unrecognized kinds deliberately fall through to the generic guide.
	kind, ok := parseErrorKind(kindStr)
	if !ok {
		kind = types.ErrorKindUnknown
	}

	guide := recovery.GenerateTroubleshootingGuide(types.NewDebugError(kind, ""))
	return jsonResult(guide)
}

func (s *Server) handleDebugScanPorts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	statuses, err := s.scanner.Scan(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("port scan failed: %v", err)), nil
	}
	return jsonResult(statuses)
}

func (s *Server) handleDebugAnalyzeProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspaceRoot, err := request.RequireString("workspaceRoot")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("workspaceRoot",
			"Provide the workspace root to analyze.").Error()), nil
	}

	info, err := s.analyzer.Analyze(ctx, workspaceRoot)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(info)
}

func (s *Server) handleDebugProbeAdapter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	port := request.GetInt("port", 0)
	if port <= 0 {
		return mcp.NewToolResultError(errors.MissingParameter("port",
			"Provide the port the adapter is expected to listen on.").Error()), nil
	}
	host := request.GetString("host", s.config.DefaultHost)

	status, err := s.prober.ValidateDAP(ctx, host, port)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(status)
}

func (s *Server) handleDebugHybridStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.fallback.GetStatus())
}
