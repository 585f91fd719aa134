package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the debug tool API
func (s *Server) registerTools() {
	// Diagnostics (both modes)
	s.registerDebugTroubleshoot()
	s.registerDebugGetTroubleshootingSession()
	s.registerDebugDiagnose()
	s.registerDebugTroubleshootingGuide()
	s.registerDebugScanPorts()
	s.registerDebugAnalyzeProject()
	s.registerDebugProbeAdapter()
	s.registerDebugHybridStatus()

	// Attach & recovery (full mode only)
	if s.config.CanUseRecoveryTools() {
		s.registerDebugAttach()
		s.registerDebugRecover()
		s.registerDebugHybridStart()
		s.registerDebugHybridStop()
	}
}

// Attach & Recovery Tools

func (s *Server) registerDebugAttach() {
	tool := mcp.NewTool("debug_attach",
		mcp.WithDescription("Validate a debug agent with the full JDWP handshake and attach to it. On failure the recovery strategy chain runs automatically and the result includes a repaired configuration when one was found."),
		mcp.WithString("host",
			mcp.Description("Host of the debug agent (default: the configured default host)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port of the debug agent (default: 5005, the conventional JDWP port)"),
		),
		mcp.WithString("workspaceRoot",
			mcp.Description("Workspace root used for project metadata during recovery"),
		),
		mcp.WithNumber("retryCount",
			mcp.Description("How many attach attempts have already failed. At 2 or more the hybrid fallback becomes applicable."),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugAttach)
}

func (s *Server) registerDebugRecover() {
	tool := mcp.NewTool("debug_recover",
		mcp.WithDescription("Run the recovery strategy chain for a described attach failure. Strategies are tried in priority order; the first success wins."),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Failure kind: connection, handshake, configuration, timeout, or unknown"),
		),
		mcp.WithString("message",
			mcp.Description("Failure message from the attach attempt"),
		),
		mcp.WithNumber("retryCount",
			mcp.Description("How many attempts have already failed (default: 0)"),
		),
		mcp.WithString("workspaceRoot",
			mcp.Description("Workspace root used for project metadata"),
		),
		mcp.WithString("host",
			mcp.Description("Host from the failed attach configuration"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port from the failed attach configuration"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugRecover)
}

func (s *Server) registerDebugHybridStart() {
	tool := mcp.NewTool("debug_hybrid_start",
		mcp.WithDescription("Start the non-invasive hybrid debugging fallback: log tailing plus periodic HTTP health probes."),
		mcp.WithString("workspaceRoot",
			mcp.Required(),
			mcp.Description("Workspace root containing the application log files"),
		),
		mcp.WithString("applicationUrl",
			mcp.Description("Base URL of the running application (default from configuration)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugHybridStart)
}

func (s *Server) registerDebugHybridStop() {
	tool := mcp.NewTool("debug_hybrid_stop",
		mcp.WithDescription("Stop the active hybrid debugging session"),
	)
	s.mcpServer.AddTool(tool, s.handleDebugHybridStop)
}

// Diagnostic Tools

func (s *Server) registerDebugTroubleshoot() {
	tool := mcp.NewTool("debug_troubleshoot",
		mcp.WithDescription("Start an interactive troubleshooting session for a described problem. The session runs its full diagnostic step chain before returning; expect it to take several seconds."),
		mcp.WithString("problem",
			mcp.Required(),
			mcp.Description("Free-text description of the problem, e.g. \"I can't connect to the debugger\""),
		),
		mcp.WithString("workspaceRoot",
			mcp.Required(),
			mcp.Description("Workspace root of the project being debugged"),
		),
		mcp.WithNumber("targetPort",
			mcp.Description("Debug port under suspicion (default: 5005)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugTroubleshoot)
}

func (s *Server) registerDebugGetTroubleshootingSession() {
	tool := mcp.NewTool("debug_get_troubleshooting_session",
		mcp.WithDescription("Look up a troubleshooting session by id, including step statuses, recommendations, and resolution"),
		mcp.WithString("sessionId",
			mcp.Required(),
			mcp.Description("The session id returned by debug_troubleshoot"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugGetTroubleshootingSession)
}

func (s *Server) registerDebugDiagnose() {
	tool := mcp.NewTool("debug_diagnose",
		mcp.WithDescription("Run the comprehensive one-shot diagnostics sweep over a workspace. Returns severity-tagged findings; no session is created."),
		mcp.WithString("workspaceRoot",
			mcp.Required(),
			mcp.Description("Workspace root to diagnose"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugDiagnose)
}

func (s *Server) registerDebugTroubleshootingGuide() {
	tool := mcp.NewTool("debug_troubleshooting_guide",
		mcp.WithDescription("Get static troubleshooting guidance for a failure kind: symptoms, step-by-step solutions, and prevention tips"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Failure kind: connection, handshake, configuration, timeout, or unknown"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugTroubleshootingGuide)
}

func (s *Server) registerDebugScanPorts() {
	tool := mcp.NewTool("debug_scan_ports",
		mcp.WithDescription("Classify the common debug ports as free, in use, or running a debug agent (with active-client detection)"),
	)
	s.mcpServer.AddTool(tool, s.handleDebugScanPorts)
}

func (s *Server) registerDebugAnalyzeProject() {
	tool := mcp.NewTool("debug_analyze_project",
		mcp.WithDescription("Detect build system, main class, class paths, and source paths from a workspace"),
		mcp.WithString("workspaceRoot",
			mcp.Required(),
			mcp.Description("Workspace root to analyze"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugAnalyzeProject)
}

func (s *Server) registerDebugProbeAdapter() {
	tool := mcp.NewTool("debug_probe_adapter",
		mcp.WithDescription("Check whether a Debug Adapter Protocol server answers on a port, using a single initialize round-trip"),
		mcp.WithString("host",
			mcp.Description("Host of the adapter (default: the configured default host)"),
		),
		mcp.WithNumber("port",
			mcp.Required(),
			mcp.Description("Port the adapter is expected to listen on"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebugProbeAdapter)
}

func (s *Server) registerDebugHybridStatus() {
	tool := mcp.NewTool("debug_hybrid_status",
		mcp.WithDescription("Inspect the hybrid debugging session: watched log files, last log activity, and endpoint probe results"),
	)
	s.mcpServer.AddTool(tool, s.handleDebugHybridStatus)
}
