// Package mcp provides the Model Context Protocol (MCP) server implementation.
//
// This package exposes the recovery and diagnostic engine through MCP
// tools that can be used by AI assistants and other MCP clients:
//
// Attach & recovery (full mode only):
//   - debug_attach: Validate and attach to a debug agent, recovering on failure
//   - debug_recover: Run the recovery strategy chain for a described failure
//   - debug_hybrid_start / debug_hybrid_stop: Control the non-invasive fallback
//
// Diagnostics (always available):
//   - debug_troubleshoot: Start an interactive troubleshooting session
//   - debug_get_troubleshooting_session: Look up a session by id
//   - debug_diagnose: Run the comprehensive one-shot diagnostics sweep
//   - debug_troubleshooting_guide: Static guidance for an error kind
//   - debug_scan_ports: Classify the common debug ports
//   - debug_analyze_project: Detect build metadata from a workspace
//   - debug_probe_adapter: Check a Debug Adapter Protocol server
//   - debug_hybrid_status: Inspect the hybrid fallback session
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/debugmcp/jdwp-mcp/internal/config"
	"github.com/debugmcp/jdwp-mcp/internal/diagnose"
	"github.com/debugmcp/jdwp-mcp/internal/hybrid"
	"github.com/debugmcp/jdwp-mcp/internal/portscan"
	"github.com/debugmcp/jdwp-mcp/internal/probe"
	"github.com/debugmcp/jdwp-mcp/internal/project"
	"github.com/debugmcp/jdwp-mcp/internal/recovery"
	"github.com/debugmcp/jdwp-mcp/internal/version"
)

// Server wraps the MCP server with the recovery and diagnostic engine
type Server struct {
	mcpServer   *server.MCPServer
	config      *config.Config
	logger      *zap.Logger
	prober      *probe.Prober
	scanner     *portscan.Scanner
	analyzer    *project.Analyzer
	fallback    *hybrid.Fallback
	coordinator *recovery.Coordinator
	engine      *diagnose.Engine
}

// NewServer creates a new JDWP-MCP server
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		"jdwp-mcp",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	prober := probe.NewProber(cfg.QuickProbeTimeout, cfg.HandshakeTimeout, logger.Named("probe"))
	scanner := portscan.NewScanner(cfg.DefaultHost, cfg.CommonDebugPorts, prober, logger.Named("portscan"))
	analyzer := project.NewAnalyzer(logger.Named("project"))
	fallback := hybrid.NewFallback(cfg.Hybrid.ProbeInterval, logger.Named("hybrid"))

	registry := recovery.NewRegistry()
	registry.Register(recovery.NewPortDetectionStrategy(cfg.DefaultHost, cfg.CommonDebugPorts, prober))
	registry.Register(recovery.NewConfigAutoFixStrategy())
	registry.Register(recovery.NewHybridFallbackStrategy(fallback, cfg.Hybrid.ApplicationURL, cfg.Hybrid.LogFiles, cfg.Hybrid.APIEndpoints))
	registry.Register(recovery.NewSelfHealingStrategy())

	coordinator := recovery.NewCoordinator(registry, cfg.StrategyTimeout, cfg.MaxHistory, logger.Named("recovery"))

	defaultPort := 5005
	if len(cfg.CommonDebugPorts) > 0 {
		defaultPort = cfg.CommonDebugPorts[0]
	}
	engine := diagnose.NewEngine(analyzer, scanner, prober, cfg.DefaultHost, defaultPort, cfg.MaxSessions, logger.Named("diagnose"))

	s := &Server{
		mcpServer:   mcpServer,
		config:      cfg,
		logger:      logger,
		prober:      prober,
		scanner:     scanner,
		analyzer:    analyzer,
		fallback:    fallback,
		coordinator: coordinator,
		engine:      engine,
	}

	// Drain progress events into the log so slow strategies and running
	// troubleshooting sessions stay visible.
	go s.logRecoveryEvents()
	go s.logDiagnosticEvents()

	s.registerTools()

	return s
}

// registerTools is defined in tools.go

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the server
func (s *Server) Close() {
	// Best effort: a hybrid session may or may not be running.
	_ = s.fallback.Stop()
}

// GetCoordinator returns the recovery coordinator
func (s *Server) GetCoordinator() *recovery.Coordinator {
	return s.coordinator
}

// GetEngine returns the diagnostic session engine
func (s *Server) GetEngine() *diagnose.Engine {
	return s.engine
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}

func (s *Server) logRecoveryEvents() {
	for ev := range s.coordinator.Events() {
		s.logger.Debug("recovery progress",
			zap.String("event", string(ev.Type)),
			zap.String("strategy", ev.Strategy),
			zap.String("error", ev.Error))
	}
}

func (s *Server) logDiagnosticEvents() {
	for ev := range s.engine.Events() {
		s.logger.Debug("troubleshooting progress",
			zap.String("event", string(ev.Type)),
			zap.String("sessionId", ev.SessionID),
			zap.String("step", ev.StepID))
	}
}
