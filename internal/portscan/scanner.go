// Package portscan classifies the conventional debug ports of a host and
// suggests ways out of port conflicts.
//
// Scanning stays strictly sequential over the configured port list so the
// earliest port in the list always wins ties when callers pick the first
// live agent.
package portscan

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/debugmcp/jdwp-mcp/internal/probe"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// Scanner probes a fixed ordered list of common debug ports.
type Scanner struct {
	host   string
	ports  []int
	prober *probe.Prober
	logger *zap.Logger
}

// NewScanner creates a scanner over the given ordered port list.
func NewScanner(host string, ports []int, prober *probe.Prober, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		host:   host,
		ports:  ports,
		prober: prober,
		logger: logger,
	}
}

// Ports returns the ordered port list the scanner probes.
func (s *Scanner) Ports() []int {
	return append([]int(nil), s.ports...)
}

// Scan classifies every configured port as free, in use, or running a
// debug agent. Ports are probed one at a time, in list order.
func (s *Scanner) Scan(ctx context.Context) ([]types.PortStatus, error) {
	results := make([]types.PortStatus, 0, len(s.ports))

	for _, port := range s.ports {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if !s.prober.QuickCheck(ctx, s.host, port) {
			results = append(results, types.PortStatus{Port: port, Status: types.PortFree})
			continue
		}

		status, err := s.prober.FullValidate(ctx, s.host, port)
		if err != nil || !status.JDWPAgentDetected {
			results = append(results, types.PortStatus{Port: port, Status: types.PortInUse})
			continue
		}

		results = append(results, types.PortStatus{
			Port:   port,
			Status: types.PortDebugAgent,
			DebugInfo: &types.PortDebugInfo{
				HasActiveClient: status.HasActiveClient,
			},
		})
		s.logger.Debug("debug agent found",
			zap.Int("port", port),
			zap.Bool("hasActiveClient", status.HasActiveClient))
	}

	return results, nil
}

// SuggestConflictResolution returns the canonical guidance for a port that
// is held by another debug client. This is the single authority for
// conflict guidance; recovery and diagnostics reference it rather than
// carrying their own tables.
func (s *Scanner) SuggestConflictResolution(ctx context.Context, port int) ([]types.ConflictSuggestion, error) {
	suggestions := []types.ConflictSuggestion{
		{
			Title:       "Attach in observer mode",
			Description: fmt.Sprintf("Attach to port %d read-only, without contending with the existing client.", port),
		},
		{
			Title:       "Disconnect the existing client",
			Description: "Another debugger (often an IDE) holds the connection. Disconnect it, then retry the attach.",
		},
		{
			Title:       "Use hybrid debugging",
			Description: "Fall back to log tailing and periodic HTTP probes instead of a live protocol connection.",
		},
	}

	// Offer a concrete alternative port when one is free.
	free, err := s.FindAvailable(ctx, 1)
	if err == nil && len(free) > 0 {
		suggestions = append(suggestions, types.ConflictSuggestion{
			Title:       "Restart the JVM on a free port",
			Description: fmt.Sprintf("Port %d is available.", free[0]),
			Command:     fmt.Sprintf("-agentlib:jdwp=transport=dt_socket,server=y,suspend=n,address=*:%d", free[0]),
		})
	}

	return suggestions, nil
}

// FindAvailable returns up to n free TCP ports, found by binding to :0.
func (s *Scanner) FindAvailable(ctx context.Context, n int) ([]int, error) {
	ports := make([]int, 0, n)
	listeners := make([]net.Listener, 0, n)
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()

	for len(ports) < n {
		if err := ctx.Err(); err != nil {
			return ports, err
		}
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return ports, fmt.Errorf("failed to find available port: %w", err)
		}
		// Keep the listener open until all ports are collected so the
		// same port is not handed out twice.
		listeners = append(listeners, l)
		addr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			return ports, fmt.Errorf("unexpected listener address type %T", l.Addr())
		}
		ports = append(ports, addr.Port)
	}

	return ports, nil
}
