// Package probe implements liveness and handshake probing of debug agents.
//
// Two protocols are covered:
//   - JDWP: the binary wire protocol JVMs expose. FullValidate performs the
//     14-byte "JDWP-Handshake" exchange and distinguishes a free agent from
//     one that already has an attached client.
//   - DAP: a single initialize round-trip against a Debug Adapter Protocol
//     server, for the non-JVM backends the server fronts.
//
// Probes are cheap and side-effect free; a successful JDWP handshake is
// immediately followed by closing the connection so the agent stays
// attachable.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// jdwpHandshake is the fixed 14-byte greeting both sides of a JDWP
// connection must exchange before any packets flow.
var jdwpHandshake = []byte("JDWP-Handshake")

// Prober probes debug agents over TCP.
type Prober struct {
	quickTimeout     time.Duration
	handshakeTimeout time.Duration
	logger           *zap.Logger
}

// NewProber creates a prober with the given timeouts. A nil logger is
// replaced with a no-op logger.
func NewProber(quickTimeout, handshakeTimeout time.Duration, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		quickTimeout:     quickTimeout,
		handshakeTimeout: handshakeTimeout,
		logger:           logger,
	}
}

// QuickCheck reports whether something is accepting TCP connections on
// host:port. It says nothing about what protocol is behind the port.
func (p *Prober) QuickCheck(ctx context.Context, host string, port int) bool {
	dialer := net.Dialer{Timeout: p.quickTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// FullValidate performs the JDWP handshake against host:port and reports
// what it found. The returned status is non-nil even on failure so callers
// can inspect partial results.
func (p *Prober) FullValidate(ctx context.Context, host string, port int) (*types.AgentStatus, error) {
	status := &types.AgentStatus{Host: host, Port: port}

	dialer := net.Dialer{Timeout: p.handshakeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return status, srverrors.ProbeFailed(host, port, err)
	}
	defer conn.Close()
	status.Connected = true

	deadline := time.Now().Add(p.handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return status, srverrors.ProbeFailed(host, port, err)
	}

	if _, err := conn.Write(jdwpHandshake); err != nil {
		return status, srverrors.HandshakeFailed(host, port, err)
	}

	reply := make([]byte, len(jdwpHandshake))
	if _, err := io.ReadFull(conn, reply); err != nil {
		// A JDWP agent that already has an attached client accepts the
		// TCP connection but drops it without completing the handshake.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || isReset(err) {
			status.JDWPAgentDetected = true
			status.HasActiveClient = true
			p.logger.Debug("agent busy",
				zap.String("host", host),
				zap.Int("port", port))
			return status, nil
		}
		return status, srverrors.HandshakeFailed(host, port, err)
	}

	if !bytes.Equal(reply, jdwpHandshake) {
		return status, srverrors.HandshakeFailed(host, port,
			fmt.Errorf("unexpected handshake reply %q", reply))
	}

	status.JDWPAgentDetected = true
	p.logger.Debug("jdwp agent validated",
		zap.String("host", host),
		zap.Int("port", port))
	return status, nil
}

func isReset(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return false
	}
	return errors.Is(err, syscall.ECONNRESET)
}
