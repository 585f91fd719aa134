package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/go-dap"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// ValidateDAP checks whether a Debug Adapter Protocol server is listening
// on host:port by sending a single initialize request and waiting for the
// matching response. It is a probe, not a client: the connection is closed
// immediately after the round-trip.
func (p *Prober) ValidateDAP(ctx context.Context, host string, port int) (*types.AgentStatus, error) {
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

	req := &dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
			Command:         "initialize",
		},
		Arguments: dap.InitializeRequestArguments{
			ClientID:        "jdwp-mcp",
			ClientName:      "JDWP-MCP probe",
			AdapterID:       "probe",
			LinesStartAt1:   true,
			ColumnsStartAt1: true,
		},
	}
	if err := dap.WriteProtocolMessage(conn, req); err != nil {
		return status, srverrors.HandshakeFailed(host, port, err)
	}

	reader := bufio.NewReader(conn)
	for {
		msg, err := dap.ReadProtocolMessage(reader)
		if err != nil {
			return status, srverrors.HandshakeFailed(host, port, err)
		}
		if _, ok := msg.(*dap.InitializeResponse); ok {
			break
		}
		// Adapters may emit events before the initialize response.
	}

	status.DAPServerDetected = true
	return status, nil
}
