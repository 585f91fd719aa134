package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"syscall"
	"testing"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

func TestServerErrorFormatting(t *testing.T) {
	err := HandshakeFailed("localhost", 5005, fmt.Errorf("broken pipe"))
	msg := err.Error()
	if !strings.Contains(msg, "localhost:5005") {
		t.Errorf("Error() = %q, want host:port included", msg)
	}
	if err.Code != CodeHandshakeFailed {
		t.Errorf("Code = %s, want %s", err.Code, CodeHandshakeFailed)
	}
	if err.Hint == "" {
		t.Error("constructor errors carry a hint")
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := ProbeFailed("localhost", 5005, cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is must reach the cause through Unwrap")
	}
}

func TestIsCode(t *testing.T) {
	err := SessionNotFound("abc")
	if !IsCode(err, CodeSessionNotFound) {
		t.Error("IsCode must match the carried code")
	}
	if IsCode(err, CodeAgentBusy) {
		t.Error("IsCode must not match a different code")
	}
	wrapped := fmt.Errorf("context: %w", err)
	if !IsCode(wrapped, CodeSessionNotFound) {
		t.Error("IsCode must see through wrapping")
	}
	if IsCode(nil, CodeSessionNotFound) {
		t.Error("IsCode(nil) must be false")
	}
	if IsCode(fmt.Errorf("plain"), CodeSessionNotFound) {
		t.Error("IsCode must be false for non-ServerError errors")
	}
}

func TestWithDetails(t *testing.T) {
	err := AgentBusy("localhost", 5005).WithDetails("attempt", 3)
	if err.Details["attempt"] != 3 {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.ErrorKind
	}{
		{"nil", nil, types.ErrorKindUnknown},
		{"handshake code", HandshakeFailed("h", 1, fmt.Errorf("x")), types.ErrorKindHandshake},
		{"agent busy code", AgentBusy("h", 1), types.ErrorKindHandshake},
		{"probe code", ProbeFailed("h", 1, fmt.Errorf("x")), types.ErrorKindConnection},
		{"workspace code", WorkspaceNotFound("/x"), types.ErrorKindConfiguration},
		{"missing parameter", MissingParameter("port", ""), types.ErrorKindConfiguration},
		{"econnrefused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), types.ErrorKindConnection},
		{"econnreset", fmt.Errorf("read: %w", syscall.ECONNRESET), types.ErrorKindHandshake},
		{"epipe", fmt.Errorf("write: %w", syscall.EPIPE), types.ErrorKindHandshake},
		{"timeout substring", fmt.Errorf("operation timed out"), types.ErrorKindTimeout},
		{"refused substring", fmt.Errorf("connection refused by peer"), types.ErrorKindConnection},
		{"handshake substring", fmt.Errorf("bad handshake reply"), types.ErrorKindHandshake},
		{"config substring", fmt.Errorf("missing main class"), types.ErrorKindConfiguration},
		{"unclassifiable", fmt.Errorf("gremlins"), types.ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewDebugError(t *testing.T) {
	serr := HandshakeFailed("localhost", 5005, fmt.Errorf("eof")).WithDetails("port", 5005)
	de := NewDebugError(serr, 2)

	if de.Kind != types.ErrorKindHandshake {
		t.Errorf("Kind = %s, want handshake", de.Kind)
	}
	if de.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", de.RetryCount)
	}
	if de.Code != string(CodeHandshakeFailed) {
		t.Errorf("Code = %q, want %s", de.Code, CodeHandshakeFailed)
	}
	if de.Details["port"] != 5005 {
		t.Errorf("Details = %v", de.Details)
	}
	if de.Timestamp.IsZero() {
		t.Error("Timestamp must be set")
	}

	plain := NewDebugError(fmt.Errorf("gremlins"), 0)
	if plain.Kind != types.ErrorKindUnknown || plain.Code != "" {
		t.Errorf("plain error mapped to %+v", plain)
	}
}
