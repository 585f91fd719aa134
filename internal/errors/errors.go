// Package errors provides structured error types for the JDWP-MCP server.
// These errors include helpful hints and suggestions that guide the LLM
// to correct course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Recovery errors
	CodeAlreadyRecovering ErrorCode = "ALREADY_RECOVERING"
	CodeRecoveryFailed    ErrorCode = "RECOVERY_FAILED"

	// Session errors
	CodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// Probe errors
	CodeProbeFailed      ErrorCode = "PROBE_FAILED"
	CodeHandshakeFailed  ErrorCode = "HANDSHAKE_FAILED"
	CodeAgentBusy        ErrorCode = "AGENT_BUSY"
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"

	// Workspace errors
	CodeWorkspaceNotFound ErrorCode = "WORKSPACE_NOT_FOUND"

	// Hybrid fallback errors
	CodeHybridStartFailed    ErrorCode = "HYBRID_START_FAILED"
	CodeHybridAlreadyActive  ErrorCode = "HYBRID_ALREADY_ACTIVE"
	CodeHybridNotActive      ErrorCode = "HYBRID_NOT_ACTIVE"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// ServerError is a structured error type that includes helpful information
// for the LLM to understand what went wrong and how to fix it.
type ServerError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human/LLM-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value, expected format)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *ServerError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *ServerError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *ServerError) WithDetails(key string, value interface{}) *ServerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *ServerError) WithCause(err error) *ServerError {
	e.Cause = err
	return e
}

// --- Recovery Errors ---

// AlreadyRecovering creates an error for a second recovery attempt issued
// while one is still in flight on the same coordinator.
func AlreadyRecovering() *ServerError {
	return &ServerError{
		Code:    CodeAlreadyRecovering,
		Message: "a recovery attempt is already in progress on this coordinator",
		Hint:    "Wait for the current recovery to settle before retrying. Concurrent recoveries require separate coordinator instances.",
	}
}

// --- Session Errors ---

// SessionNotFound creates an error for when a troubleshooting session ID doesn't exist
func SessionNotFound(sessionID string) *ServerError {
	return &ServerError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("troubleshooting session '%s' not found", sessionID),
		Hint:    "Use debug_troubleshoot to start a new session; the returned session id is required for lookups.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// --- Probe Errors ---

// ProbeFailed creates an error when an agent probe cannot reach the target
func ProbeFailed(host string, port int, err error) *ServerError {
	return &ServerError{
		Code:    CodeProbeFailed,
		Message: fmt.Sprintf("failed to probe debug agent at %s:%d: %v", host, port, err),
		Hint:    "Ensure the target JVM was started with -agentlib:jdwp and is listening on the expected port. Use debug_scan_ports to locate live agents.",
		Cause:   err,
		Details: map[string]interface{}{
			"host": host,
			"port": port,
		},
	}
}

// HandshakeFailed creates an error when the JDWP handshake is rejected
func HandshakeFailed(host string, port int, err error) *ServerError {
	return &ServerError{
		Code:    CodeHandshakeFailed,
		Message: fmt.Sprintf("JDWP handshake with %s:%d failed: %v", host, port, err),
		Hint:    "The port is open but is not speaking JDWP, or another debugger already holds the connection. Try observer mode or a different port.",
		Cause:   err,
		Details: map[string]interface{}{
			"host": host,
			"port": port,
		},
	}
}

// AgentBusy creates an error when an agent already has an attached client
func AgentBusy(host string, port int) *ServerError {
	return &ServerError{
		Code:    CodeAgentBusy,
		Message: fmt.Sprintf("debug agent at %s:%d already has an active client", host, port),
		Hint:    "Attach in observer mode, disconnect the existing client (often an IDE), or fall back to hybrid debugging.",
		Details: map[string]interface{}{
			"host": host,
			"port": port,
		},
	}
}

// --- Workspace Errors ---

// WorkspaceNotFound creates an error for a missing workspace root
func WorkspaceNotFound(path string) *ServerError {
	return &ServerError{
		Code:    CodeWorkspaceNotFound,
		Message: fmt.Sprintf("workspace root '%s' does not exist", path),
		Hint:    "Provide the absolute path of the project directory containing the build files (pom.xml, build.gradle, or src/).",
		Details: map[string]interface{}{
			"workspaceRoot": path,
		},
	}
}

// --- Hybrid Fallback Errors ---

// HybridStartFailed creates an error when the hybrid fallback cannot start
func HybridStartFailed(err error) *ServerError {
	return &ServerError{
		Code:    CodeHybridStartFailed,
		Message: fmt.Sprintf("failed to start hybrid debugging fallback: %v", err),
		Hint:    "Check that the workspace root exists and log files are readable. Manual inspection of application logs remains possible.",
		Cause:   err,
	}
}

// HybridAlreadyActive creates an error when a hybrid session is already running
func HybridAlreadyActive() *ServerError {
	return &ServerError{
		Code:    CodeHybridAlreadyActive,
		Message: "a hybrid debugging session is already active",
		Hint:    "Stop the current hybrid session with debug_hybrid_stop before starting a new one.",
	}
}

// HybridNotActive creates an error when no hybrid session is running
func HybridNotActive() *ServerError {
	return &ServerError{
		Code:    CodeHybridNotActive,
		Message: "no hybrid debugging session is active",
		Hint:    "Start one with debug_hybrid_start or let the hybrid-debugging-fallback recovery strategy start it for you.",
	}
}

// --- Parameter Errors ---

// MissingParameter creates an error for missing required parameters
func MissingParameter(paramName, description string) *ServerError {
	return &ServerError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter creates an error for invalid parameter values
func InvalidParameter(paramName string, value interface{}, expected string) *ServerError {
	return &ServerError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// --- Helper for wrapping generic errors ---

// Wrap wraps a generic error with context
func Wrap(code ErrorCode, message string, hint string, err error) *ServerError {
	return &ServerError{
		Code:    code,
		Message: message,
		Hint:    hint,
		Cause:   err,
	}
}

// IsCode reports whether err is a ServerError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *ServerError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// --- Error classification ---

// Classify maps a transport-level error onto the DebugError kind taxonomy.
// The kind answers why an attach failed, independent of how recovery
// proceeds.
func Classify(err error) types.ErrorKind {
	if err == nil {
		return types.ErrorKindUnknown
	}

	var se *ServerError
	if stderrors.As(err, &se) {
		switch se.Code {
		case CodeHandshakeFailed, CodeAgentBusy:
			return types.ErrorKindHandshake
		case CodeConnectionFailed, CodeProbeFailed:
			return types.ErrorKindConnection
		case CodeWorkspaceNotFound, CodeMissingParameter, CodeInvalidParameter:
			return types.ErrorKindConfiguration
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return types.ErrorKindTimeout
	}
	if stderrors.Is(err, os.ErrDeadlineExceeded) {
		return types.ErrorKindTimeout
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, syscall.EHOSTUNREACH) {
		return types.ErrorKindConnection
	}
	if stderrors.Is(err, syscall.ECONNRESET) || stderrors.Is(err, syscall.EPIPE) {
		return types.ErrorKindHandshake
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return types.ErrorKindTimeout
	case strings.Contains(msg, "refused") || strings.Contains(msg, "unreachable"):
		return types.ErrorKindConnection
	case strings.Contains(msg, "handshake"):
		return types.ErrorKindHandshake
	case strings.Contains(msg, "config") || strings.Contains(msg, "main class") || strings.Contains(msg, "classpath"):
		return types.ErrorKindConfiguration
	}

	return types.ErrorKindUnknown
}

// NewDebugError builds a DebugError from a transport error, classifying
// its kind and recording the retry count supplied by the caller.
func NewDebugError(err error, retryCount int) *types.DebugError {
	de := types.NewDebugError(Classify(err), err.Error())
	de.RetryCount = retryCount
	var se *ServerError
	if stderrors.As(err, &se) {
		de.Code = string(se.Code)
		de.Details = se.Details
	}
	return de
}
