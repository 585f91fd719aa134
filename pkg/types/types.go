// Package types defines shared data types used across the JDWP-MCP server.
//
// This package provides type definitions for:
//   - ErrorKind / DebugError: classification of why an attach attempt failed
//   - DebugConfig / RecoveryContext / RecoveryResult: recovery inputs and outputs
//   - TroubleshootingStep / TroubleshootingSession: interactive diagnostics
//   - DiagnosticResult: findings from the comprehensive diagnostics sweep
//   - ProjectInfo / PortStatus / AgentStatus: collaborator result shapes
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

import "time"

// ErrorKind classifies why an attach attempt failed. It is independent of
// how recovery proceeds.
type ErrorKind string

const (
	ErrorKindConnection    ErrorKind = "connection"
	ErrorKindHandshake     ErrorKind = "handshake"
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// DebugError describes a failed attach attempt. Immutable once created.
type DebugError struct {
	Kind       ErrorKind              `json:"kind"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RetryCount int                    `json:"retryCount"`
}

// NewDebugError creates a DebugError with the timestamp set to now.
func NewDebugError(kind ErrorKind, message string) *DebugError {
	return &DebugError{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// DebugConfig is the attach configuration recovery strategies repair.
type DebugConfig struct {
	Host        string   `json:"host,omitempty"`
	Port        int      `json:"port,omitempty"`
	MainClass   string   `json:"mainClass,omitempty"`
	ClassPaths  []string `json:"classPaths,omitempty"`
	SourcePaths []string `json:"sourcePaths,omitempty"`
	ProjectName string   `json:"projectName,omitempty"`
}

// Clone returns a copy of the config with its slices duplicated, so
// strategies can overwrite fields without mutating the caller's snapshot.
func (c *DebugConfig) Clone() *DebugConfig {
	if c == nil {
		return &DebugConfig{}
	}
	out := *c
	out.ClassPaths = append([]string(nil), c.ClassPaths...)
	out.SourcePaths = append([]string(nil), c.SourcePaths...)
	return &out
}

// ProjectInfo holds build metadata detected from a workspace.
type ProjectInfo struct {
	MainClass   string   `json:"mainClass,omitempty"`
	ClassPaths  []string `json:"classPaths"`
	SourcePaths []string `json:"sourcePaths"`
	BuildSystem string   `json:"buildSystem,omitempty"`
}

// PortState describes what a scanned port is doing.
type PortState string

const (
	PortFree       PortState = "free"
	PortInUse      PortState = "in_use"
	PortDebugAgent PortState = "debug_agent"
)

// PortDebugInfo carries agent-specific detail for ports running a debug agent.
type PortDebugInfo struct {
	HasActiveClient bool `json:"hasActiveClient"`
}

// PortStatus is the per-port result of a scan.
type PortStatus struct {
	Port      int            `json:"port"`
	Status    PortState      `json:"status"`
	DebugInfo *PortDebugInfo `json:"debugInfo,omitempty"`
}

// AgentStatus is the result of a full agent handshake validation.
type AgentStatus struct {
	Port              int    `json:"port"`
	Host              string `json:"host"`
	Connected         bool   `json:"connected"`
	JDWPAgentDetected bool   `json:"jdwpAgentDetected,omitempty"`
	DAPServerDetected bool   `json:"dapServerDetected,omitempty"`
	HasActiveClient   bool   `json:"hasActiveClient,omitempty"`
}

// RecoveryContext is a read-only snapshot supplied by the caller for one
// recovery attempt.
type RecoveryContext struct {
	WorkspaceRoot  string        `json:"workspaceRoot"`
	ProjectInfo    *ProjectInfo  `json:"projectInfo,omitempty"`
	OriginalConfig *DebugConfig  `json:"originalConfig,omitempty"`
	AvailablePorts []int         `json:"availablePorts,omitempty"`
	KnownAgents    []AgentStatus `json:"knownAgents,omitempty"`
}

// FallbackMethod names the degraded path a failed recovery points the
// caller at.
type FallbackMethod string

const (
	FallbackHybrid      FallbackMethod = "hybrid"
	FallbackManual      FallbackMethod = "manual"
	FallbackAlternative FallbackMethod = "alternative"
)

// RecoveryResult is the unit returned to the caller. Always present, even
// when recovery failed.
type RecoveryResult struct {
	Success         bool           `json:"success"`
	StrategyName    string         `json:"strategyName"`
	Message         string         `json:"message"`
	NewConfig       *DebugConfig   `json:"newConfig,omitempty"`
	FallbackMethod  FallbackMethod `json:"fallbackMethod,omitempty"`
	Recommendations []string       `json:"recommendations"`
}

// StepKind categorizes a troubleshooting step.
type StepKind string

const (
	StepCheck          StepKind = "check"
	StepAction         StepKind = "action"
	StepQuestion       StepKind = "question"
	StepRecommendation StepKind = "recommendation"
)

// StepStatus is the lifecycle state of a troubleshooting step.
// Lifecycle: pending -> running -> (completed|failed). Skipped is reserved
// for steps with AutoExecute=false.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// TroubleshootingStep is one unit of an interactive diagnostic session.
type TroubleshootingStep struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Kind        StepKind    `json:"kind"`
	Status      StepStatus  `json:"status"`
	Result      interface{} `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	AutoExecute bool        `json:"autoExecute"`
}

// SessionContext accumulates collaborator results as steps execute.
type SessionContext struct {
	WorkspaceRoot string       `json:"workspaceRoot"`
	ProjectInfo   *ProjectInfo `json:"projectInfo,omitempty"`
	PortInfo      []PortStatus `json:"portInfo,omitempty"`
	TargetPort    int          `json:"targetPort,omitempty"`
}

// Resolution is set exactly once, when a session's step chain has run to
// completion.
type Resolution struct {
	Success bool   `json:"success"`
	Method  string `json:"method"`
	Details string `json:"details"`
}

// ProblemCategory is a keyword-matched classification of the user's
// problem description. Classification is multi-match: zero or more
// categories may apply to one problem.
type ProblemCategory string

const (
	CategoryConnection    ProblemCategory = "connection"
	CategoryConfiguration ProblemCategory = "configuration"
	CategoryPerformance   ProblemCategory = "performance"
)

// TroubleshootingSession is an interactive diagnostic session. Owned
// exclusively by the engine instance that created it; CurrentStepIndex
// only ever increases and never exceeds len(Steps).
type TroubleshootingSession struct {
	ID                string                 `json:"id"`
	Problem           string                 `json:"problem"`
	StartTime         time.Time              `json:"startTime"`
	CurrentStepIndex  int                    `json:"currentStepIndex"`
	Steps             []*TroubleshootingStep `json:"steps"`
	Context           SessionContext         `json:"context"`
	MatchedCategories []ProblemCategory      `json:"matchedCategories"`
	Recommendations   []string               `json:"recommendations"`
	Resolution        *Resolution            `json:"resolution,omitempty"`
}

// DiagnosticCategory groups findings from the comprehensive sweep.
type DiagnosticCategory string

const (
	DiagEnvironment   DiagnosticCategory = "environment"
	DiagConnection    DiagnosticCategory = "connection"
	DiagConfiguration DiagnosticCategory = "configuration"
	DiagApplication   DiagnosticCategory = "application"
)

// DiagnosticSeverity ranks a finding.
type DiagnosticSeverity string

const (
	SeverityInfo     DiagnosticSeverity = "info"
	SeverityWarning  DiagnosticSeverity = "warning"
	SeverityError    DiagnosticSeverity = "error"
	SeverityCritical DiagnosticSeverity = "critical"
)

// DiagnosticResult is a single severity-tagged finding.
type DiagnosticResult struct {
	Category    DiagnosticCategory `json:"category"`
	Severity    DiagnosticSeverity `json:"severity"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Impact      string             `json:"impact"`
	Solution    string             `json:"solution"`
	AutoFixable bool               `json:"autoFixable"`
}

// HybridConfig configures the non-invasive hybrid debugging fallback.
type HybridConfig struct {
	WorkspaceRoot              string   `json:"workspaceRoot"`
	ApplicationURL             string   `json:"applicationUrl"`
	LogFiles                   []string `json:"logFiles"`
	APIEndpoints               []string `json:"apiEndpoints"`
	EnableLogWatching          bool     `json:"enableLogWatching"`
	EnableAPITesting           bool     `json:"enableApiTesting"`
	EnableBreakpointSimulation bool     `json:"enableBreakpointSimulation"`
}

// ConflictSuggestion is one suggested way out of a port conflict.
type ConflictSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Command     string `json:"command,omitempty"`
}

// TroubleshootingSolution is one entry in a static troubleshooting guide.
type TroubleshootingSolution struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Steps         []string `json:"steps"`
	Difficulty    string   `json:"difficulty"`
	EstimatedTime string   `json:"estimatedTime"`
}

// TroubleshootingGuide is a static, per-error-kind help document.
type TroubleshootingGuide struct {
	Problem        string                    `json:"problem"`
	Symptoms       []string                  `json:"symptoms"`
	Solutions      []TroubleshootingSolution `json:"solutions"`
	PreventionTips []string                  `json:"preventionTips"`
}
