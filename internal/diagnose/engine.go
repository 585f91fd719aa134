// Package diagnose implements the interactive troubleshooting engine and
// the one-shot comprehensive diagnostics sweep.
//
// A troubleshooting session is an ordered step list generated from the
// user's problem description. Steps execute one at a time; any individual
// step may fail without aborting the session. When the chain has run to
// completion the session is finalized with a success ratio and synthesized
// recommendations.
package diagnose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// ProjectAnalyzer detects build metadata from a workspace.
type ProjectAnalyzer interface {
	Analyze(ctx context.Context, workspaceRoot string) (*types.ProjectInfo, error)
}

// PortScanner classifies debug ports and suggests conflict resolutions.
type PortScanner interface {
	Scan(ctx context.Context) ([]types.PortStatus, error)
	SuggestConflictResolution(ctx context.Context, port int) ([]types.ConflictSuggestion, error)
}

// AgentProbe checks liveness and performs the full agent handshake.
type AgentProbe interface {
	QuickCheck(ctx context.Context, host string, port int) bool
	FullValidate(ctx context.Context, host string, port int) (*types.AgentStatus, error)
}

// EventType names a diagnostic progress event.
type EventType string

const (
	EventStepStarted      EventType = "step-started"
	EventStepFinished     EventType = "step-finished"
	EventSessionCompleted EventType = "session-completed"
)

// Event is a typed progress notification for session consumers.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	StepID    string    `json:"stepId,omitempty"`
	Time      time.Time `json:"time"`
}

// successThreshold is the fraction of steps that must complete for a
// session resolution to count as successful.
const successThreshold = 0.7

// Engine runs troubleshooting sessions. Many sessions may exist
// concurrently; each session's mutable state is touched only by the single
// execution chain that owns it, so only the session map and the
// finished-session bookkeeping need locking.
type Engine struct {
	analyzer ProjectAnalyzer
	scanner  PortScanner
	probe    AgentProbe

	host        string
	defaultPort int
	maxSessions int
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*types.TroubleshootingSession
	finished []string // finalized session ids, oldest first

	events chan Event
}

// NewEngine creates a diagnostic session engine.
func NewEngine(analyzer ProjectAnalyzer, scanner PortScanner, probe AgentProbe, host string, defaultPort, maxSessions int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultPort <= 0 {
		defaultPort = 5005
	}
	if maxSessions <= 0 {
		maxSessions = 20
	}
	return &Engine{
		analyzer:    analyzer,
		scanner:     scanner,
		probe:       probe,
		host:        host,
		defaultPort: defaultPort,
		maxSessions: maxSessions,
		logger:      logger,
		sessions:    make(map[string]*types.TroubleshootingSession),
		events:      make(chan Event, 64),
	}
}

// Events returns the progress event stream. Events are dropped, never
// blocked on, when no consumer keeps up.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// StartTroubleshooting creates a session for the problem description and
// runs its step chain to completion (or to its first manual-pause point).
// The call is not cheap: it returns only after the chain has run.
func (e *Engine) StartTroubleshooting(ctx context.Context, problem, workspaceRoot string, targetPort int) (*types.TroubleshootingSession, error) {
	e.mu.Lock()
	if len(e.sessions) >= e.maxSessions {
		e.evictOldestFinishedLocked()
	}
	if len(e.sessions) >= e.maxSessions {
		e.mu.Unlock()
		return nil, fmt.Errorf("maximum number of troubleshooting sessions (%d) reached", e.maxSessions)
	}

	categories := classifyProblem(problem)
	session := &types.TroubleshootingSession{
		ID:                uuid.New().String(),
		Problem:           problem,
		StartTime:         time.Now(),
		CurrentStepIndex:  0,
		Steps:             generateSteps(categories),
		MatchedCategories: categories,
		Context: types.SessionContext{
			WorkspaceRoot: workspaceRoot,
			TargetPort:    targetPort,
		},
	}
	e.sessions[session.ID] = session
	e.mu.Unlock()

	e.logger.Info("troubleshooting session started",
		zap.String("sessionId", session.ID),
		zap.Int("steps", len(session.Steps)),
		zap.Any("categories", categories))

	e.executeSteps(ctx, session)
	return session, nil
}

// GetSession retrieves a session by ID.
func (e *Engine) GetSession(id string) (*types.TroubleshootingSession, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	session, ok := e.sessions[id]
	if !ok {
		return nil, srverrors.SessionNotFound(id)
	}
	return session, nil
}

// ListSessions returns all sessions.
func (e *Engine) ListSessions() []*types.TroubleshootingSession {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sessions := make([]*types.TroubleshootingSession, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// evictOldestFinishedLocked drops the longest-finished session to make
// room for a new one, so a long-running server never saturates the
// session map. Sessions still executing, or paused at a manual step, are
// never evicted. Caller holds e.mu.
func (e *Engine) evictOldestFinishedLocked() {
	for len(e.finished) > 0 {
		id := e.finished[0]
		e.finished = e.finished[1:]
		if _, ok := e.sessions[id]; ok {
			delete(e.sessions, id)
			e.logger.Debug("evicted finished troubleshooting session", zap.String("sessionId", id))
			return
		}
	}
}

// executeSteps drives the session's step chain. A failed step never aborts
// the session; the chain pauses only at steps with AutoExecute=false,
// which the built-in generator never produces. Context cancellation fails
// the remaining steps fast instead of stranding the session, so the index
// still reaches the end and finalization still happens exactly once.
func (e *Engine) executeSteps(ctx context.Context, session *types.TroubleshootingSession) {
	for session.CurrentStepIndex < len(session.Steps) {
		step := session.Steps[session.CurrentStepIndex]

		if !step.AutoExecute {
			// Manual step: pause without finalizing.
			return
		}

		step.Status = types.StepRunning
		e.emit(Event{Type: EventStepStarted, SessionID: session.ID, StepID: step.ID})

		result, err := e.executeStep(ctx, session, step)
		if err != nil {
			step.Error = err.Error()
			step.Status = types.StepFailed
			e.logger.Debug("step failed",
				zap.String("sessionId", session.ID),
				zap.String("step", step.ID),
				zap.Error(err))
		} else {
			step.Result = result
			step.Status = types.StepCompleted
		}

		e.emit(Event{Type: EventStepFinished, SessionID: session.ID, StepID: step.ID})
		session.CurrentStepIndex++
	}

	e.finalize(session)
}

// finalize sets the session resolution. Called exactly once, only after
// the step index has reached the end of the chain.
func (e *Engine) finalize(session *types.TroubleshootingSession) {
	completed := 0
	for _, step := range session.Steps {
		if step.Status == types.StepCompleted {
			completed++
		}
	}
	total := len(session.Steps)

	session.Resolution = &types.Resolution{
		Success: float64(completed) > successThreshold*float64(total),
		Method:  "interactive-troubleshooting",
		Details: fmt.Sprintf("completed %d of %d diagnostic steps", completed, total),
	}

	e.mu.Lock()
	e.finished = append(e.finished, session.ID)
	e.mu.Unlock()

	e.emit(Event{Type: EventSessionCompleted, SessionID: session.ID})
	e.logger.Info("troubleshooting session completed",
		zap.String("sessionId", session.ID),
		zap.Int("completed", completed),
		zap.Int("total", total),
		zap.Bool("success", session.Resolution.Success))
}

func (e *Engine) emit(ev Event) {
	ev.Time = time.Now()
	select {
	case e.events <- ev:
	default:
	}
}
