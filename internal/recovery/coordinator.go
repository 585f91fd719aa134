package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// EventType names a recovery progress event.
type EventType string

const (
	EventRecoveryStarted   EventType = "recovery-started"
	EventStrategyAttempt   EventType = "strategy-attempt"
	EventStrategyFailed    EventType = "strategy-failed"
	EventStrategyError     EventType = "strategy-error"
	EventRecoverySuccess   EventType = "recovery-success"
	EventRecoveryCompleted EventType = "recovery-completed"
)

// Event is a typed progress notification emitted during a recovery
// attempt. Consumers read them from Coordinator.Events.
type Event struct {
	Type     EventType `json:"type"`
	Strategy string    `json:"strategy,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Coordinator runs the strategy chain for one failure at a time.
// It enforces one in-flight AttemptRecovery per instance: a second call
// made before the first settles fails fast rather than queueing. Callers
// needing concurrent recoveries use separate coordinator instances.
type Coordinator struct {
	registry        *Registry
	strategyTimeout time.Duration
	logger          *zap.Logger

	// flight guards the single in-flight recovery attempt.
	flight sync.Mutex

	histMu     sync.Mutex
	history    []*types.DebugError
	maxHistory int

	events chan Event
}

// NewCoordinator creates a coordinator over the given registry.
// strategyTimeout bounds each strategy's Execute call so a hung strategy
// cannot permanently wedge the instance; maxHistory bounds the retained
// failure history.
func NewCoordinator(registry *Registry, strategyTimeout time.Duration, maxHistory int, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strategyTimeout <= 0 {
		strategyTimeout = 15 * time.Second
	}
	if maxHistory <= 0 {
		maxHistory = 50
	}
	return &Coordinator{
		registry:        registry,
		strategyTimeout: strategyTimeout,
		maxHistory:      maxHistory,
		logger:          logger,
		events:          make(chan Event, 64),
	}
}

// Events returns the progress event stream. Events are dropped, never
// blocked on, when no consumer keeps up.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// History returns a copy of the retained failure history, oldest first.
func (c *Coordinator) History() []*types.DebugError {
	c.histMu.Lock()
	defer c.histMu.Unlock()
	return append([]*types.DebugError(nil), c.history...)
}

// AttemptRecovery tries applicable strategies in priority order until one
// succeeds or all are exhausted. The first success short-circuits the
// chain. A strategy returning a failed result, returning an error, timing
// out, or panicking are all treated identically: try the next strategy.
func (c *Coordinator) AttemptRecovery(ctx context.Context, derr *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error) {
	if !c.flight.TryLock() {
		return nil, srverrors.AlreadyRecovering()
	}
	defer func() {
		c.emit(Event{Type: EventRecoveryCompleted})
		c.flight.Unlock()
	}()

	c.recordFailure(derr)
	c.emit(Event{Type: EventRecoveryStarted})
	c.logger.Info("recovery started",
		zap.String("kind", string(derr.Kind)),
		zap.Int("retryCount", derr.RetryCount))

	applicable := c.registry.Applicable(derr)
	if len(applicable) == 0 {
		c.logger.Warn("no applicable recovery strategy", zap.String("kind", string(derr.Kind)))
		return &types.RecoveryResult{
			Success:         false,
			StrategyName:    "none",
			Message:         fmt.Sprintf("no recovery strategy applies to a %s failure", derr.Kind),
			Recommendations: GenericRecommendations(derr.Kind),
		}, nil
	}

	for _, s := range applicable {
		c.emit(Event{Type: EventStrategyAttempt, Strategy: s.Name()})
		c.logger.Debug("attempting strategy",
			zap.String("strategy", s.Name()),
			zap.Int("priority", s.Priority()))

		res, err := c.runStrategy(ctx, s, derr, rctx)
		if err != nil {
			c.emit(Event{Type: EventStrategyError, Strategy: s.Name(), Error: err.Error()})
			c.logger.Warn("strategy errored",
				zap.String("strategy", s.Name()),
				zap.Error(err))
			continue
		}
		if res != nil && res.Success {
			c.emit(Event{Type: EventRecoverySuccess, Strategy: s.Name()})
			c.logger.Info("recovery succeeded", zap.String("strategy", s.Name()))
			return res, nil
		}

		c.emit(Event{Type: EventStrategyFailed, Strategy: s.Name()})
		c.logger.Debug("strategy failed", zap.String("strategy", s.Name()))
	}

	c.logger.Info("all recovery strategies exhausted", zap.String("kind", string(derr.Kind)))
	return &types.RecoveryResult{
		Success:         false,
		StrategyName:    "all-failed",
		Message:         "every applicable recovery strategy failed",
		FallbackMethod:  types.FallbackManual,
		Recommendations: GenericRecommendations(derr.Kind),
	}, nil
}

// runStrategy executes one strategy under a deadline, converting panics
// and timeouts into ordinary errors so the chain moves on. A strategy
// that ignores its context leaks a goroutine until it returns, but the
// coordinator itself stays usable.
func (c *Coordinator) runStrategy(ctx context.Context, s Strategy, derr *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error) {
	sctx, cancel := context.WithTimeout(ctx, c.strategyTimeout)
	defer cancel()

	type outcome struct {
		res *types.RecoveryResult
		err error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{nil, fmt.Errorf("strategy %s panicked: %v", s.Name(), r)}
			}
		}()
		res, err := s.Execute(sctx, derr, rctx)
		ch <- outcome{res, err}
	}()

	select {
	case o := <-ch:
		return o.res, o.err
	case <-sctx.Done():
		return nil, fmt.Errorf("strategy %s did not settle: %w", s.Name(), sctx.Err())
	}
}

func (c *Coordinator) recordFailure(derr *types.DebugError) {
	c.histMu.Lock()
	defer c.histMu.Unlock()
	c.history = append(c.history, derr)
	if len(c.history) > c.maxHistory {
		c.history = c.history[len(c.history)-c.maxHistory:]
	}
}

func (c *Coordinator) emit(ev Event) {
	ev.Time = time.Now()
	select {
	case c.events <- ev:
	default:
	}
}
