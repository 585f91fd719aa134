// Package recovery implements the recovery engine: a priority-ordered
// chain of pluggable strategies that repair failed attach attempts, run by
// a single-flight coordinator.
//
// Strategies are stateless and side-effecting only through Execute.
// Selection (filter by Applicable, sort by Priority) happens per failure,
// not at registration time, because applicability depends on the specific
// error being recovered from.
package recovery

import (
	"context"
	"sort"

	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// Strategy is a named, prioritized unit of repair logic.
type Strategy interface {
	// Name identifies the strategy in results, events, and history.
	Name() string

	// Description explains what the strategy repairs.
	Description() string

	// Priority orders strategy execution; lower values are tried first.
	Priority() int

	// Applicable reports whether this strategy can act on the failure.
	Applicable(err *types.DebugError) bool

	// Execute attempts the repair. It returns a structured result even on
	// failure; a returned error is treated the same as a failed result.
	Execute(ctx context.Context, err *types.DebugError, rctx *types.RecoveryContext) (*types.RecoveryResult, error)
}

// AgentProbe is the slice of the probing collaborator strategies consume.
type AgentProbe interface {
	QuickCheck(ctx context.Context, host string, port int) bool
	FullValidate(ctx context.Context, host string, port int) (*types.AgentStatus, error)
}

// HybridStarter starts the non-invasive fallback.
type HybridStarter interface {
	Start(ctx context.Context, cfg types.HybridConfig) error
}

// Registry holds all registered strategies.
type Registry struct {
	strategies []Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a strategy. Registration order does not matter; execution
// order is decided per failure by Priority.
func (r *Registry) Register(s Strategy) {
	r.strategies = append(r.strategies, s)
}

// All returns every registered strategy.
func (r *Registry) All() []Strategy {
	return append([]Strategy(nil), r.strategies...)
}

// Applicable returns the strategies that can act on err, sorted ascending
// by priority. Evaluated fresh on every call.
func (r *Registry) Applicable(err *types.DebugError) []Strategy {
	var out []Strategy
	for _, s := range r.strategies {
		if s.Applicable(err) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}
