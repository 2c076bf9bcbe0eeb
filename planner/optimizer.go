package planner

import (
	"sync/atomic"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/mat"
)

// CancelToken is a monotone, idempotent cancellation signal. The budget timer
// transitions it from "not requested" to "requested"; the optimizer polls it
// at bounded intervals inside its iteration loop. Cancellation is advisory:
// an optimizer that never polls is never interrupted.
type CancelToken struct {
	cancelled atomic.Bool
}

// NewCancelToken returns a token in the "not requested" state.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests cancellation. Safe to call from any goroutine, any number
// of times.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether cancellation has been requested.
func (t *CancelToken) Cancelled() bool {
	return t.cancelled.Load()
}

// Optimizer is the opaque stochastic trajectory optimizer contract. Solve
// implementations must poll the token at bounded intervals and abandon the
// solve once it reads as cancelled.
type Optimizer interface {
	// Configure binds a new configuration; called at setup and again
	// before each solve when the timestep count is overridden by a seed.
	Configure(cfg Config) error

	// SolveSeeded optimizes starting from a full seed parameter matrix.
	SolveSeeded(seed *mat.Dense, token *CancelToken) (*mat.Dense, error)

	// SolveStartGoal optimizes between a start and goal configuration.
	SolveStartGoal(start, goal []float64, token *CancelToken) (*mat.Dense, error)

	// Cancel requests cooperative cancellation, reporting whether the
	// optimizer accepted the request.
	Cancel() bool

	// Clear resets internal state so the optimizer can be reused.
	Clear()
}

// OptimizerFactory builds an optimizer bound to a configuration. The task
// section of the configuration input is passed through untouched.
type OptimizerFactory func(cfg Config, task map[string]interface{}, logger golog.Logger) (Optimizer, error)
