// Package kinematics wraps single-chain inverse kinematics solves with the
// hint and tolerance contract planning components rely on.
package kinematics

import (
	"context"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"go.viam.com/stompplan/robotmodel"
	"go.viam.com/stompplan/spatialmath"
)

const (
	// How close a solution must get to the target, in mixed linear and
	// angular units. A solver-quality knob, not a request parameter.
	defaultEpsilon = 1e-3

	// Wall-clock limit for a single solve attempt.
	defaultSolveTimeout = 10 * time.Millisecond
)

// Solver is a low-level numeric inverse kinematics solver for one chain.
// Solve must respect context cancellation and return the joint configuration
// whose forward kinematics reach the goal within the solver's tolerance.
type Solver interface {
	Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error)
}

// Adapter binds a Solver to one joint group of a model and enforces the solve
// contract: exactly one chain root, a fixed tolerance, a fixed per-call
// timeout, and hint-or-midrange seeding. It is stateless across calls.
type Adapter struct {
	model   *robotmodel.Model
	group   string
	solver  Solver
	timeout time.Duration
	logger  golog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithSolver replaces the default damped-least-squares solver.
func WithSolver(solver Solver) AdapterOption {
	return func(a *Adapter) {
		a.solver = solver
	}
}

// WithSolveTimeout overrides the fixed per-call timeout.
func WithSolveTimeout(timeout time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.timeout = timeout
	}
}

// NewAdapter returns an Adapter for the given group of the model.
func NewAdapter(model *robotmodel.Model, group string, logger golog.Logger, opts ...AdapterOption) (*Adapter, error) {
	if !model.HasGroup(group) {
		return nil, robotmodel.NewGroupNotFoundError(group)
	}
	a := &Adapter{
		model:   model,
		group:   group,
		timeout: defaultSolveTimeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.solver == nil {
		solver, err := NewDLSSolver(model, group, logger)
		if err != nil {
			return nil, err
		}
		a.solver = solver
	}
	return a, nil
}

// SolveIK solves for a joint configuration reaching the target pose. When hint
// is non-nil it seeds the solver's initial configuration; otherwise the solver
// starts from the mid-range of the joint limits. A failed solve is returned as
// an *IKError with no retry.
func (a *Adapter) SolveIK(ctx context.Context, target spatialmath.Pose, hint []float64) ([]float64, error) {
	roots, err := a.model.ChainRoots(a.group)
	if err != nil {
		return nil, err
	}
	if roots != 1 {
		return nil, &ChainTopologyError{Group: a.group, Roots: roots}
	}

	seed := hint
	if seed == nil {
		seed, err = a.model.Midrange(a.group)
		if err != nil {
			return nil, err
		}
	}
	dof, err := a.model.DoF(a.group)
	if err != nil {
		return nil, err
	}
	if len(seed) != dof {
		return nil, robotmodel.NewIncorrectDoFError(len(seed), dof)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	solution, err := a.solver.Solve(ctx, target, seed)
	if err != nil {
		return nil, &IKError{Group: a.group, Cause: err}
	}
	if len(solution) != dof {
		return nil, &IKError{Group: a.group, Cause: errors.Errorf("solver returned %d positions, want %d", len(solution), dof)}
	}
	return solution, nil
}
