// Package planner resolves symbolic motion requests into the numeric inputs
// a stochastic trajectory optimizer needs, drives the optimizer under a
// wall-clock budget with cooperative cancellation, and converts its output
// back into a time-stamped joint trajectory.
package planner

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/stompplan/kinematics"
	"go.viam.com/stompplan/robotmodel"
)

// CollisionOracle validates a trajectory against the environment.
type CollisionOracle interface {
	IsPathValid(traj *Trajectory, group string) bool
}

// Status classifies the terminal state of a solve.
type Status int

// The terminal solve states.
const (
	StatusFailed Status = iota
	StatusSucceeded
	StatusTimedOut
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusTimedOut:
		return "timed out"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Result is the outcome of one solve. A fresh Result is created per Solve
// call and never reused.
type Result struct {
	ID             uuid.UUID
	Trajectory     *Trajectory
	Err            error
	ProcessingTime time.Duration
	Success        bool
	Status         Status

	// SeedIKFailures counts tolerated per-waypoint IK failures during
	// cartesian seed resolution.
	SeedIKFailures int

	// Resolved carries the write-back values from direct cartesian
	// resolution, so downstream consumers observe a request consistent
	// with what the optimizer was given.
	Resolved *ResolvedRequest
}

// Planner owns the optimizer configuration and orchestrates solves. Setup
// happens entirely in NewPlanner; a constructed Planner is never
// half-configured.
type Planner struct {
	group     string
	model     *robotmodel.Model
	names     []string
	cfg       Config
	optimizer Optimizer
	resolver  *requestResolver
	retimer   Retimer
	collision CollisionOracle
	clk       clock.Clock
	logger    golog.Logger

	cancelled atomic.Bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock substitutes the wall clock, for tests.
func WithClock(clk clock.Clock) Option {
	return func(p *Planner) {
		p.clk = clk
	}
}

// WithInverseKinematics substitutes the IK adapter used by request
// resolution.
func WithInverseKinematics(ik InverseKinematics) Option {
	return func(p *Planner) {
		p.resolver.ik = ik
	}
}

// WithRetimer substitutes the retiming oracle.
func WithRetimer(retimer Retimer) Option {
	return func(p *Planner) {
		p.retimer = retimer
	}
}

// WithCollisionOracle substitutes the collision validity oracle.
func WithCollisionOracle(oracle CollisionOracle) Option {
	return func(p *Planner) {
		p.collision = oracle
	}
}

// allowAllOracle accepts every trajectory; used when no oracle is supplied.
type allowAllOracle struct{}

func (allowAllOracle) IsPathValid(*Trajectory, string) bool { return true }

// NewPlanner builds the optimizer configuration from the given configuration
// input merged over defaults, validates the group against the model, and
// constructs the optimizer handle. The configuration input must contain
// "task" and "optimization" sections; any parse error is fatal.
func NewPlanner(
	group string,
	configInput map[string]interface{},
	model *robotmodel.Model,
	factory OptimizerFactory,
	logger golog.Logger,
	opts ...Option,
) (*Planner, error) {
	if !model.HasGroup(group) {
		return nil, NewConfigError(group, "planning group was not found in the model")
	}

	task, ok := configInput["task"].(map[string]interface{})
	if !ok {
		return nil, NewConfigError(group, "required 'task' configuration section is missing")
	}
	optimization, ok := configInput["optimization"].(map[string]interface{})
	if !ok {
		return nil, NewConfigError(group, "required 'optimization' configuration section is missing")
	}

	names, err := model.ActiveJointNames(group)
	if err != nil {
		return nil, err
	}
	cfg, err := parseConfig(group, optimization, len(names))
	if err != nil {
		return nil, err
	}

	optimizer, err := factory(cfg, task, logger)
	if err != nil {
		return nil, err
	}
	if err := optimizer.Configure(cfg); err != nil {
		return nil, err
	}

	adapter, err := kinematics.NewAdapter(model, group, logger)
	if err != nil {
		return nil, err
	}
	resolver, err := newRequestResolver(model, group, adapter, logger)
	if err != nil {
		return nil, err
	}

	p := &Planner{
		group:     group,
		model:     model,
		names:     names,
		cfg:       cfg,
		optimizer: optimizer,
		resolver:  resolver,
		retimer:   NewUniformRetimer(cfg.DeltaT),
		collision: allowAllOracle{},
		clk:       clock.New(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Solve resolves the request, runs the optimizer under the request's
// wall-clock budget, and converts, retimes and collision-checks the result.
// Errors from resolution or conversion are not retried; the first failure is
// surfaced immediately.
func (p *Planner) Solve(ctx context.Context, req *MotionRequest) (*Result, error) {
	res := &Result{ID: uuid.New(), Status: StatusFailed}
	startTime := p.clk.Now()
	defer func() {
		res.ProcessingTime = p.clk.Since(startTime)
	}()
	fail := func(err error) (*Result, error) {
		res.Err = err
		return res, err
	}

	if req.GroupName != p.group {
		return fail(NewConfigError(p.group, "request is for planning group "+req.GroupName))
	}
	if req.VelocityScale <= 0 || req.VelocityScale > 1 {
		return fail(errors.Errorf("velocity scaling factor %f is not in (0,1]", req.VelocityScale))
	}
	if req.AllowedPlanningTime < timeoutCheckInterval {
		p.logger.Warnf("allowed planning time %v is less than the minimum planning time value of %v",
			req.AllowedPlanningTime, timeoutCheckInterval)
	}

	// The timer goroutine only ever transitions the token from "not
	// requested" to "requested"; the optimizer polls it cooperatively.
	token := NewCancelToken()
	var timedOut atomic.Bool
	ticker := p.clk.Ticker(timeoutCheckInterval)
	timerDone := make(chan struct{})
	utils.PanicCapturingGo(func() {
		for {
			select {
			case <-timerDone:
				return
			case <-ticker.C:
				if p.clk.Since(startTime) > req.AllowedPlanningTime {
					p.logger.Errorf("planner exceeded allowed time of %v, terminating", req.AllowedPlanningTime)
					timedOut.Store(true)
					token.Cancel()
					p.optimizer.Cancel()
					return
				}
			}
		}
	})
	defer func() {
		ticker.Stop()
		close(timerDone)
	}()

	resolved, err := p.resolver.resolve(ctx, req)
	if err != nil {
		return fail(err)
	}
	res.SeedIKFailures = resolved.ikFailures
	res.Resolved = resolved.resolved

	// local config copy; a seed overrides the configured timestep count
	cfg := p.cfg
	var params *mat.Dense
	var solveErr error
	if resolved.seed != nil {
		_, cols := resolved.seed.Dims()
		cfg.NumTimesteps = cols
		if err := p.optimizer.Configure(cfg); err != nil {
			return fail(err)
		}
		p.logger.Infof("seeding trajectory from motion request with %d timesteps", cols)
		params, solveErr = p.optimizer.SolveSeeded(resolved.seed, token)
	} else {
		if err := p.optimizer.Configure(cfg); err != nil {
			return fail(err)
		}
		params, solveErr = p.optimizer.SolveStartGoal(resolved.start, resolved.goal, token)
	}
	if solveErr != nil {
		switch {
		case timedOut.Load():
			res.Status = StatusTimedOut
		case token.Cancelled() || p.cancelled.Load():
			res.Status = StatusCancelled
		}
		return fail(errors.Wrap(solveErr, "optimizer failed to find a valid solution"))
	}

	traj, err := ParametersToTrajectory(params, p.names)
	if err != nil {
		return fail(err)
	}
	retimed, err := p.retimer.Retime(traj, req.VelocityScale)
	if err != nil {
		return fail(&RetimingError{Cause: err})
	}
	res.Trajectory = retimed

	if !p.collision.IsPathValid(retimed, p.group) {
		p.logger.Error("optimized trajectory is in collision")
		return fail(ErrCollision)
	}

	res.Success = true
	res.Status = StatusSucceeded
	p.logger.Infof("found a valid path after %v", p.clk.Since(startTime))
	return res, nil
}

// Terminate requests cooperative cancellation of an in-flight solve. It
// returns an error if the optimizer cannot honor the request.
func (p *Planner) Terminate() error {
	p.cancelled.Store(true)
	if !p.optimizer.Cancel() {
		return errors.New("optimizer did not honor the cancellation request")
	}
	return nil
}

// Clear resets the optimizer's internal state for reuse.
func (p *Planner) Clear() {
	p.optimizer.Clear()
}

// CanServiceRequest reports whether this planner can handle the request
// without attempting resolution: the group must match and exactly one goal
// region must be present.
func (p *Planner) CanServiceRequest(req *MotionRequest) bool {
	if req.GroupName != p.group {
		p.logger.Warnf("unsupported planning group %q requested", req.GroupName)
		return false
	}
	if len(req.GoalRegions) != 1 {
		p.logger.Warn("can only handle a single goal region")
		return false
	}
	return true
}
