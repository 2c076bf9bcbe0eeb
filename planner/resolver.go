package planner

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/stompplan/robotmodel"
	"go.viam.com/stompplan/spatialmath"
)

// InverseKinematics resolves a tool pose into a joint configuration. It is
// satisfied by *kinematics.Adapter.
type InverseKinematics interface {
	SolveIK(ctx context.Context, target spatialmath.Pose, hint []float64) ([]float64, error)
}

// resolution is the numeric form of a motion request: either a full seed
// parameter matrix, or a start/goal pair. When a cartesian request was
// resolved, resolved carries the write-back values for downstream consumers.
type resolution struct {
	seed        *mat.Dense
	start, goal []float64
	resolved    *ResolvedRequest
	ikFailures  int
}

// requestResolver turns symbolic motion requests into the numeric inputs the
// optimizer needs, validating them against the model's bounds and the fixed
// seed tolerances.
type requestResolver struct {
	model  *robotmodel.Model
	group  string
	names  []string
	limits []robotmodel.Limit
	ik     InverseKinematics
	logger golog.Logger
}

func newRequestResolver(model *robotmodel.Model, group string, ik InverseKinematics, logger golog.Logger) (*requestResolver, error) {
	names, err := model.ActiveJointNames(group)
	if err != nil {
		return nil, err
	}
	limits, err := model.JointBounds(group)
	if err != nil {
		return nil, err
	}
	return &requestResolver{
		model:  model,
		group:  group,
		names:  names,
		limits: limits,
		ik:     ik,
		logger: logger,
	}, nil
}

// resolve picks seed mode when the request carries a non-empty seed,
// otherwise direct mode. The two are never mixed: a seed-mode failure aborts
// the solve without falling back to direct mode.
func (r *requestResolver) resolve(ctx context.Context, req *MotionRequest) (*resolution, error) {
	if len(req.Seed) > 0 {
		return r.resolveSeed(ctx, req)
	}
	return r.resolveDirect(ctx, req)
}

func (r *requestResolver) resolveSeed(ctx context.Context, req *MotionRequest) (*resolution, error) {
	params, ikFailures, err := r.extractSeedParameters(ctx, req)
	if err != nil {
		return nil, err
	}

	_, cols := params.Dims()
	if cols < 3 {
		return nil, &SeedTooShortError{Cols: cols}
	}

	// the declared start must be close to the seed's first column
	start, err := r.startVector(req.StartState)
	if err != nil {
		return nil, err
	}
	if err := r.model.EnforceBounds(r.group, start); err != nil {
		return nil, err
	}
	first := column(params, 0)
	if dist := floats.Distance(start, first, 1); dist > maxStartDistanceThresh {
		return nil, &StartDiscrepancyError{Distance: dist, Threshold: maxStartDistanceThresh}
	}
	setColumn(params, 0, start)

	// the declared goal must be close to the seed's last column
	last := column(params, cols-1)
	goal, found := r.scanGoalConstraints(ctx, req, last)
	if !found {
		return nil, ErrGoalUnresolved
	}
	if dist := floats.Distance(goal, last, 1); dist > maxStartDistanceThresh {
		return nil, &GoalDiscrepancyError{Distance: dist, Threshold: maxStartDistanceThresh}
	}
	setColumn(params, cols-1, goal)

	if err := smoothParameters(params, r.limits); err != nil {
		return nil, &SmoothingError{Cause: err}
	}

	return &resolution{seed: params, ikFailures: ikFailures}, nil
}

// extractSeedParameters builds the dof x timesteps matrix from the request's
// seed waypoints.
func (r *requestResolver) extractSeedParameters(ctx context.Context, req *MotionRequest) (*mat.Dense, int, error) {
	first := req.Seed[0]
	switch {
	case len(first.Joints) > 0:
		params, err := r.extractJointSeed(req.Seed)
		return params, 0, err
	case len(first.Poses) > 0:
		return r.extractCartesianSeed(ctx, first.Poses)
	default:
		return nil, 0, ErrSeedFormat
	}
}

// extractJointSeed requires every waypoint to carry the group's active joints
// exactly, in order.
func (r *requestResolver) extractJointSeed(seed []Constraints) (*mat.Dense, error) {
	dof := len(r.names)
	params := mat.NewDense(dof, len(seed), nil)
	for i, wp := range seed {
		if len(wp.Joints) != dof {
			return nil, &SeedDimensionError{WaypointIndex: i, Want: dof, Got: len(wp.Joints)}
		}
		for j, jc := range wp.Joints {
			if jc.JointName != r.names[j] {
				return nil, &SeedDimensionError{WaypointIndex: i, JointName: jc.JointName, WantName: r.names[j]}
			}
			params.Set(j, i, jc.Position)
		}
	}
	return params, nil
}

// extractCartesianSeed solves IK for each pose in order, seeding each solve
// with the previous waypoint's solution. A failed waypoint does not abort the
// seed: the previous solution is repeated for that column and the total
// failure count is surfaced as a diagnostic.
func (r *requestResolver) extractCartesianSeed(ctx context.Context, poses []spatialmath.Pose) (*mat.Dense, int, error) {
	dof := len(r.names)
	params := mat.NewDense(dof, len(poses), nil)
	var hint []float64
	failures := 0
	for i, pose := range poses {
		solution, err := r.ik.SolveIK(ctx, pose, hint)
		if err != nil {
			failures++
			r.logger.Warnw("IK failed for cartesian seed waypoint, repeating previous solution",
				"index", i, "error", err)
			if hint == nil {
				hint = make([]float64, dof)
			}
		} else {
			hint = solution
		}
		setColumn(params, i, hint)
	}
	r.logger.Warnf("seed trajectory converted with a total of %d/%d IK failures", failures, len(poses))
	return params, failures, nil
}

// scanGoalConstraints walks the goal regions in request order and returns the
// first entry that validates: a joint-valued entry overlaid on base that
// satisfies bounds, or a cartesian entry whose IK solution does. Scan order
// is preserved for determinism; bound-violating entries are skipped, not
// fatal.
func (r *requestResolver) scanGoalConstraints(ctx context.Context, req *MotionRequest, base []float64) ([]float64, bool) {
	for i, gc := range req.GoalRegions {
		if len(gc.Joints) > 0 {
			candidate := append([]float64(nil), base...)
			if err := r.overlayJoints(candidate, gc.Joints); err != nil {
				r.logger.Warnw("skipping goal entry", "index", i, "error", err)
				continue
			}
			if ok, _ := r.model.SatisfiesBounds(r.group, candidate); !ok {
				r.logger.Warnw("requested goal joint pose is out of bounds, skipping", "index", i)
				continue
			}
			return candidate, true
		}
		if len(gc.Poses) > 0 {
			solution, err := r.ik.SolveIK(ctx, gc.Poses[0], nil)
			if err != nil {
				r.logger.Warnw("IK failed for cartesian goal entry, skipping", "index", i, "error", err)
				continue
			}
			if ok, _ := r.model.SatisfiesBounds(r.group, solution); !ok {
				r.logger.Warnw("cartesian goal entry solution is out of bounds, skipping", "index", i)
				continue
			}
			return solution, true
		}
	}
	return nil, false
}

func (r *requestResolver) resolveDirect(ctx context.Context, req *MotionRequest) (*resolution, error) {
	if len(req.GoalRegions) == 0 {
		return nil, ErrGoalUnresolved
	}
	if !req.hasJointGoal() && len(req.GoalRegions[0].Poses) > 0 {
		return r.resolveDirectCartesian(ctx, req)
	}
	return r.resolveDirectJoint(ctx, req)
}

// resolveDirectCartesian resolves start and goal independently via IK, with
// no chaining hint between them. Either failure aborts the solve. The
// resolved values are also returned symbolically so downstream consumers
// observe a consistent request.
func (r *requestResolver) resolveDirectCartesian(ctx context.Context, req *MotionRequest) (*resolution, error) {
	var start []float64
	var err error
	if req.StartPose != nil {
		start, err = r.ik.SolveIK(ctx, *req.StartPose, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to resolve cartesian start")
		}
	} else {
		start, err = r.startVector(req.StartState)
		if err != nil {
			return nil, err
		}
		if ok, err := r.model.SatisfiesBounds(r.group, start); err != nil || !ok {
			return nil, &StartOutOfBoundsError{Group: r.group}
		}
	}

	goal, err := r.ik.SolveIK(ctx, req.GoalRegions[0].Poses[0], nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve cartesian goal")
	}

	resolved := &ResolvedRequest{
		StartState:  r.stateFromVector(start),
		GoalRegions: []Constraints{r.jointGoalConstraints(goal)},
	}
	return &resolution{start: start, goal: goal, resolved: resolved}, nil
}

func (r *requestResolver) resolveDirectJoint(ctx context.Context, req *MotionRequest) (*resolution, error) {
	start, err := r.startVector(req.StartState)
	if err != nil {
		return nil, err
	}
	if ok, err := r.model.SatisfiesBounds(r.group, start); err != nil || !ok {
		return nil, &StartOutOfBoundsError{Group: r.group}
	}

	goal, found := r.scanGoalConstraints(ctx, req, start)
	if !found {
		return nil, ErrGoalOutOfBounds
	}
	return &resolution{start: start, goal: goal}, nil
}

// startVector extracts the active group's subset of the request's start
// state, in joint order.
func (r *requestResolver) startVector(state map[string]float64) ([]float64, error) {
	start := make([]float64, len(r.names))
	for i, name := range r.names {
		value, ok := state[name]
		if !ok {
			return nil, &MissingStartJointError{JointName: name}
		}
		start[i] = value
	}
	return start, nil
}

// overlayJoints writes the named constraint values into the candidate vector.
func (r *requestResolver) overlayJoints(candidate []float64, constraints []JointConstraint) error {
	index := make(map[string]int, len(r.names))
	for i, name := range r.names {
		index[name] = i
	}
	for _, jc := range constraints {
		i, ok := index[jc.JointName]
		if !ok {
			return errors.Errorf("goal constraint names unknown joint %q", jc.JointName)
		}
		candidate[i] = jc.Position
	}
	return nil
}

func (r *requestResolver) stateFromVector(values []float64) map[string]float64 {
	state := make(map[string]float64, len(r.names))
	for i, name := range r.names {
		state[name] = values[i]
	}
	return state
}

func (r *requestResolver) jointGoalConstraints(values []float64) Constraints {
	goal := Constraints{Joints: make([]JointConstraint, 0, len(r.names))}
	for i, name := range r.names {
		goal.Joints = append(goal.Joints, JointConstraint{JointName: name, Position: values[i]})
	}
	return goal
}

func column(m *mat.Dense, col int) []float64 {
	rows, _ := m.Dims()
	out := make([]float64, rows)
	mat.Col(out, col, m)
	return out
}

func setColumn(m *mat.Dense, col int, values []float64) {
	for i, v := range values {
		m.Set(i, col, v)
	}
}
