package kinematics

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/stompplan/robotmodel"
	"go.viam.com/stompplan/spatialmath"
)

const (
	dlsMaxIterations = 500
	dlsLambda        = 0.05
	dlsJump          = 1e-6
	dlsMaxStep       = 0.5
)

// dlsSolver performs damped-least-squares gradient descent on the pose error
// of a single serial chain.
type dlsSolver struct {
	model  *robotmodel.Model
	group  string
	limits []robotmodel.Limit
	logger golog.Logger
}

// NewDLSSolver returns a damped-least-squares Solver for the given group.
func NewDLSSolver(model *robotmodel.Model, group string, logger golog.Logger) (Solver, error) {
	limits, err := model.JointBounds(group)
	if err != nil {
		return nil, err
	}
	if len(limits) == 0 {
		return nil, errors.Errorf("group %q has no joints to solve for", group)
	}
	return &dlsSolver{model: model, group: group, limits: limits, logger: logger}, nil
}

// Solve iterates q += -(JᵀJ + λ²I)⁻¹ Jᵀ r with a numeric Jacobian until the
// pose residual drops below tolerance, the iteration cap is reached, or the
// context expires.
func (s *dlsSolver) Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error) {
	dof := len(s.limits)
	if len(seed) != dof {
		return nil, robotmodel.NewIncorrectDoFError(len(seed), dof)
	}
	q := append([]float64(nil), seed...)

	jacobian := mat.NewDense(6, dof, nil)
	var jtj mat.Dense
	var jtr, step mat.VecDense

	for iter := 0; iter < dlsMaxIterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, multierr.Combine(ctx.Err(), ErrNoSolve)
		default:
		}

		current, err := s.model.Transform(s.group, q)
		if err != nil {
			return nil, err
		}
		residual := spatialmath.PoseDelta(current, goal)
		if floats.Norm(residual, 2) < defaultEpsilon {
			return q, nil
		}

		if err := s.numericJacobian(q, residual, goal, jacobian); err != nil {
			return nil, err
		}

		// dq = -(JᵀJ + λ²I)⁻¹ Jᵀ r
		jtj.Mul(jacobian.T(), jacobian)
		for i := 0; i < dof; i++ {
			jtj.Set(i, i, jtj.At(i, i)+dlsLambda*dlsLambda)
		}
		jtr.MulVec(jacobian.T(), mat.NewVecDense(6, residual))
		if err := step.SolveVec(&jtj, &jtr); err != nil {
			return nil, errors.Wrap(err, "damped least squares step is singular")
		}

		delta := make([]float64, dof)
		for i := 0; i < dof; i++ {
			delta[i] = -step.AtVec(i)
		}
		if norm := floats.Norm(delta, 2); norm > dlsMaxStep {
			floats.Scale(dlsMaxStep/norm, delta)
		}
		floats.Add(q, delta)
		if err := s.model.EnforceBounds(s.group, q); err != nil {
			return nil, err
		}
	}
	return nil, ErrNoSolve
}

// numericJacobian fills jacobian with the finite difference of the pose
// residual with respect to each joint, differencing backwards at upper limits.
func (s *dlsSolver) numericJacobian(q, residual []float64, goal spatialmath.Pose, jacobian *mat.Dense) error {
	for j := range q {
		orig := q[j]
		sign := 1.0
		q[j] = orig + dlsJump
		if q[j] > s.limits[j].Max {
			sign = -1.0
			q[j] = orig - dlsJump
		}
		pose, err := s.model.Transform(s.group, q)
		q[j] = orig
		if err != nil {
			return err
		}
		shifted := spatialmath.PoseDelta(pose, goal)
		for k := 0; k < 6; k++ {
			jacobian.Set(k, j, sign*(shifted[k]-residual[k])/dlsJump)
		}
	}
	return nil
}
