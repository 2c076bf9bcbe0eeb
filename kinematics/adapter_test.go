package kinematics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/stompplan/robotmodel"
	"go.viam.com/stompplan/spatialmath"
)

func twoLinkPlanar(t *testing.T) *robotmodel.Model {
	t.Helper()
	model, err := robotmodel.NewModel(robotmodel.GroupConfig{
		Name:     "arm",
		BaseLink: "base",
		ToolLink: "tool",
		Joints: []robotmodel.Joint{
			{Name: "shoulder", Limit: robotmodel.Limit{Min: -math.Pi, Max: math.Pi}, Axis: r3.Vector{Z: 1}, Parent: "base"},
			{Name: "elbow", Limit: robotmodel.Limit{Min: -math.Pi, Max: math.Pi}, Axis: r3.Vector{Z: 1}, Offset: r3.Vector{X: 1}, Parent: "shoulder"},
		},
		ToolOffset: r3.Vector{X: 1},
	})
	test.That(t, err, test.ShouldBeNil)
	return model
}

func TestDLSSolveReachableTarget(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := twoLinkPlanar(t)

	// target is the exact forward kinematics of a known configuration
	want := []float64{0.3, -0.4}
	target, err := model.Transform("arm", want)
	test.That(t, err, test.ShouldBeNil)

	solver, err := NewDLSSolver(model, "arm", logger)
	test.That(t, err, test.ShouldBeNil)

	solution, err := solver.Solve(context.Background(), target, []float64{0, 0})
	test.That(t, err, test.ShouldBeNil)

	reached, err := model.Transform("arm", solution)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(reached, target, 1e-2), test.ShouldBeTrue)
}

func TestDLSSolveContextCancelled(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := twoLinkPlanar(t)
	solver, err := NewDLSSolver(model, "arm", logger)
	test.That(t, err, test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = solver.Solve(ctx, spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 1}), []float64{0, 0})
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestAdapterChainTopology(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model, err := robotmodel.NewModel(robotmodel.GroupConfig{
		Name:     "dual",
		BaseLink: "base",
		Joints: []robotmodel.Joint{
			{Name: "left", Limit: robotmodel.Limit{Min: -1, Max: 1}, Axis: r3.Vector{Z: 1}},
			{Name: "right", Limit: robotmodel.Limit{Min: -1, Max: 1}, Axis: r3.Vector{Z: 1}},
		},
	})
	test.That(t, err, test.ShouldBeNil)

	adapter, err := NewAdapter(model, "dual", logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = adapter.SolveIK(context.Background(), spatialmath.NewZeroPose(), nil)
	var topo *ChainTopologyError
	test.That(t, errors.As(err, &topo), test.ShouldBeTrue)
	test.That(t, topo.Roots, test.ShouldEqual, 2)
}

type recordingSolver struct {
	lastSeed []float64
	result   []float64
	err      error
}

func (s *recordingSolver) Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error) {
	s.lastSeed = append([]float64(nil), seed...)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestAdapterSeeding(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := twoLinkPlanar(t)

	solver := &recordingSolver{result: []float64{0.1, 0.2}}
	adapter, err := NewAdapter(model, "arm", logger, WithSolver(solver))
	test.That(t, err, test.ShouldBeNil)

	// hint seeds the solver
	hint := []float64{0.5, -0.5}
	_, err = adapter.SolveIK(context.Background(), spatialmath.NewZeroPose(), hint)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solver.lastSeed, test.ShouldResemble, hint)

	// no hint starts from the mid-range of the limits
	_, err = adapter.SolveIK(context.Background(), spatialmath.NewZeroPose(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solver.lastSeed, test.ShouldResemble, []float64{0, 0})
}

func TestAdapterFailurePropagation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := twoLinkPlanar(t)

	solver := &recordingSolver{err: ErrNoSolve}
	adapter, err := NewAdapter(model, "arm", logger, WithSolver(solver))
	test.That(t, err, test.ShouldBeNil)

	_, err = adapter.SolveIK(context.Background(), spatialmath.NewZeroPose(), nil)
	var ikErr *IKError
	test.That(t, errors.As(err, &ikErr), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrNoSolve), test.ShouldBeTrue)
}

func TestAdapterTimeout(t *testing.T) {
	logger := golog.NewTestLogger(t)
	model := twoLinkPlanar(t)

	slow := solverFunc(func(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	adapter, err := NewAdapter(model, "arm", logger, WithSolver(slow), WithSolveTimeout(time.Millisecond))
	test.That(t, err, test.ShouldBeNil)

	_, err = adapter.SolveIK(context.Background(), spatialmath.NewZeroPose(), nil)
	test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
}

type solverFunc func(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error)

func (f solverFunc) Solve(ctx context.Context, goal spatialmath.Pose, seed []float64) ([]float64, error) {
	return f(ctx, goal, seed)
}
