package planner

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/stompplan/robotmodel"
	"go.viam.com/stompplan/spatialmath"
)

// testModel is a 2 dof arm with wide limits so tolerance checks are not
// confounded by bounds clamping.
func testModel(t *testing.T) *robotmodel.Model {
	t.Helper()
	model, err := robotmodel.NewModel(robotmodel.GroupConfig{
		Name:     "arm",
		BaseLink: "base",
		ToolLink: "tool",
		Joints: []robotmodel.Joint{
			{Name: "j1", Limit: robotmodel.Limit{Min: -10, Max: 10}, Axis: r3.Vector{Z: 1}, Parent: "base"},
			{Name: "j2", Limit: robotmodel.Limit{Min: -10, Max: 10}, Axis: r3.Vector{Z: 1}, Offset: r3.Vector{X: 1}, Parent: "j1"},
		},
		ToolOffset: r3.Vector{X: 1},
	})
	test.That(t, err, test.ShouldBeNil)
	return model
}

// fakeIK invokes fn for every solve, tracking the call ordinal.
type fakeIK struct {
	calls int
	fn    func(call int, target spatialmath.Pose, hint []float64) ([]float64, error)
}

func (ik *fakeIK) SolveIK(ctx context.Context, target spatialmath.Pose, hint []float64) ([]float64, error) {
	call := ik.calls
	ik.calls++
	return ik.fn(call, target, hint)
}

// stubOptimizer records configuration and solve inputs and delegates solving
// to the provided hooks.
type stubOptimizer struct {
	cfg            Config
	configured     int
	solveSeeded    func(seed *mat.Dense, token *CancelToken) (*mat.Dense, error)
	solveStartGoal func(start, goal []float64, token *CancelToken) (*mat.Dense, error)
	cancelCount    atomic.Int32
	cancelResult   bool
	cleared        bool
}

func (o *stubOptimizer) Configure(cfg Config) error {
	o.cfg = cfg
	o.configured++
	return nil
}

func (o *stubOptimizer) SolveSeeded(seed *mat.Dense, token *CancelToken) (*mat.Dense, error) {
	return o.solveSeeded(seed, token)
}

func (o *stubOptimizer) SolveStartGoal(start, goal []float64, token *CancelToken) (*mat.Dense, error) {
	return o.solveStartGoal(start, goal, token)
}

func (o *stubOptimizer) Cancel() bool {
	o.cancelCount.Add(1)
	return o.cancelResult
}

func (o *stubOptimizer) Clear() {
	o.cleared = true
}

// configInput returns a minimal valid configuration input.
func configInput(optimization map[string]interface{}) map[string]interface{} {
	if optimization == nil {
		optimization = map[string]interface{}{}
	}
	return map[string]interface{}{
		"task":         map[string]interface{}{},
		"optimization": optimization,
	}
}

// jointSeed builds a joint-space seed from waypoint vectors.
func jointSeed(waypoints ...[]float64) []Constraints {
	seed := make([]Constraints, 0, len(waypoints))
	for _, wp := range waypoints {
		entry := Constraints{}
		names := []string{"j1", "j2"}
		for j, v := range wp {
			entry.Joints = append(entry.Joints, JointConstraint{JointName: names[j], Position: v})
		}
		seed = append(seed, entry)
	}
	return seed
}

func jointGoal(values ...float64) Constraints {
	goal := Constraints{}
	names := []string{"j1", "j2"}
	for j, v := range values {
		goal.Joints = append(goal.Joints, JointConstraint{JointName: names[j], Position: v})
	}
	return goal
}

func almostEqualSlice(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	test.That(t, got, test.ShouldHaveLength, len(want))
	for i := range want {
		if math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("index %d: got %v, want %v (tol %v)", i, got, want, tol)
		}
	}
}
