package planner

import (
	"time"

	"go.viam.com/stompplan/spatialmath"
)

// JointConstraint pins a named joint to a position.
type JointConstraint struct {
	JointName string
	Position  float64
}

// Constraints is one symbolic constraint entry: either a set of joint
// name/value pairs, or a sequence of cartesian poses. This is also the
// persisted seed representation produced by EncodeSeed.
type Constraints struct {
	Joints []JointConstraint
	Poses  []spatialmath.Pose
}

// MotionRequest is a symbolic motion planning request. The goal region is
// expressed as a list of constraint entries scanned in order; only the first
// satisfying entry is used. The optional seed bootstraps the optimizer with a
// full initial trajectory instead of a start/goal pair.
type MotionRequest struct {
	GroupName string

	// StartState maps joint names to positions for the full robot; only
	// the active group's subset is used.
	StartState map[string]float64

	// StartPose optionally declares the start as a tool pose; it is only
	// consulted when the goal region is cartesian.
	StartPose *spatialmath.Pose

	GoalRegions []Constraints

	Seed []Constraints

	AllowedPlanningTime time.Duration

	// VelocityScale must be in (0,1] and is forwarded to retiming.
	VelocityScale float64
}

// ResolvedRequest carries the numeric values resolved from a cartesian
// request back to downstream consumers as an explicit value, so that cost
// functions observe a start state and goal consistent with what the optimizer
// was given.
type ResolvedRequest struct {
	StartState  map[string]float64
	GoalRegions []Constraints
}

// hasJointGoal reports whether any goal region carries joint constraints.
func (req *MotionRequest) hasJointGoal() bool {
	for _, gc := range req.GoalRegions {
		if len(gc.Joints) > 0 {
			return true
		}
	}
	return false
}
