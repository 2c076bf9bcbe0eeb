package planner

import (
	"errors"
	"fmt"
)

// ConfigError indicates invalid or missing configuration. It is fatal to
// setup and never retried.
type ConfigError struct {
	Group string
	Msg   string
}

// NewConfigError returns a ConfigError for the given group.
func NewConfigError(group, msg string) error {
	return &ConfigError{Group: group, Msg: msg}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("planner configuration for group %q: %s", e.Group, e.Msg)
}

// ErrSeedFormat indicates a seed whose first waypoint is neither joint-valued
// nor a full cartesian pose.
var ErrSeedFormat = errors.New("seed waypoints must carry either joint constraints or both position and orientation constraints")

// SeedDimensionError indicates a joint-space seed waypoint whose joint
// constraints do not exactly match the group's active joints in order.
type SeedDimensionError struct {
	WaypointIndex int
	Want, Got     int
	JointName     string
	WantName      string
}

func (e *SeedDimensionError) Error() string {
	if e.JointName != "" {
		return fmt.Sprintf("seed waypoint %d names joint %q where %q was expected", e.WaypointIndex, e.JointName, e.WantName)
	}
	return fmt.Sprintf("seed waypoint %d has %d joint constraints, want %d", e.WaypointIndex, e.Got, e.Want)
}

// SeedTooShortError indicates a seed with fewer than the minimum usable
// number of waypoints.
type SeedTooShortError struct {
	Cols int
}

func (e *SeedTooShortError) Error() string {
	return fmt.Sprintf("seed trajectory has %d points, need at least 3", e.Cols)
}

// StartDiscrepancyError indicates the declared start state is too far from
// the seed trajectory's first waypoint.
type StartDiscrepancyError struct {
	Distance, Threshold float64
}

func (e *StartDiscrepancyError) Error() string {
	return fmt.Sprintf("start state is in discrepancy with the seed trajectory (L1 distance %.4f > %.4f)", e.Distance, e.Threshold)
}

// GoalDiscrepancyError indicates the resolved goal is too far from the seed
// trajectory's last waypoint.
type GoalDiscrepancyError struct {
	Distance, Threshold float64
}

func (e *GoalDiscrepancyError) Error() string {
	return fmt.Sprintf("goal in seed too far away from requested goal (L1 distance %.4f > %.4f)", e.Distance, e.Threshold)
}

// ErrGoalUnresolved indicates no goal constraint entry could be validated.
var ErrGoalUnresolved = errors.New("unable to resolve a goal from the motion request")

// SmoothingError wraps a failed polynomial smoothing pass.
type SmoothingError struct {
	Cause error
}

func (e *SmoothingError) Error() string {
	return fmt.Sprintf("seed trajectory smoothing failed: %v", e.Cause)
}

func (e *SmoothingError) Unwrap() error {
	return e.Cause
}

// StartOutOfBoundsError indicates the declared start state violates the
// model's joint bounds.
type StartOutOfBoundsError struct {
	Group string
}

func (e *StartOutOfBoundsError) Error() string {
	return fmt.Sprintf("start joint pose for group %q is out of bounds", e.Group)
}

// ErrGoalOutOfBounds indicates the goal-constraint scan exhausted without a
// bound-satisfying entry.
var ErrGoalOutOfBounds = errors.New("no goal constraint entry satisfies the joint bounds")

// DimensionMismatchError indicates a parameter matrix or trajectory whose
// dimensions do not match the group's degrees of freedom.
type DimensionMismatchError struct {
	Want, Got int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: have %d positions, want %d", e.Got, e.Want)
}

// RetimingError wraps a retiming oracle failure.
type RetimingError struct {
	Cause error
}

func (e *RetimingError) Error() string {
	return fmt.Sprintf("failed to generate timing data: %v", e.Cause)
}

func (e *RetimingError) Unwrap() error {
	return e.Cause
}

// ErrCollision downgrades an optimizer-reported success whose trajectory the
// collision oracle rejects.
var ErrCollision = errors.New("optimized trajectory is in collision")

// MissingStartJointError indicates the request's start state does not cover
// every active joint of the group.
type MissingStartJointError struct {
	JointName string
}

func (e *MissingStartJointError) Error() string {
	return fmt.Sprintf("start state is missing a value for joint %q", e.JointName)
}
