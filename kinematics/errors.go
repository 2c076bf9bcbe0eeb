package kinematics

import (
	"errors"
	"fmt"
)

// ErrNoSolve indicates the solver could not reach the target pose.
var ErrNoSolve = errors.New("kinematics could not solve for position")

// ChainTopologyError indicates a group's chain does not have exactly one root
// and therefore cannot be solved as a single kinematic chain.
type ChainTopologyError struct {
	Group string
	Roots int
}

func (e *ChainTopologyError) Error() string {
	return fmt.Sprintf("joint group %q has %d chain roots, inverse kinematics requires exactly 1", e.Group, e.Roots)
}

// IKError wraps a failed inverse kinematics solve. No retry is attempted; the
// caller decides what to do with the failure.
type IKError struct {
	Group string
	Cause error
}

func (e *IKError) Error() string {
	return fmt.Sprintf("inverse kinematics failed for group %q: %v", e.Group, e.Cause)
}

func (e *IKError) Unwrap() error {
	return e.Cause
}
