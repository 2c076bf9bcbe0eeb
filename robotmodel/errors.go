package robotmodel

import (
	"errors"
	"fmt"
)

// ErrUnnamedGroup is returned when a model is built with a group missing a name.
var ErrUnnamedGroup = errors.New("joint group must have a name")

// GroupNotFoundError indicates the requested joint group is not in the model.
type GroupNotFoundError struct {
	Group string
}

// NewGroupNotFoundError returns an error for a group name absent from the model.
func NewGroupNotFoundError(group string) error {
	return &GroupNotFoundError{Group: group}
}

func (e *GroupNotFoundError) Error() string {
	return fmt.Sprintf("joint group %q was not found in the model", e.Group)
}

// DuplicateGroupError indicates two groups in one model share a name.
type DuplicateGroupError struct {
	Group string
}

func (e *DuplicateGroupError) Error() string {
	return fmt.Sprintf("joint group %q defined more than once", e.Group)
}

// DuplicateJointError indicates a group declares the same joint twice.
type DuplicateJointError struct {
	Group, Joint string
}

func (e *DuplicateJointError) Error() string {
	return fmt.Sprintf("joint %q defined more than once in group %q", e.Joint, e.Group)
}

// NewIncorrectDoFError returns an error for a joint vector whose length does
// not match the group's degrees of freedom.
func NewIncorrectDoFError(got, want int) error {
	return fmt.Errorf("number of positions (%d) does not match degrees of freedom (%d)", got, want)
}
