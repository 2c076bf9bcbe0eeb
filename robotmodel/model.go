// Package robotmodel describes the kinematic structure of a robot as a set of
// named joint groups, each an ordered list of joints with limits arranged in a
// serial chain.
package robotmodel

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/stompplan/spatialmath"
)

// Limit represents the minimum and maximum allowable values for a joint.
type Limit struct {
	Min, Max float64
}

// Joint is a single revolute joint in a chain. Axis is the rotation axis in
// the joint frame, Offset the fixed translation from the parent frame to the
// joint frame. A joint with an empty Parent is a chain root.
type Joint struct {
	Name   string
	Limit  Limit
	Axis   r3.Vector
	Offset r3.Vector
	Parent string
}

// GroupConfig describes one joint group of a robot. Joints are ordered from
// root to tip; their order defines vector indexing for the group and must not
// change for the group's lifetime. ToolOffset is the fixed translation from
// the last joint frame to the tool frame.
type GroupConfig struct {
	Name       string
	Joints     []Joint
	BaseLink   string
	ToolLink   string
	ToolOffset r3.Vector
}

// Provider describes what a planning consumer needs to know about a robot's
// kinematics. It is satisfied by *Model.
type Provider interface {
	HasGroup(name string) bool
	ActiveJointNames(group string) ([]string, error)
	JointBounds(group string) ([]Limit, error)
	ChainRoots(group string) (int, error)
	BaseLinkName(group string) (string, error)
	ToolLinkName(group string) (string, error)
}

// Model is an immutable kinematic description of a robot. It is safe for
// concurrent use and is expected to outlive any single plan.
type Model struct {
	groups map[string]*GroupConfig
}

// NewModel builds a Model from the given group configurations.
func NewModel(groups ...GroupConfig) (*Model, error) {
	m := &Model{groups: make(map[string]*GroupConfig, len(groups))}
	for i := range groups {
		g := groups[i]
		if g.Name == "" {
			return nil, ErrUnnamedGroup
		}
		if _, ok := m.groups[g.Name]; ok {
			return nil, &DuplicateGroupError{Group: g.Name}
		}
		seen := map[string]bool{}
		for _, j := range g.Joints {
			if seen[j.Name] {
				return nil, &DuplicateJointError{Group: g.Name, Joint: j.Name}
			}
			seen[j.Name] = true
		}
		m.groups[g.Name] = &g
	}
	return m, nil
}

// HasGroup reports whether the model contains the named joint group.
func (m *Model) HasGroup(name string) bool {
	_, ok := m.groups[name]
	return ok
}

func (m *Model) group(name string) (*GroupConfig, error) {
	g, ok := m.groups[name]
	if !ok {
		return nil, NewGroupNotFoundError(name)
	}
	return g, nil
}

// ActiveJointNames returns the ordered joint names of the group. The order
// defines the indexing of every joint vector used with this group.
func (m *Model) ActiveJointNames(group string) ([]string, error) {
	g, err := m.group(group)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(g.Joints))
	for _, j := range g.Joints {
		names = append(names, j.Name)
	}
	return names, nil
}

// JointBounds returns the per-joint limits of the group, in joint order.
func (m *Model) JointBounds(group string) ([]Limit, error) {
	g, err := m.group(group)
	if err != nil {
		return nil, err
	}
	limits := make([]Limit, 0, len(g.Joints))
	for _, j := range g.Joints {
		limits = append(limits, j.Limit)
	}
	return limits, nil
}

// ChainRoots returns the number of root joints in the group's chain. Chains
// with more than one root cannot be solved as a single kinematic chain.
func (m *Model) ChainRoots(group string) (int, error) {
	g, err := m.group(group)
	if err != nil {
		return 0, err
	}
	roots := 0
	for _, j := range g.Joints {
		if j.Parent == "" || j.Parent == g.BaseLink {
			roots++
		}
	}
	return roots, nil
}

// BaseLinkName returns the fixed base frame name of the group.
func (m *Model) BaseLinkName(group string) (string, error) {
	g, err := m.group(group)
	if err != nil {
		return "", err
	}
	return g.BaseLink, nil
}

// ToolLinkName returns the fixed tool frame name of the group.
func (m *Model) ToolLinkName(group string) (string, error) {
	g, err := m.group(group)
	if err != nil {
		return "", err
	}
	return g.ToolLink, nil
}

// DoF returns the number of degrees of freedom of the group.
func (m *Model) DoF(group string) (int, error) {
	g, err := m.group(group)
	if err != nil {
		return 0, err
	}
	return len(g.Joints), nil
}

// Transform performs forward kinematics, returning the tool frame pose in the
// base frame for the given joint positions.
func (m *Model) Transform(group string, positions []float64) (spatialmath.Pose, error) {
	g, err := m.group(group)
	if err != nil {
		return spatialmath.Pose{}, err
	}
	if len(positions) != len(g.Joints) {
		return spatialmath.Pose{}, NewIncorrectDoFError(len(positions), len(g.Joints))
	}
	pose := spatialmath.NewZeroPose()
	for i, j := range g.Joints {
		pose = spatialmath.Compose(pose, spatialmath.NewPoseFromAxisAngle(j.Offset, j.Axis, positions[i]))
	}
	return spatialmath.Compose(pose, spatialmath.NewPoseFromPoint(g.ToolOffset)), nil
}

// SatisfiesBounds reports whether every position is within its joint's limits.
func (m *Model) SatisfiesBounds(group string, positions []float64) (bool, error) {
	limits, err := m.JointBounds(group)
	if err != nil {
		return false, err
	}
	if len(positions) != len(limits) {
		return false, NewIncorrectDoFError(len(positions), len(limits))
	}
	for i, p := range positions {
		if p < limits[i].Min || p > limits[i].Max {
			return false, nil
		}
	}
	return true, nil
}

// EnforceBounds clamps each position into its joint's limits, in place.
func (m *Model) EnforceBounds(group string, positions []float64) error {
	limits, err := m.JointBounds(group)
	if err != nil {
		return err
	}
	if len(positions) != len(limits) {
		return NewIncorrectDoFError(len(positions), len(limits))
	}
	for i := range positions {
		positions[i] = math.Min(math.Max(positions[i], limits[i].Min), limits[i].Max)
	}
	return nil
}

// Midrange returns the configuration at the middle of each joint's limits.
// Joints with an infinite limit default to zero.
func (m *Model) Midrange(group string) ([]float64, error) {
	limits, err := m.JointBounds(group)
	if err != nil {
		return nil, err
	}
	mid := make([]float64, len(limits))
	for i, l := range limits {
		if math.IsInf(l.Min, -1) || math.IsInf(l.Max, 1) {
			continue
		}
		mid[i] = (l.Min + l.Max) / 2
	}
	return mid, nil
}
