package planner

import (
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Waypoint is a single point of a joint trajectory. Velocities and
// accelerations are zero until retiming fills them in.
type Waypoint struct {
	Positions     []float64
	Velocities    []float64
	Accelerations []float64
	TimeFromStart time.Duration
}

// Trajectory is an ordered sequence of waypoints for one joint group.
// JointNames defines the indexing of every waypoint's vectors.
type Trajectory struct {
	JointNames []string
	Waypoints  []Waypoint
}

// ParametersToTrajectory converts a dof x timesteps parameter matrix into a
// trajectory: column t becomes waypoint t's joint positions, velocities and
// accelerations zeroed.
func ParametersToTrajectory(params *mat.Dense, jointNames []string) (*Trajectory, error) {
	rows, cols := params.Dims()
	if rows != len(jointNames) {
		return nil, &DimensionMismatchError{Want: len(jointNames), Got: rows}
	}
	traj := &Trajectory{
		JointNames: append([]string(nil), jointNames...),
		Waypoints:  make([]Waypoint, 0, cols),
	}
	for t := 0; t < cols; t++ {
		wp := Waypoint{
			Positions:     make([]float64, rows),
			Velocities:    make([]float64, rows),
			Accelerations: make([]float64, rows),
		}
		mat.Col(wp.Positions, t, params)
		traj.Waypoints = append(traj.Waypoints, wp)
	}
	return traj, nil
}

// TrajectoryToParameters converts a trajectory back into a dof x timesteps
// parameter matrix. Every waypoint must carry exactly dof positions.
func TrajectoryToParameters(traj *Trajectory) (*mat.Dense, error) {
	dof := len(traj.JointNames)
	if dof == 0 {
		return nil, &DimensionMismatchError{Want: 1, Got: 0}
	}
	params := mat.NewDense(dof, len(traj.Waypoints), nil)
	for t, wp := range traj.Waypoints {
		if len(wp.Positions) != dof {
			return nil, &DimensionMismatchError{Want: dof, Got: len(wp.Positions)}
		}
		for j, p := range wp.Positions {
			params.Set(j, t, p)
		}
	}
	return params, nil
}

// EncodeSeed converts a trajectory into the symbolic joint-constraint
// sequence used as the persisted seed representation.
func EncodeSeed(traj *Trajectory) ([]Constraints, error) {
	dof := len(traj.JointNames)
	seed := make([]Constraints, 0, len(traj.Waypoints))
	for _, wp := range traj.Waypoints {
		if len(wp.Positions) != dof {
			return nil, &DimensionMismatchError{Want: dof, Got: len(wp.Positions)}
		}
		entry := Constraints{Joints: make([]JointConstraint, 0, dof)}
		for j, name := range traj.JointNames {
			entry.Joints = append(entry.Joints, JointConstraint{JointName: name, Position: wp.Positions[j]})
		}
		seed = append(seed, entry)
	}
	return seed, nil
}

// Retimer assigns time stamps, velocities and accelerations to a trajectory,
// honoring the robot's velocity and acceleration limits scaled by
// velocityScale.
type Retimer interface {
	Retime(traj *Trajectory, velocityScale float64) (*Trajectory, error)
}

// uniformRetimer spaces waypoints evenly, deltaT apart divided by the
// velocity scale. It stands in when no retiming oracle is supplied.
type uniformRetimer struct {
	deltaT float64
}

// NewUniformRetimer returns a Retimer that stamps waypoints a fixed interval
// apart without consulting velocity or acceleration limits.
func NewUniformRetimer(deltaT float64) Retimer {
	return &uniformRetimer{deltaT: deltaT}
}

func (r *uniformRetimer) Retime(traj *Trajectory, velocityScale float64) (*Trajectory, error) {
	if velocityScale <= 0 || velocityScale > 1 {
		return nil, errors.Errorf("velocity scale %f is not in (0,1]", velocityScale)
	}
	interval := time.Duration(float64(time.Second) * r.deltaT / velocityScale)
	out := &Trajectory{JointNames: append([]string(nil), traj.JointNames...)}
	for i, wp := range traj.Waypoints {
		stamped := Waypoint{
			Positions:     append([]float64(nil), wp.Positions...),
			Velocities:    make([]float64, len(wp.Positions)),
			Accelerations: make([]float64, len(wp.Positions)),
			TimeFromStart: time.Duration(i) * interval,
		}
		out.Waypoints = append(out.Waypoints, stamped)
	}
	return out, nil
}
