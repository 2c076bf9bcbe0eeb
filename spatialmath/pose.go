// Package spatialmath defines the spatial mathematical operations needed to
// express and compare end effector poses.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a rigid 6dof pose as a point in 3D space plus a rotation
// unit quaternion.
type Pose struct {
	Point       r3.Vector
	Orientation quat.Number
}

// NewZeroPose returns an identity pose at the origin.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose with the given point and orientation. The orientation
// is normalized to a unit quaternion.
func NewPose(pt r3.Vector, o quat.Number) Pose {
	return Pose{Point: pt, Orientation: Normalize(o)}
}

// NewPoseFromPoint returns a pose at the given point with no rotation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{Point: pt, Orientation: quat.Number{Real: 1}}
}

// NewPoseFromAxisAngle returns a pose at the given point, rotated by the given
// angle (radians) about the given axis.
func NewPoseFromAxisAngle(pt, axis r3.Vector, angle float64) Pose {
	if axis.Norm() == 0 || angle == 0 {
		return NewPoseFromPoint(pt)
	}
	u := axis.Normalize()
	s := math.Sin(angle / 2)
	return Pose{
		Point:       pt,
		Orientation: quat.Number{Real: math.Cos(angle / 2), Imag: u.X * s, Jmag: u.Y * s, Kmag: u.Z * s},
	}
}

// Compose returns the pose equivalent to applying a, then b in a's frame.
func Compose(a, b Pose) Pose {
	return Pose{
		Point:       a.Point.Add(RotateVector(a.Orientation, b.Point)),
		Orientation: Normalize(quat.Mul(a.Orientation, b.Orientation)),
	}
}

// Invert returns the pose p2 such that Compose(p, p2) is the zero pose.
func Invert(p Pose) Pose {
	inv := quat.Conj(p.Orientation)
	return Pose{
		Point:       RotateVector(inv, p.Point.Mul(-1)),
		Orientation: inv,
	}
}

// RotateVector rotates vector v by unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	vq := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rot := quat.Mul(quat.Mul(q, vq), quat.Conj(q))
	return r3.Vector{X: rot.Imag, Y: rot.Jmag, Z: rot.Kmag}
}

// Norm returns the norm of the quaternion's imaginary part.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize scales a quaternion to unit length. A zero quaternion normalizes
// to the identity rotation.
func Normalize(q quat.Number) quat.Number {
	length := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if length == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/length, q)
}

// QuatToR3AA converts a quat to an R3 axis angle in the same way the C++ Eigen
// library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR3AA(q quat.Number) r3.Vector {
	denom := Norm(q)

	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		angle *= -1
	}

	if denom < 1e-6 {
		return r3.Vector{}
	}
	return r3.Vector{X: angle * q.Imag / denom, Y: angle * q.Jmag / denom, Z: angle * q.Kmag / denom}
}

// PoseDelta returns a 6-vector measuring the distance from pose a to pose b.
// The first three elements are the linear displacement, the last three the
// rotation vector taking a's orientation to b's.
func PoseDelta(a, b Pose) []float64 {
	lin := b.Point.Sub(a.Point)
	rot := QuatToR3AA(Normalize(quat.Mul(b.Orientation, quat.Conj(a.Orientation))))
	return []float64{lin.X, lin.Y, lin.Z, rot.X, rot.Y, rot.Z}
}

// PoseAlmostEqual returns whether both the linear and angular distance between
// two poses are within epsilon.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	delta := PoseDelta(a, b)
	lin := r3.Vector{X: delta[0], Y: delta[1], Z: delta[2]}
	rot := r3.Vector{X: delta[3], Y: delta[4], Z: delta[5]}
	return lin.Norm() <= epsilon && rot.Norm() <= epsilon
}
