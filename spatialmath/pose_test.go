package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestCompose(t *testing.T) {
	// translating after a 90 degree yaw swaps the translation axes
	yaw90 := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{Z: 1}, math.Pi/2)
	moved := Compose(yaw90, NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, moved.Point.Y, test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, moved.Point.X, test.ShouldAlmostEqual, 0, 1e-9)

	// composing with the inverse returns to the zero pose
	p := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: -2, Z: 0.5}, r3.Vector{X: 1, Y: 1}, 0.7)
	test.That(t, PoseAlmostEqual(Compose(p, Invert(p)), NewZeroPose(), 1e-9), test.ShouldBeTrue)
}

func TestPoseDelta(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1})
	b := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: 2}, r3.Vector{Z: 1}, 0.5)

	delta := PoseDelta(a, b)
	test.That(t, delta, test.ShouldHaveLength, 6)
	test.That(t, delta[0], test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, delta[1], test.ShouldAlmostEqual, 2, 1e-9)
	test.That(t, delta[5], test.ShouldAlmostEqual, 0.5, 1e-9)

	test.That(t, PoseDelta(a, a), test.ShouldResemble, []float64{0, 0, 0, 0, 0, 0})
}

func TestNormalize(t *testing.T) {
	n := Normalize(quat.Number{Real: 2, Imag: 2})
	test.That(t, n.Real, test.ShouldAlmostEqual, math.Sqrt2/2, 1e-9)
	test.That(t, Normalize(quat.Number{}), test.ShouldResemble, quat.Number{Real: 1})
}

func TestRotateVector(t *testing.T) {
	yaw90 := NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{Z: 1}, math.Pi/2)
	v := RotateVector(yaw90.Orientation, r3.Vector{X: 2})
	test.That(t, v.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, v.Y, test.ShouldAlmostEqual, 2, 1e-9)
}
