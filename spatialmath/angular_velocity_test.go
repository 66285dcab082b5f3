package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestAngularVelocity(t *testing.T) {
	from := NewPoseFromAxisAngle(R4AA{Theta: 0.2, RY: 1}, r3.Vector{X: 1})
	to := NewPoseFromAxisAngle(R4AA{Theta: 0.5, RY: 1}, r3.Vector{X: 2})

	w := AngularVelocity(from, to, 0.1)
	test.That(t, w.X, test.ShouldAlmostEqual, 0)
	test.That(t, w.Y, test.ShouldAlmostEqual, 3)
	test.That(t, w.Z, test.ShouldAlmostEqual, 0)

	// in absolute axes: a roll applied after a yaw is still about absolute Z
	yawed := NewPoseFromAxisAngle(R4AA{Theta: math.Pi / 2, RY: 1}, r3.Vector{})
	rolled := Compose(NewPoseFromAxisAngle(R4AA{Theta: 0.1, RZ: 1}, r3.Vector{}), yawed)
	w = AngularVelocity(yawed, rolled, 1)
	test.That(t, w.Z, test.ShouldAlmostEqual, 0.1)
	test.That(t, w.X, test.ShouldAlmostEqual, 0)

	test.That(t, AngularVelocity(from, to, 0), test.ShouldResemble, r3.Vector{})
	test.That(t, AngularVelocity(from, from, 1).Norm(), test.ShouldAlmostEqual, 0)
}
