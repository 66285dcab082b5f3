package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// AngularVelocity returns the angular velocity, in radians per second about each absolute axis,
// that turns from into to over dt seconds. A non-positive dt gives zero.
func AngularVelocity(from, to RigidTransform, dt float64) r3.Vector {
	if dt <= 0 {
		return r3.Vector{}
	}
	// rotation taking from to to, expressed in absolute space
	diff := quat.Mul(to.Quaternion(), quat.Conj(from.Quaternion()))
	return QuatToR3AA(diff).Mul(1 / dt)
}
