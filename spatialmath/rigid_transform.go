// Package spatialmath defines spatial mathematical operations on poses and reference frames.
//
// Transforms use the column-vector convention: a point p expressed in a frame maps to
// M*p in the parent frame. The basis columns of a transform are its right (+X), up (+Y)
// and backward (+Z) axes, so forward is -Z and world up is +Y.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// WorldUp is the vertical axis of every absolute/tracking space.
var WorldUp = r3.Vector{X: 0, Y: 1, Z: 0}

// RigidTransform pairs an affine transform with its inverse. The inverse is computed once at
// construction and carried along through every composition, so no caller ever needs to invert a
// matrix on a hot path. A RigidTransform is a value; to change one, build a new one.
type RigidTransform struct {
	matrix  mgl64.Mat4
	inverse mgl64.Mat4
}

var identity = RigidTransform{matrix: mgl64.Ident4(), inverse: mgl64.Ident4()}

// Identity returns the transform that maps every frame onto itself.
func Identity() RigidTransform {
	return identity
}

// NewRigidTransform wraps an arbitrary invertible affine matrix, computing its general inverse.
func NewRigidTransform(m mgl64.Mat4) RigidTransform {
	return RigidTransform{matrix: m, inverse: m.Inv()}
}

// NewTranslation returns a pure translation.
func NewTranslation(v r3.Vector) RigidTransform {
	return RigidTransform{
		matrix:  mgl64.Translate3D(v.X, v.Y, v.Z),
		inverse: mgl64.Translate3D(-v.X, -v.Y, -v.Z),
	}
}

// NewScale returns a uniform scale about the origin. A zero scale is not invertible and yields
// the identity.
func NewScale(s float64) RigidTransform {
	if s == 0 {
		return identity
	}
	return RigidTransform{matrix: mgl64.Scale3D(s, s, s), inverse: mgl64.Scale3D(1/s, 1/s, 1/s)}
}

// NewPose returns the rigid transform that rotates by q then translates by t.
func NewPose(q quat.Number, t r3.Vector) RigidTransform {
	rot := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Normalize().Mat4()
	m := mgl64.Translate3D(t.X, t.Y, t.Z).Mul4(rot)
	return RigidTransform{matrix: m, inverse: rigidInverse(m)}
}

// NewPoseFromAxisAngle is NewPose with the rotation given as an axis angle.
func NewPoseFromAxisAngle(aa R4AA, t r3.Vector) RigidTransform {
	return NewPose(aa.ToQuat(), t)
}

// NewPoseFromBasis builds a rigid transform from orthonormal right/up/backward axes and a translation.
func NewPoseFromBasis(right, up, backward, t r3.Vector) RigidTransform {
	m := mgl64.Mat4{
		right.X, right.Y, right.Z, 0,
		up.X, up.Y, up.Z, 0,
		backward.X, backward.Y, backward.Z, 0,
		t.X, t.Y, t.Z, 1,
	}
	return RigidTransform{matrix: m, inverse: rigidInverse(m)}
}

// Matrix returns the forward matrix.
func (t RigidTransform) Matrix() mgl64.Mat4 {
	return t.matrix
}

// InverseMatrix returns the cached inverse matrix.
func (t RigidTransform) InverseMatrix() mgl64.Mat4 {
	return t.inverse
}

// Inverted returns the inverse transform, which is the same pair with its halves swapped.
func (t RigidTransform) Inverted() RigidTransform {
	return RigidTransform{matrix: t.inverse, inverse: t.matrix}
}

// Compose returns the transform that applies b first, then a. The inverse is composed from the
// cached inverses as b⁻¹·a⁻¹ rather than by inverting the product.
func Compose(a, b RigidTransform) RigidTransform {
	return RigidTransform{
		matrix:  a.matrix.Mul4(b.matrix),
		inverse: b.inverse.Mul4(a.inverse),
	}
}

// Between returns `to` expressed relative to `from`, i.e. from⁻¹·to.
func Between(from, to RigidTransform) RigidTransform {
	return Compose(from.Inverted(), to)
}

// Translation returns the translation component.
func (t RigidTransform) Translation() r3.Vector {
	return r3.Vector{X: t.matrix[12], Y: t.matrix[13], Z: t.matrix[14]}
}

// Right returns the transformed +X axis.
func (t RigidTransform) Right() r3.Vector {
	return r3.Vector{X: t.matrix[0], Y: t.matrix[1], Z: t.matrix[2]}
}

// Up returns the transformed +Y axis.
func (t RigidTransform) Up() r3.Vector {
	return r3.Vector{X: t.matrix[4], Y: t.matrix[5], Z: t.matrix[6]}
}

// Backward returns the transformed +Z axis.
func (t RigidTransform) Backward() r3.Vector {
	return r3.Vector{X: t.matrix[8], Y: t.matrix[9], Z: t.matrix[10]}
}

// Forward returns the transformed -Z axis.
func (t RigidTransform) Forward() r3.Vector {
	return t.Backward().Mul(-1)
}

// Quaternion returns the rotation component. The basis must be orthonormal.
func (t RigidTransform) Quaternion() quat.Number {
	q := mgl64.Mat4ToQuat(t.matrix)
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// AxisAngles returns the rotation component as an R3 axis angle.
func (t RigidTransform) AxisAngles() r3.Vector {
	return QuatToR3AA(t.Quaternion())
}

// Apply maps a point through the transform.
func (t RigidTransform) Apply(p r3.Vector) r3.Vector {
	v := t.matrix.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// ApplyInverse maps a point through the cached inverse.
func (t RigidTransform) ApplyInverse(p r3.Vector) r3.Vector {
	return t.Inverted().Apply(p)
}

// WithTranslation returns a copy of t whose translation is replaced by v.
func (t RigidTransform) WithTranslation(v r3.Vector) RigidTransform {
	m := t.matrix
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return NewRigidTransform(m)
}

// Orthogonalize re-orthonormalizes a basis that has drifted after repeated composition or scaling.
// Right is normalized, up becomes the part of the old up orthogonal to right, and backward is
// right×up. The translation is kept.
func Orthogonalize(t RigidTransform) RigidTransform {
	right := t.Right().Normalize()
	oldUp := t.Up()
	up := oldUp.Sub(right.Mul(oldUp.Dot(right))).Normalize()
	backward := right.Cross(up).Normalize()
	return NewPoseFromBasis(right, up, backward, t.Translation())
}

// ZeroPitchAndRoll strips pitch and roll from t, keeping its heading (yaw) and translation.
// When t looks straight up or down its forward axis has no heading, so the heading is taken from
// the up axis instead.
func ZeroPitchAndRoll(t RigidTransform) RigidTransform {
	forward := t.Forward()
	right := forward.Cross(WorldUp)
	if right.Norm() < 1e-9 {
		heading := t.Up()
		if forward.Y > 0 {
			heading = heading.Mul(-1)
		}
		right = heading.Cross(WorldUp)
	}
	right = right.Normalize()
	forward = WorldUp.Cross(right)
	return NewPoseFromBasis(right, WorldUp, forward.Mul(-1), t.Translation())
}

// AlmostEqual reports whether every entry of the matrices and of the inverses of a and b differ
// by at most tol.
func AlmostEqual(a, b RigidTransform, tol float64) bool {
	return mat4AlmostEqual(a.matrix, b.matrix, tol) && mat4AlmostEqual(a.inverse, b.inverse, tol)
}

// mat4AlmostEqual compares with an absolute tolerance; mgl64's ApproxEqualThreshold is relative
// and never accepts a tiny residue where the other side is exactly zero.
func mat4AlmostEqual(a, b mgl64.Mat4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// rigidInverse inverts a rotation+translation matrix: [Rᵀ | -Rᵀt].
func rigidInverse(m mgl64.Mat4) mgl64.Mat4 {
	rt := m.Mat3().Transpose()
	t := rt.Mul3x1(mgl64.Vec3{m[12], m[13], m[14]})
	inv := rt.Mat4()
	inv[12], inv[13], inv[14] = -t[0], -t[1], -t[2]
	return inv
}
