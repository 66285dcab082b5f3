package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestAngle(t *testing.T) {
	a := Degrees(-90)
	test.That(t, a.Radians(), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, a.Degrees(), test.ShouldAlmostEqual, -90)
	test.That(t, (Degrees(30) + Degrees(15)).Degrees(), test.ShouldAlmostEqual, 45)
	test.That(t, Radians(math.Pi).String(), test.ShouldEqual, "180 degrees")

	buf, err := json.Marshal(Radians(1.5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(buf), test.ShouldEqual, "1.5")

	var back Angle
	test.That(t, json.Unmarshal(buf, &back), test.ShouldBeNil)
	test.That(t, back, test.ShouldEqual, Radians(1.5))
}

func TestR4AA(t *testing.T) {
	aa := R4AA{Theta: math.Pi / 3, RX: 0, RY: 2, RZ: 0}
	q := aa.ToQuat()
	test.That(t, q.Real, test.ShouldAlmostEqual, math.Cos(math.Pi/6))
	test.That(t, q.Jmag, test.ShouldAlmostEqual, math.Sin(math.Pi/6))

	back := QuatToR4AA(q)
	test.That(t, back.Theta, test.ShouldAlmostEqual, math.Pi/3)
	test.That(t, back.RY, test.ShouldAlmostEqual, 1)

	r3v := back.ToR3()
	test.That(t, r3v.Y, test.ShouldAlmostEqual, math.Pi/3)
	test.That(t, QuatToR4AA(NewR4AA().ToQuat()), test.ShouldResemble, NewR4AA())
	test.That(t, QuatToR3AA(NewR4AA().ToQuat()), test.ShouldResemble, r3.Vector{})
}

func TestQuatToR3AAShortestArc(t *testing.T) {
	aa := R4AA{Theta: 0.3, RX: 1}
	q := aa.ToQuat()
	neg := q
	neg.Real, neg.Imag, neg.Jmag, neg.Kmag = -q.Real, -q.Imag, -q.Jmag, -q.Kmag

	a := QuatToR3AA(q)
	b := QuatToR3AA(neg)
	test.That(t, a.X, test.ShouldAlmostEqual, 0.3)
	test.That(t, b.X, test.ShouldAlmostEqual, 0.3)
	test.That(t, QuaternionAlmostEqual(q, neg, 1e-12), test.ShouldBeTrue)
}
