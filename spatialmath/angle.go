package spatialmath

import (
	"fmt"
	"math"
)

const (
	radToDeg = 180 / math.Pi
	degToRad = math.Pi / 180
)

// Angle is an angle in radians. It serializes as radians.
type Angle float64

// Radians makes an Angle from radians.
func Radians(r float64) Angle {
	return Angle(r)
}

// Degrees makes an Angle from degrees.
func Degrees(d float64) Angle {
	return Angle(d * degToRad)
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * radToDeg
}

func (a Angle) String() string {
	return fmt.Sprintf("%.0f degrees", a.Degrees())
}
