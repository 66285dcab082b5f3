package input

import (
	"context"

	"github.com/golang/geo/r3"

	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/spatialmath"
)

// ControlType selects what a VirtualJoystick reports.
type ControlType int

const (
	// Translation reports how far the device moved.
	Translation ControlType = iota
	// Rotation reports how far the device turned, as an axis scaled by the angle in radians.
	Rotation
)

// Invert flips axes of a VirtualJoystick's output.
type Invert uint8

// Axis flags.
const (
	InvertNone Invert = 0
	InvertX    Invert = 1 << 0
	InvertY    Invert = 1 << 1
	InvertZ    Invert = 1 << 2
)

// PoseSource is a device the joystick follows, usually a *device.Controller.
type PoseSource interface {
	Pose() device.Pose
}

// ControllerStickOffset turns a hand controller's frame into that of a stick held in the fist: the
// stick's up is the controller's forward and its origin sits 0.1 m below the controller's.
func ControllerStickOffset() spatialmath.RigidTransform {
	return spatialmath.NewPoseFromBasis(
		r3.Vector{X: 1},
		r3.Vector{Z: -1},
		r3.Vector{Y: 1},
		r3.Vector{Z: 0.1},
	)
}

// VirtualJoystick turns device motion into an analog control. While its enable button is held it
// reports the device's motion relative to where the device was when the button went down
// (Position) and since the previous tick (Delta). Both are zero while the button is up.
type VirtualJoystick struct {
	Enable      *Button
	Device      PoseSource
	Mode        ControlType
	Invert      Invert
	Sensitivity float64
	// StickOffset is applied in device space before tracking.
	StickOffset spatialmath.RigidTransform

	haveOrigin   bool
	originToAbs  spatialmath.RigidTransform
	lastToOrigin spatialmath.RigidTransform
	position     r3.Vector
	delta        r3.Vector
}

// NewVirtualJoystick returns a joystick with sensitivity 1 and no stick offset.
func NewVirtualJoystick(enable *Button, dev PoseSource, mode ControlType, invert Invert) *VirtualJoystick {
	return &VirtualJoystick{
		Enable:       enable,
		Device:       dev,
		Mode:         mode,
		Invert:       invert,
		Sensitivity:  1,
		StickOffset:  spatialmath.Identity(),
		originToAbs:  spatialmath.Identity(),
		lastToOrigin: spatialmath.Identity(),
	}
}

// Name is the enable button's action path.
func (j *VirtualJoystick) Name() string {
	return j.Enable.Name()
}

// Position is the motion since the button went down.
func (j *VirtualJoystick) Position() r3.Vector {
	return j.position
}

// Delta is the motion since the previous tick.
func (j *VirtualJoystick) Delta() r3.Vector {
	return j.delta
}

// Active reports whether the enable button's action is active.
func (j *VirtualJoystick) Active() bool {
	return j.Enable.Active()
}

// Update reads the enable button and recomputes the output from the device's simulation pose. A
// tick where the device is untracked keeps the previous output; if the device was untracked when
// the button went down, the origin is taken on the first tracked tick instead.
func (j *VirtualJoystick) Update(ctx context.Context) error {
	if err := j.Enable.Update(ctx); err != nil {
		return err
	}

	if !j.Enable.IsPressed() {
		j.haveOrigin = false
		j.position = r3.Vector{}
		j.delta = r3.Vector{}
		return nil
	}
	if j.Enable.HasPressed() {
		j.haveOrigin = false
		j.position = r3.Vector{}
		j.delta = r3.Vector{}
	}

	pose := j.Device.Pose()
	if !pose.IsTracked {
		return nil
	}
	stick := spatialmath.Compose(pose.DeviceToAbsolute, j.StickOffset)

	if !j.haveOrigin {
		j.haveOrigin = true
		j.originToAbs = stick
		j.lastToOrigin = spatialmath.Identity()
		return nil
	}

	stickToOrigin := spatialmath.Between(j.originToAbs, stick)
	stickDelta := spatialmath.Between(j.lastToOrigin, stickToOrigin)
	j.lastToOrigin = stickToOrigin

	var position, delta r3.Vector
	switch j.Mode {
	case Translation:
		position = stickToOrigin.Translation()
		delta = stickDelta.Translation()
	case Rotation:
		position = stickToOrigin.AxisAngles()
		delta = stickDelta.AxisAngles()
	}

	j.position = j.invert(position).Mul(j.Sensitivity)
	j.delta = j.invert(delta).Mul(j.Sensitivity)
	return nil
}

func (j *VirtualJoystick) invert(v r3.Vector) r3.Vector {
	if j.Invert&InvertX != 0 {
		v.X = -v.X
	}
	if j.Invert&InvertY != 0 {
		v.Y = -v.Y
	}
	if j.Invert&InvertZ != 0 {
		v.Z = -v.Z
	}
	return v
}
