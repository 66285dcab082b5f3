// Package device tracks the poses of VR devices for two consumers running at different rates: the
// render loop, which writes poses as the runtime reports them, and the simulation loop, which reads
// a complete snapshot once per tick.
package device

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/vrpose/vrpose/handed"
	"github.com/vrpose/vrpose/spatialmath"
)

// MaxDeviceCount is the number of pose slots the runtime reports per frame.
const MaxDeviceCount = 64

// ID is the runtime's index for a device. Once the runtime assigns an id it stays with that device
// until the runtime shuts down, even across disconnects.
type ID uint32

const (
	// InvalidID marks a device the runtime has not assigned yet.
	InvalidID ID = math.MaxUint32
	// HeadsetID is the slot the runtime always reports the headset in.
	HeadsetID ID = 0
)

// Valid reports whether id addresses a pose slot.
func (id ID) Valid() bool {
	return id != InvalidID && id < MaxDeviceCount
}

func (id ID) String() string {
	if id == InvalidID {
		return "invalid"
	}
	return fmt.Sprintf("%d", uint32(id))
}

// Class is the kind of device occupying a slot.
type Class int

// Device classes, in the order the runtime numbers them.
const (
	ClassInvalid Class = iota
	ClassHMD
	ClassController
	ClassGenericTracker
	ClassTrackingReference
	ClassDisplayRedirect
)

func (c Class) String() string {
	switch c {
	case ClassInvalid:
		return "invalid"
	case ClassHMD:
		return "hmd"
	case ClassController:
		return "controller"
	case ClassGenericTracker:
		return "generic tracker"
	case ClassTrackingReference:
		return "tracking reference"
	case ClassDisplayRedirect:
		return "display redirect"
	}
	return "unknown"
}

// Pose is one sample of a device. DeviceToAbsolute maps device space into the runtime's tracking
// space. When IsTracked is false the other fields are stale and should be ignored.
type Pose struct {
	IsTracked        bool
	DeviceToAbsolute spatialmath.RigidTransform
	Velocity         r3.Vector
	AngularVelocity  r3.Vector
}

// UntrackedPose is the pose of a device that has never been seen.
func UntrackedPose() Pose {
	return Pose{DeviceToAbsolute: spatialmath.Identity()}
}

func newPoseArray() []Pose {
	poses := make([]Pose, MaxDeviceCount)
	for i := range poses {
		poses[i] = UntrackedPose()
	}
	return poses
}

// FrameTiming is the compositor's report on the last frame.
type FrameTiming struct {
	FrameInterval time.Duration
	IdleCPU       time.Duration
	RenderCPU     time.Duration
	RenderGPU     time.Duration
	Submit        time.Duration
	DroppedFrames int
}

// Runtime is the VR runtime the registry polls.
type Runtime interface {
	// WaitGetPoses blocks until the compositor is ready for the next frame and fills render with the
	// poses for this frame and future with the predicted poses one frame later. Both slices have
	// MaxDeviceCount entries.
	WaitGetPoses(ctx context.Context, render, future []Pose) error
	// DeviceClass returns ClassInvalid for ids that have never been assigned.
	DeviceClass(id ID) Class
	// ControllerRoleIndex returns the device currently holding a hand role, or InvalidID.
	ControllerRoleIndex(hand handed.LeftRight) ID
	// FrameTiming returns false when no timing is available.
	FrameTiming() (FrameTiming, bool)
	TriggerHapticPulse(id ID, button Button, duration time.Duration) error
}
