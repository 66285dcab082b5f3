package device

import (
	"go.uber.org/atomic"
)

// TrackedDevice holds the two copies of a device's pose. The render copies are only touched by
// the render loop and the main copy only by the simulation loop; the registry moves data between
// them.
type TrackedDevice struct {
	name  string
	class Class
	id    *atomic.Uint32

	renderPose       Pose
	renderFuturePose Pose
	pose             Pose

	onMainUpdate func()
}

func newTrackedDevice(name string, class Class, id ID) *TrackedDevice {
	return &TrackedDevice{
		name:             name,
		class:            class,
		id:               atomic.NewUint32(uint32(id)),
		renderPose:       UntrackedPose(),
		renderFuturePose: UntrackedPose(),
		pose:             UntrackedPose(),
	}
}

// Name identifies the device in logs.
func (d *TrackedDevice) Name() string {
	return d.name
}

// Class is the kind of device.
func (d *TrackedDevice) Class() Class {
	return d.class
}

// ID returns the runtime slot of the device. Controllers may change slot at runtime.
func (d *TrackedDevice) ID() ID {
	return ID(d.id.Load())
}

func (d *TrackedDevice) setID(id ID) {
	d.id.Store(uint32(id))
}

// Pose returns the latest pose the simulation loop has received. Call it from the simulation loop.
func (d *TrackedDevice) Pose() Pose {
	return d.pose
}

// RenderPose returns the pose for the frame being rendered. Call it from the render loop.
func (d *TrackedDevice) RenderPose() Pose {
	return d.renderPose
}

// RenderFuturePose returns the runtime's prediction one frame after RenderPose.
func (d *TrackedDevice) RenderFuturePose() Pose {
	return d.renderFuturePose
}

func (d *TrackedDevice) setRenderPoses(render, future Pose) {
	d.renderPose = render
	d.renderFuturePose = future
}

func (d *TrackedDevice) setMainPose(pose Pose) {
	d.pose = pose
}

func (d *TrackedDevice) mainUpdate() {
	if d.onMainUpdate != nil {
		d.onMainUpdate()
	}
}

// Headset is the head mounted display. It always occupies HeadsetID.
type Headset struct {
	*TrackedDevice
}

// NewHeadset returns the headset device.
func NewHeadset() *Headset {
	return &Headset{newTrackedDevice("headset", ClassHMD, HeadsetID)}
}
