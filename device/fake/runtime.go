// Package fake implements a scripted VR runtime for tests and the simulator.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/handed"
)

// HapticPulse records one call to TriggerHapticPulse.
type HapticPulse struct {
	ID       device.ID
	Button   device.Button
	Duration time.Duration
}

// Runtime is a device.Runtime whose devices and poses are set by the caller. By default it
// reports a headset in slot 0 and controllers in slots 1 (left) and 2 (right), all untracked.
type Runtime struct {
	mu      sync.Mutex
	classes map[device.ID]device.Class
	roles   handed.Handed[device.ID]
	poses   []device.Pose
	future  []device.Pose
	timing  *device.FrameTiming
	err     error
	frames  int
	pulses  []HapticPulse

	// WaitGetPosesFunc replaces WaitGetPoses when set.
	WaitGetPosesFunc func(ctx context.Context, frame int, render, future []device.Pose) error
}

// NewRuntime returns a runtime with a headset and two controllers connected.
func NewRuntime() *Runtime {
	rt := &Runtime{
		classes: map[device.ID]device.Class{
			0: device.ClassHMD,
			1: device.ClassController,
			2: device.ClassController,
		},
		roles:  handed.New[device.ID](1, 2),
		poses:  make([]device.Pose, device.MaxDeviceCount),
		future: make([]device.Pose, device.MaxDeviceCount),
	}
	for i := range rt.poses {
		rt.poses[i] = device.UntrackedPose()
		rt.future[i] = device.UntrackedPose()
	}
	return rt
}

// SetClass connects a device of the given class in slot id.
func (rt *Runtime) SetClass(id device.ID, class device.Class) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.classes[id] = class
}

// SetRole moves a hand role to another slot. InvalidID unassigns it.
func (rt *Runtime) SetRole(hand handed.LeftRight, id device.ID) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.roles.Set(hand, id)
}

// SetPose sets the pose reported for slot id from the next frame on. The future pose is set to the
// same value.
func (rt *Runtime) SetPose(id device.ID, pose device.Pose) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.poses[id] = pose
	rt.future[id] = pose
}

// SetFrameTiming sets the timing reported by FrameTiming.
func (rt *Runtime) SetFrameTiming(timing device.FrameTiming) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.timing = &timing
}

// SetError makes WaitGetPoses fail with err until it is cleared with nil.
func (rt *Runtime) SetError(err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.err = err
}

// Frames returns how many frames WaitGetPoses has delivered.
func (rt *Runtime) Frames() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.frames
}

// HapticPulses returns every pulse triggered so far.
func (rt *Runtime) HapticPulses() []HapticPulse {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]HapticPulse(nil), rt.pulses...)
}

// WaitGetPoses copies the scripted poses.
func (rt *Runtime) WaitGetPoses(ctx context.Context, render, future []device.Pose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rt.mu.Lock()
	if rt.err != nil {
		defer rt.mu.Unlock()
		return rt.err
	}
	frame := rt.frames
	rt.frames++
	fn := rt.WaitGetPosesFunc
	if fn == nil {
		copy(render, rt.poses)
		copy(future, rt.future)
	}
	rt.mu.Unlock()

	if fn != nil {
		return fn(ctx, frame, render, future)
	}
	return nil
}

// DeviceClass returns the class set for id, ClassInvalid if none.
func (rt *Runtime) DeviceClass(id device.ID) device.Class {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.classes[id]
}

// ControllerRoleIndex returns the slot holding a hand role.
func (rt *Runtime) ControllerRoleIndex(hand handed.LeftRight) device.ID {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.roles.Get(hand)
}

// FrameTiming returns the timing set by SetFrameTiming.
func (rt *Runtime) FrameTiming() (device.FrameTiming, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.timing == nil {
		return device.FrameTiming{}, false
	}
	return *rt.timing, true
}

// TriggerHapticPulse records the pulse.
func (rt *Runtime) TriggerHapticPulse(id device.ID, button device.Button, duration time.Duration) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pulses = append(rt.pulses, HapticPulse{id, button, duration})
	return nil
}
