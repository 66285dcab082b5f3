package device

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/vrpose/vrpose/handed"
	"github.com/vrpose/vrpose/logging"
)

// Registry owns every tracked device: the headset, both hands and any generic trackers found
// while running. Devices are never removed.
//
// RenderStep and MainStep are each called from a single goroutine. RenderStep never waits on
// MainStep: publishing a frame is skipped when the simulation side holds the lock.
type Registry struct {
	rt     Runtime
	logger logging.Logger

	headset *Headset
	hands   handed.Handed[*Controller]

	// Written only by the render loop, copy on write.
	devices atomic.Pointer[[]*TrackedDevice]

	// Render loop only.
	nextID       ID
	renderPoses  []Pose
	futurePoses  []Pose
	droppedFrame *rate.Limiter

	syncMu    sync.Mutex
	syncPoses []Pose
	fresh     bool

	// Simulation loop only.
	poses []Pose
}

// NewRegistry returns a registry holding the headset and both hands.
func NewRegistry(rt Runtime, logger logging.Logger) *Registry {
	r := &Registry{
		rt:           rt,
		logger:       logger,
		headset:      NewHeadset(),
		hands:        handed.New(NewController(rt, handed.Left), NewController(rt, handed.Right)),
		renderPoses:  newPoseArray(),
		futurePoses:  newPoseArray(),
		syncPoses:    newPoseArray(),
		poses:        newPoseArray(),
		droppedFrame: rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	devices := []*TrackedDevice{r.headset.TrackedDevice, r.hands.Left.TrackedDevice, r.hands.Right.TrackedDevice}
	r.devices.Store(&devices)
	return r
}

// Headset returns the headset.
func (r *Registry) Headset() *Headset {
	return r.headset
}

// Hands returns both hand controllers.
func (r *Registry) Hands() handed.Handed[*Controller] {
	return r.hands
}

// Devices returns every device in registration order. The slice must not be modified.
func (r *Registry) Devices() []*TrackedDevice {
	return *r.devices.Load()
}

// RenderStep waits for the runtime's next frame of poses, hands them to the simulation loop if it
// is not busy, and updates every device's render pose. If the runtime fails, the previous render
// poses are kept and nothing is published.
func (r *Registry) RenderStep(ctx context.Context) error {
	r.discoverDevices()

	if err := r.rt.WaitGetPoses(ctx, r.renderPoses, r.futurePoses); err != nil {
		return errors.Wrap(err, "querying device poses")
	}

	r.checkFrameTiming()
	r.assignControllerRoles()
	r.publish()

	for _, d := range r.Devices() {
		if id := d.ID(); id.Valid() {
			d.setRenderPoses(r.renderPoses[id], r.futurePoses[id])
		}
	}
	return nil
}

// discoverDevices scans ids the registry has not seen yet. The runtime hands out ids contiguously,
// so the first invalid slot ends the scan; the next frame resumes from there.
func (r *Registry) discoverDevices() {
	for ; r.nextID < MaxDeviceCount; r.nextID++ {
		class := r.rt.DeviceClass(r.nextID)
		if class == ClassInvalid {
			return
		}
		if class != ClassGenericTracker {
			continue
		}

		tracker := newTrackedDevice("tracker "+r.nextID.String(), ClassGenericTracker, r.nextID)
		old := *r.devices.Load()
		devices := make([]*TrackedDevice, len(old), len(old)+1)
		copy(devices, old)
		devices = append(devices, tracker)
		r.devices.Store(&devices)
		r.logger.Infow("found generic tracker", "id", r.nextID)
	}
}

func (r *Registry) checkFrameTiming() {
	timing, ok := r.rt.FrameTiming()
	if !ok || timing.DroppedFrames == 0 || !r.droppedFrame.Allow() {
		return
	}
	r.logger.Warnw("dropping frames",
		"frame_interval", timing.FrameInterval,
		"idle", timing.IdleCPU,
		"render_cpu", timing.RenderCPU,
		"render_gpu", timing.RenderGPU,
		"submit", timing.Submit,
		"dropped", timing.DroppedFrames,
	)
}

// assignControllerRoles follows the runtime's hand roles, which can move between devices while
// running. A hand keeps its device when its role is unassigned.
func (r *Registry) assignControllerRoles() {
	r.hands.Each(func(hand handed.LeftRight, c *Controller) {
		id := r.rt.ControllerRoleIndex(hand)
		if !id.Valid() || id == c.ID() {
			return
		}
		r.logger.Debugw("controller role assigned", "hand", hand, "id", id, "previous", c.ID())
		c.setID(id)
	})
}

// publish copies this frame into the staging buffer unless the simulation loop holds it.
func (r *Registry) publish() {
	if !r.syncMu.TryLock() {
		return
	}
	defer r.syncMu.Unlock()
	copy(r.syncPoses, r.renderPoses)
	r.fresh = true
}

// MainStep takes the newest published frame, if there is one, and updates every device's pose. If
// the render loop has not published since the last call, devices keep their poses.
func (r *Registry) MainStep() {
	r.syncMu.Lock()
	if r.fresh {
		r.syncPoses, r.poses = r.poses, r.syncPoses
		r.fresh = false
	}
	r.syncMu.Unlock()

	devices := r.Devices()
	for _, d := range devices {
		if id := d.ID(); id.Valid() {
			d.setMainPose(r.poses[id])
		}
	}
	for _, d := range devices {
		d.mainUpdate()
	}
}
