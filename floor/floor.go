// Package floor anchors the player's reference frames to the headset.
package floor

import (
	"sync"

	"github.com/golang/geo/r3"

	"github.com/vrpose/vrpose/event"
	"github.com/vrpose/vrpose/logging"
	"github.com/vrpose/vrpose/spatialmath"
)

// ReferenceFrames are the frames other poses are expressed against. NeutralHeadToAbsolute is the
// headset's pose at the last reset, with pitch and roll removed or with no rotation at all.
// PlayerToAbsolute is the same frame dropped to the tracking space floor.
type ReferenceFrames struct {
	NeutralHeadToAbsolute spatialmath.RigidTransform
	PlayerToAbsolute      spatialmath.RigidTransform
}

// IdentityFrames are the frames before the first reset.
func IdentityFrames() ReferenceFrames {
	return ReferenceFrames{
		NeutralHeadToAbsolute: spatialmath.Identity(),
		PlayerToAbsolute:      spatialmath.Identity(),
	}
}

// Compute derives the frames from the headset's pose. With useHeadRotation the frames keep the
// headset's heading; otherwise they only keep its position.
func Compute(headToAbsolute spatialmath.RigidTransform, useHeadRotation bool) ReferenceFrames {
	var neutral spatialmath.RigidTransform
	if useHeadRotation {
		neutral = spatialmath.ZeroPitchAndRoll(headToAbsolute)
	} else {
		neutral = spatialmath.NewTranslation(headToAbsolute.Translation())
	}

	t := neutral.Translation()
	return ReferenceFrames{
		NeutralHeadToAbsolute: neutral,
		PlayerToAbsolute:      neutral.WithTranslation(r3.Vector{X: t.X, Y: 0, Z: t.Z}),
	}
}

// Reframer holds the current frames. Reset, Frames and the frame accessors belong to the
// simulation loop. RenderSync and RenderPlayerToAbsolute belong to the render loop, which sees
// PlayerToAbsolute through its own copy refreshed without ever blocking.
type Reframer struct {
	logger logging.Logger

	frames ReferenceFrames

	syncMu               sync.RWMutex
	syncPlayerToAbsolute spatialmath.RigidTransform

	renderPlayerToAbsolute spatialmath.RigidTransform

	changed event.Event[ReferenceFrames]
}

// NewReframer returns a reframer holding IdentityFrames.
func NewReframer(logger logging.Logger) *Reframer {
	return &Reframer{
		logger:                 logger,
		frames:                 IdentityFrames(),
		syncPlayerToAbsolute:   spatialmath.Identity(),
		renderPlayerToAbsolute: spatialmath.Identity(),
	}
}

// Reset recomputes the frames from the headset's pose, publishes PlayerToAbsolute to the render
// loop and notifies observers.
func (r *Reframer) Reset(headToAbsolute spatialmath.RigidTransform, useHeadRotation bool) ReferenceFrames {
	frames := Compute(headToAbsolute, useHeadRotation)
	r.frames = frames

	r.syncMu.Lock()
	r.syncPlayerToAbsolute = frames.PlayerToAbsolute
	r.syncMu.Unlock()

	r.logger.Debugw("player floor reset",
		"position", frames.PlayerToAbsolute.Translation(),
		"use_head_rotation", useHeadRotation)
	r.changed.Fire(frames)
	return frames
}

// Frames returns both frames.
func (r *Reframer) Frames() ReferenceFrames {
	return r.frames
}

// NeutralHeadToAbsolute returns the neutral head frame.
func (r *Reframer) NeutralHeadToAbsolute() spatialmath.RigidTransform {
	return r.frames.NeutralHeadToAbsolute
}

// PlayerToAbsolute returns the player frame.
func (r *Reframer) PlayerToAbsolute() spatialmath.RigidTransform {
	return r.frames.PlayerToAbsolute
}

// RenderSync refreshes the render loop's copy of PlayerToAbsolute. When a reset is being
// published it keeps the previous copy and returns false.
func (r *Reframer) RenderSync() bool {
	if !r.syncMu.TryRLock() {
		return false
	}
	defer r.syncMu.RUnlock()
	r.renderPlayerToAbsolute = r.syncPlayerToAbsolute
	return true
}

// RenderPlayerToAbsolute returns the render loop's copy of PlayerToAbsolute.
func (r *Reframer) RenderPlayerToAbsolute() spatialmath.RigidTransform {
	return r.renderPlayerToAbsolute
}

// OnChanged subscribes to resets.
func (r *Reframer) OnChanged(fn func(ReferenceFrames)) (unsubscribe func()) {
	return r.changed.Subscribe(fn)
}
