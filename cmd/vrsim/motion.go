package main

import (
	"context"
	"math"

	"github.com/golang/geo/r3"

	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/device/fake"
	"github.com/vrpose/vrpose/spatialmath"
)

// motion scripts a player standing in place, swaying and lifting their arms.
type motion struct {
	height  float64
	armSpan float64
	frameHz float64
	headID  device.ID
	handIDs [2]device.ID
}

// pose returns where the player is at time t.
func (m motion) pose(t float64) (head, left, right device.Pose) {
	sway := 0.05 * math.Sin(2*math.Pi*t/4)
	// the headset peaks at the player's height
	headY := m.height - 0.04 + 0.04*math.Sin(2*math.Pi*t/3)
	yaw := 0.3 * math.Sin(2*math.Pi*t/10)
	head = device.Pose{
		IsTracked: true,
		DeviceToAbsolute: spatialmath.NewPoseFromAxisAngle(
			spatialmath.R4AA{Theta: yaw, RY: 1}, r3.Vector{X: sway, Y: headY}),
	}

	// arms go from hanging to spread out every few seconds
	spread := 0.5 - 0.5*math.Cos(2*math.Pi*t/5)
	half := m.armSpan / 2
	reach := 0.2 + (half-0.2)*spread
	handY := headY - 0.7 + 0.5*spread
	left = device.Pose{IsTracked: true, DeviceToAbsolute: spatialmath.NewTranslation(r3.Vector{X: sway - reach, Y: handY})}
	right = device.Pose{IsTracked: true, DeviceToAbsolute: spatialmath.NewTranslation(r3.Vector{X: sway + reach, Y: handY})}
	return head, left, right
}

// install makes rt report the scripted motion, one frame every 1/frameHz seconds of script time.
func (m motion) install(rt *fake.Runtime) {
	dt := 1 / m.frameHz
	rt.WaitGetPosesFunc = func(ctx context.Context, frame int, render, future []device.Pose) error {
		t := float64(frame) * dt
		m.fill(render, t)
		m.fill(future, t+dt)
		prevHead, prevLeft, prevRight := m.pose(t - dt)
		render[m.headID].AngularVelocity = spatialmath.AngularVelocity(
			prevHead.DeviceToAbsolute, render[m.headID].DeviceToAbsolute, dt)
		for i, prev := range []device.Pose{prevLeft, prevRight} {
			id := m.handIDs[i]
			render[id].Velocity = render[id].DeviceToAbsolute.Translation().
				Sub(prev.DeviceToAbsolute.Translation()).Mul(1 / dt)
		}
		return nil
	}
}

func (m motion) fill(poses []device.Pose, t float64) {
	head, left, right := m.pose(t)
	poses[m.headID] = head
	poses[m.handIDs[0]] = left
	poses[m.handIDs[1]] = right
}
