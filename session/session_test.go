package session_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/vrpose/vrpose/calibration"
	"github.com/vrpose/vrpose/config"
	"github.com/vrpose/vrpose/device"
	devicefake "github.com/vrpose/vrpose/device/fake"
	"github.com/vrpose/vrpose/floor"
	"github.com/vrpose/vrpose/handed"
	inputfake "github.com/vrpose/vrpose/input/fake"
	"github.com/vrpose/vrpose/logging"
	"github.com/vrpose/vrpose/session"
	"github.com/vrpose/vrpose/spatialmath"
)

type harness struct {
	rt       *devicefake.Runtime
	src      *inputfake.Source
	settings *config.Settings
	sess     *session.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.NewTestLogger(t)
	settings := config.NewSettings(filepath.Join(t.TempDir(), "settings.json"), logger)
	t.Cleanup(func() { test.That(t, settings.Flush(), test.ShouldBeNil) })

	h := &harness{rt: devicefake.NewRuntime(), src: inputfake.NewSource(), settings: settings}
	sess, err := session.New(context.Background(), h.rt, h.src, settings, logger)
	test.That(t, err, test.ShouldBeNil)
	h.sess = sess
	return h
}

func trackedAt(v r3.Vector) device.Pose {
	return device.Pose{IsTracked: true, DeviceToAbsolute: spatialmath.NewTranslation(v)}
}

// step runs one render frame then one simulation tick.
func (h *harness) step(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	test.That(t, h.sess.RenderStep(ctx), test.ShouldBeNil)
	test.That(t, h.sess.MainStep(ctx), test.ShouldBeNil)
}

func TestNew(t *testing.T) {
	h1 := newHarness(t)
	h2 := newHarness(t)
	test.That(t, h1.sess.ID(), test.ShouldNotEqual, uuid.Nil)
	test.That(t, h1.sess.ID(), test.ShouldNotEqual, h2.sess.ID())

	test.That(t, h1.sess.Devices(), test.ShouldHaveLength, 3)
	test.That(t, h1.sess.Headset().Class(), test.ShouldEqual, device.ClassHMD)
	test.That(t, h1.sess.GetBodyCalibration(), test.ShouldResemble,
		calibration.BodyCalibration{Height: 1.69, ArmSpan: 1.66})
	test.That(t, h1.sess.IsCalibrating(), test.ShouldBeFalse)

	id := uuid.New()
	sess, err := session.NewWithID(context.Background(), id, h1.rt, h1.src, h1.settings, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sess.ID(), test.ShouldEqual, id)

	_, err = session.New(context.Background(), nil, h1.src, h1.settings, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCalibration(t *testing.T) {
	h := newHarness(t)

	var committed []calibration.BodyCalibration
	h.sess.OnPlayerCalibrationChanged(func(c calibration.BodyCalibration) { committed = append(committed, c) })
	var floors []floor.ReferenceFrames
	h.sess.OnPlayerFloorChanged(func(f floor.ReferenceFrames) { floors = append(floors, f) })

	h.sess.StartCalibration(3)
	test.That(t, h.sess.IsCalibrating(), test.ShouldBeTrue)

	for _, height := range []float64{1.7, 1.8, 1.75} {
		h.rt.SetPose(device.HeadsetID, trackedAt(r3.Vector{X: 0.2, Y: height, Z: -0.3}))
		h.rt.SetPose(1, trackedAt(r3.Vector{X: -0.85, Y: 1.4}))
		h.rt.SetPose(2, trackedAt(r3.Vector{X: 0.85, Y: 1.4}))
		h.step(t)
	}

	test.That(t, h.sess.IsCalibrating(), test.ShouldBeFalse)
	test.That(t, committed, test.ShouldHaveLength, 1)
	test.That(t, committed[0].Height, test.ShouldAlmostEqual, 1.8)
	test.That(t, committed[0].ArmSpan, test.ShouldAlmostEqual, 1.7)
	test.That(t, h.sess.GetBodyCalibration(), test.ShouldResemble, committed[0])

	// stored in the settings
	test.That(t, h.settings.PlayerHeight.Get(), test.ShouldAlmostEqual, 1.8)
	test.That(t, h.settings.PlayerArmSpan.Get(), test.ShouldAlmostEqual, 1.7)

	// finishing a calibration re-centres the floor under the headset
	test.That(t, floors, test.ShouldHaveLength, 1)
	pos := floors[0].PlayerToAbsolute.Translation()
	test.That(t, pos.X, test.ShouldAlmostEqual, 0.2)
	test.That(t, pos.Y, test.ShouldAlmostEqual, 0)
	test.That(t, pos.Z, test.ShouldAlmostEqual, -0.3)
}

func TestCalibrateButton(t *testing.T) {
	h := newHarness(t)
	var committed int
	h.sess.OnPlayerCalibrationChanged(func(calibration.BodyCalibration) { committed++ })

	h.src.Press(session.CalibrateAction)
	h.step(t)
	test.That(t, h.sess.IsCalibrating(), test.ShouldBeTrue)

	// holding the button does not restart the window
	h.step(t)
	test.That(t, h.sess.IsCalibrating(), test.ShouldBeTrue)

	h.sess.CancelCalibration()
	test.That(t, h.sess.IsCalibrating(), test.ShouldBeFalse)
	h.src.Release(session.CalibrateAction)
	h.step(t)
	test.That(t, committed, test.ShouldEqual, 0)
	test.That(t, h.sess.GetBodyCalibration().Height, test.ShouldEqual, 1.69)
}

func TestInputFailureDoesNotStopCalibration(t *testing.T) {
	h := newHarness(t)
	var floors int
	h.sess.OnPlayerFloorChanged(func(floor.ReferenceFrames) { floors++ })

	h.src.FailUpdates(errors.New("no actions"))
	h.sess.StartCalibration(1)
	test.That(t, h.sess.RenderStep(context.Background()), test.ShouldBeNil)
	err := h.sess.MainStep(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "updating input")
	test.That(t, err.Error(), test.ShouldContainSubstring, "no actions")

	// nothing was tracked so nothing is committed, but the window still ended
	test.That(t, h.sess.IsCalibrating(), test.ShouldBeFalse)
	test.That(t, h.sess.GetBodyCalibration().Height, test.ShouldEqual, 1.69)
	test.That(t, floors, test.ShouldEqual, 1)
}

func TestRenderStepFailure(t *testing.T) {
	h := newHarness(t)
	h.rt.SetPose(device.HeadsetID, trackedAt(r3.Vector{Y: 1.6}))
	h.step(t)

	h.rt.SetError(errors.New("compositor gone"))
	h.rt.SetPose(device.HeadsetID, trackedAt(r3.Vector{Y: 1.2}))
	err := h.sess.RenderStep(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "compositor gone")
	test.That(t, h.sess.Headset().RenderPose().DeviceToAbsolute.Translation().Y, test.ShouldEqual, 1.6)
	test.That(t, h.sess.MainStep(context.Background()), test.ShouldBeNil)
	test.That(t, h.sess.Headset().Pose().DeviceToAbsolute.Translation().Y, test.ShouldEqual, 1.6)
}

func TestResetPlayerFloor(t *testing.T) {
	h := newHarness(t)
	yawed := spatialmath.NewPoseFromAxisAngle(spatialmath.R4AA{Theta: math.Pi / 2, RY: 1}, r3.Vector{X: 1, Y: 1.7, Z: 2})
	h.rt.SetPose(device.HeadsetID, device.Pose{IsTracked: true, DeviceToAbsolute: yawed})
	h.step(t)

	h.sess.ResetPlayerFloor()
	frames := h.sess.Frames()
	test.That(t, spatialmath.AlmostEqual(frames.NeutralHeadToAbsolute, yawed, 1e-9), test.ShouldBeTrue)
	test.That(t, frames.PlayerToAbsolute.Translation(), test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 2})

	// the render loop catches up on its next frame
	test.That(t, spatialmath.AlmostEqual(h.sess.RenderPlayerToAbsolute(), spatialmath.Identity(), 1e-9), test.ShouldBeTrue)
	test.That(t, h.sess.RenderStep(context.Background()), test.ShouldBeNil)
	test.That(t, spatialmath.AlmostEqual(h.sess.RenderPlayerToAbsolute(), frames.PlayerToAbsolute, 1e-9), test.ShouldBeTrue)

	t.Run("without head rotation", func(t *testing.T) {
		h.settings.UseHeadRotationForCharacter.Set(false)
		h.sess.ResetPlayerFloor()
		neutral := h.sess.Frames().NeutralHeadToAbsolute
		test.That(t, neutral.Translation(), test.ShouldResemble, yawed.Translation())
		test.That(t, neutral.Forward().Z, test.ShouldAlmostEqual, -1)
	})
}

func TestHandToCharacter(t *testing.T) {
	h := newHarness(t)
	h.settings.HandAimPitch.Set(0)
	h.rt.SetPose(device.HeadsetID, trackedAt(r3.Vector{Y: 1.7}))
	h.rt.SetPose(2, trackedAt(r3.Vector{X: 0.3, Y: 1.2, Z: -0.4}))
	h.step(t)
	h.sess.ResetPlayerFloor()

	hand := h.sess.HandToCharacter(handed.Right, spatialmath.Identity())
	vecAlmostEqual(t, hand.Translation(), r3.Vector{X: 0.3, Y: -0.5, Z: -0.4})

	h.settings.BodyScalingMode.Set(1)
	playerToCharacter := h.sess.PlayerToCharacter(calibration.BodyCalibration{Height: 1.69 * 2, ArmSpan: 1.66})
	hand = h.sess.HandToCharacter(handed.Right, playerToCharacter)
	vecAlmostEqual(t, hand.Translation(), r3.Vector{X: 0.6, Y: -1, Z: -0.8})
	test.That(t, hand.Right().Norm(), test.ShouldAlmostEqual, 1)
	test.That(t, hand.Up().Norm(), test.ShouldAlmostEqual, 1)
}

func TestAimOffset(t *testing.T) {
	h := newHarness(t)
	h.settings.HandAimPitch.Set(spatialmath.Degrees(-90))
	vecAlmostEqual(t, h.sess.AimOffset(handed.Right).Forward(), r3.Vector{Y: -1})

	h.settings.HandAimPitch.Set(0)
	h.settings.HandAimYaw.Set(spatialmath.Degrees(90))
	// yaw turns the right hand left and mirrors for the left hand
	vecAlmostEqual(t, h.sess.AimOffset(handed.Right).Forward(), r3.Vector{X: -1})
	vecAlmostEqual(t, h.sess.AimOffset(handed.Left).Forward(), r3.Vector{X: 1})
}

func TestPrimaryHand(t *testing.T) {
	h := newHarness(t)
	test.That(t, h.sess.PrimaryHand(), test.ShouldEqual, h.sess.Hands().Right)
	h.settings.Handedness.Set(handed.Left)
	test.That(t, h.sess.PrimaryHand(), test.ShouldEqual, h.sess.Hands().Left)
}

func vecAlmostEqual(t *testing.T, got, want r3.Vector) {
	t.Helper()
	test.That(t, got.X, test.ShouldAlmostEqual, want.X)
	test.That(t, got.Y, test.ShouldAlmostEqual, want.Y)
	test.That(t, got.Z, test.ShouldAlmostEqual, want.Z)
}
