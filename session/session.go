// Package session wires devices, calibration, floor reframing and input into one VR session
// driven by a render loop and a simulation loop.
package session

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/vrpose/vrpose/calibration"
	"github.com/vrpose/vrpose/config"
	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/floor"
	"github.com/vrpose/vrpose/handed"
	"github.com/vrpose/vrpose/input"
	"github.com/vrpose/vrpose/logging"
	"github.com/vrpose/vrpose/spatialmath"
)

// CalibrateAction is the digital action whose press starts a calibration.
const CalibrateAction = "/actions/common/in/Calibrate"

// A Session is one VR session. RenderStep must be called from the render loop and MainStep from
// the simulation loop; the two may run concurrently at different rates. Everything else is
// meant for the simulation loop unless documented otherwise.
type Session struct {
	id       uuid.UUID
	logger   logging.Logger
	settings *config.Settings

	registry    *device.Registry
	calibration *calibration.Protocol
	floor       *floor.Reframer
	actions     *input.ActionSet
	calibrate   *input.Button
}

// New makes a new session.
func New(
	ctx context.Context,
	rt device.Runtime,
	in input.Source,
	settings *config.Settings,
	logger logging.Logger,
) (*Session, error) {
	return NewWithID(ctx, uuid.New(), rt, in, settings, logger)
}

// NewWithID makes a new session with an ID.
func NewWithID(
	ctx context.Context,
	id uuid.UUID,
	rt device.Runtime,
	in input.Source,
	settings *config.Settings,
	logger logging.Logger,
) (*Session, error) {
	if rt == nil || in == nil || settings == nil {
		return nil, errors.New("a session needs a runtime, an input source and settings")
	}
	if logging.IsDebugMode(ctx) {
		logger.SetLevel(logging.DEBUG)
	}

	sess := &Session{
		id:          id,
		logger:      logger,
		settings:    settings,
		registry:    device.NewRegistry(rt, logger.Sublogger("devices")),
		calibration: calibration.NewProtocol(settings.BodyCalibration(), settings, logger.Sublogger("calibration")),
		floor:       floor.NewReframer(logger.Sublogger("floor")),
		calibrate:   input.NewButton(in, CalibrateAction),
	}
	sess.actions = input.NewActionSet(in, input.SetCommon).Add(sess.calibrate)
	if err := sess.actions.RegisterControl(CalibrateAction, func(ctx context.Context, event input.Event) {
		sess.StartCalibration(calibration.DefaultDurationTicks)
	}, input.ButtonDown); err != nil {
		return nil, err
	}

	logger.Infow("session started", "id", id.String())
	return sess, nil
}

// ID returns the id of this session.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// RenderStep waits for the next frame of poses and refreshes everything the render loop reads.
func (s *Session) RenderStep(ctx context.Context) error {
	if err := s.registry.RenderStep(ctx); err != nil {
		return err
	}
	s.floor.RenderSync()
	return nil
}

// MainStep advances the simulation by one tick: it takes the latest poses published by the
// render loop, updates input and runs calibration. Input failures do not stop calibration; they
// are returned once the tick is done.
func (s *Session) MainStep(ctx context.Context) error {
	s.registry.MainStep()

	var errs error
	if err := s.actions.Update(ctx); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "updating input"))
	}

	hands := handed.Map(s.registry.Hands(), func(c *device.Controller) device.Pose { return c.Pose() })
	if s.calibration.Tick(s.registry.Headset().Pose(), hands) {
		s.ResetPlayerFloor()
	}
	return errs
}

// GetBodyCalibration returns the published calibration. It is safe to call from any goroutine
// except from within an OnPlayerCalibrationChanged observer.
func (s *Session) GetBodyCalibration() calibration.BodyCalibration {
	return s.calibration.Get()
}

// StartCalibration starts, or restarts, a calibration window lasting durationTicks main steps.
func (s *Session) StartCalibration(durationTicks int) {
	s.calibration.Start(durationTicks)
}

// CancelCalibration abandons a running calibration without committing it.
func (s *Session) CancelCalibration() {
	s.calibration.Cancel()
}

// IsCalibrating reports whether a calibration window is running.
func (s *Session) IsCalibrating() bool {
	return s.calibration.IsCalibrating()
}

// ResetPlayerFloor re-centres the player on the headset's current position.
func (s *Session) ResetPlayerFloor() {
	head := s.registry.Headset().Pose()
	s.floor.Reset(head.DeviceToAbsolute, s.settings.UseHeadRotationForCharacter.Get())
}

// OnPlayerCalibrationChanged subscribes to committed calibrations. Observers must not call
// GetBodyCalibration; they may start or cancel a calibration.
func (s *Session) OnPlayerCalibrationChanged(fn func(calibration.BodyCalibration)) (unsubscribe func()) {
	return s.calibration.OnChanged(fn)
}

// OnPlayerFloorChanged subscribes to floor resets.
func (s *Session) OnPlayerFloorChanged(fn func(floor.ReferenceFrames)) (unsubscribe func()) {
	return s.floor.OnChanged(fn)
}

// Headset returns the headset.
func (s *Session) Headset() *device.Headset {
	return s.registry.Headset()
}

// Hands returns both hand controllers.
func (s *Session) Hands() handed.Handed[*device.Controller] {
	return s.registry.Hands()
}

// PrimaryHand returns the controller in the player's dominant hand.
func (s *Session) PrimaryHand() *device.Controller {
	return s.registry.Hands().Primary(s.settings.Handedness.Get())
}

// Devices returns every tracked device, including generic trackers found while running.
func (s *Session) Devices() []*device.TrackedDevice {
	return s.registry.Devices()
}

// Frames returns the current floor reference frames.
func (s *Session) Frames() floor.ReferenceFrames {
	return s.floor.Frames()
}

// RenderPlayerToAbsolute is the player frame as last seen by the render loop. Render loop only.
func (s *Session) RenderPlayerToAbsolute() spatialmath.RigidTransform {
	return s.floor.RenderPlayerToAbsolute()
}

// PlayerToCharacter scales the player's space onto a character of the given size with the
// selected scaling mode.
func (s *Session) PlayerToCharacter(character calibration.BodyCalibration) spatialmath.RigidTransform {
	return s.settings.ScalingMode().Scale(s.GetBodyCalibration(), character)
}

// HandToCharacter returns the aimed hand relative to the neutral head, in character space.
// Scaling leaves the basis non-orthonormal, so the rotation is re-orthogonalized.
func (s *Session) HandToCharacter(lr handed.LeftRight, playerToCharacter spatialmath.RigidTransform) spatialmath.RigidTransform {
	hand := s.registry.Hands().Get(lr).Pose().DeviceToAbsolute
	aimed := spatialmath.Compose(hand, s.AimOffset(lr))
	return spatialmath.Orthogonalize(spatialmath.Compose(
		playerToCharacter,
		spatialmath.Between(s.floor.NeutralHeadToAbsolute(), aimed),
	))
}

// AimOffset rotates a controller's pose to where the hand points: yaw about up, then pitch about
// right. The yaw is mirrored for the left hand.
func (s *Session) AimOffset(lr handed.LeftRight) spatialmath.RigidTransform {
	yaw := s.settings.HandAimYaw.Get().Radians()
	if lr == handed.Left {
		yaw = -yaw
	}
	pitch := s.settings.HandAimPitch.Get().Radians()
	return spatialmath.Compose(
		spatialmath.NewPoseFromAxisAngle(spatialmath.R4AA{Theta: yaw, RY: 1}, r3.Vector{}),
		spatialmath.NewPoseFromAxisAngle(spatialmath.R4AA{Theta: pitch, RX: 1}, r3.Vector{}),
	)
}
