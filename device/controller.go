package device

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/vrpose/vrpose/handed"
	"github.com/vrpose/vrpose/utils"
)

// Button is a set of controller button flags, indexed by the runtime's button ids.
type Button uint64

// Controller buttons. B shares its bit with ApplicationMenu, which is where index-style
// controllers report it.
const (
	ButtonSystem          Button = 1 << 0
	ButtonApplicationMenu Button = 1 << 1
	ButtonGrip            Button = 1 << 2
	ButtonDPadDown        Button = 1 << 6
	ButtonA               Button = 1 << 7
	ButtonTouchpad        Button = 1 << 32
	ButtonTrigger         Button = 1 << 33
	ButtonB                      = ButtonApplicationMenu
)

const (
	// RollingVelocityFrames is the number of ticks averaged by RollingVelocity.
	RollingVelocityFrames = 10
	// DefaultHapticPulse is the pulse length used when none is given.
	DefaultHapticPulse = 500 * time.Microsecond
)

// Controller is a hand controller. It has no fixed slot; the registry assigns one from the
// runtime's hand roles every frame.
type Controller struct {
	*TrackedDevice
	hand handed.LeftRight
	rt   Runtime

	velocities      *utils.RollingAverage[r3.Vector]
	rollingVelocity r3.Vector
}

// NewController returns the controller for one hand.
func NewController(rt Runtime, hand handed.LeftRight) *Controller {
	c := &Controller{
		TrackedDevice: newTrackedDevice(hand.String()+" hand", ClassController, InvalidID),
		hand:          hand,
		rt:            rt,
		velocities:    utils.NewRollingAverage[r3.Vector](RollingVelocityFrames),
	}
	c.onMainUpdate = c.updateVelocity
	return c
}

// Hand is the hand the controller is held in.
func (c *Controller) Hand() handed.LeftRight {
	return c.hand
}

// RollingVelocity is the mean velocity over the last RollingVelocityFrames simulation ticks.
func (c *Controller) RollingVelocity() r3.Vector {
	return c.rollingVelocity
}

func (c *Controller) updateVelocity() {
	c.velocities.Add(c.pose.Velocity)
	c.rollingVelocity = c.velocities.Average()
}

// TriggerHapticPulse vibrates the controller. A zero duration uses DefaultHapticPulse and a zero
// button uses the touchpad.
func (c *Controller) TriggerHapticPulse(duration time.Duration, button Button) error {
	id := c.ID()
	if !id.Valid() {
		return errors.Errorf("%s controller is not connected", c.hand)
	}
	if duration == 0 {
		duration = DefaultHapticPulse
	}
	if button == 0 {
		button = ButtonTouchpad
	}
	return errors.Wrapf(c.rt.TriggerHapticPulse(id, button, duration), "haptic pulse on %s", c.name)
}
