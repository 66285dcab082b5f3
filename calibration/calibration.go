// Package calibration measures the player's height and arm span from tracked poses.
package calibration

import (
	"math"
	"sync"

	"go.uber.org/atomic"

	"github.com/vrpose/vrpose/device"
	"github.com/vrpose/vrpose/event"
	"github.com/vrpose/vrpose/handed"
	"github.com/vrpose/vrpose/logging"
)

// DefaultDurationTicks is five seconds of 60 Hz simulation ticks.
const DefaultDurationTicks = 60 * 5

// BodyCalibration is the real world size of the player, in meters. Height is measured to the
// headset, not to the top of the head.
type BodyCalibration struct {
	Height  float64 `json:"height"`
	ArmSpan float64 `json:"arm_span"`
}

// Store persists committed measurements.
type Store interface {
	SaveBodyCalibration(BodyCalibration)
}

// Protocol runs a calibration window. While calibrating, each Tick keeps the highest headset
// height and the widest hand span seen. When the window ends naturally the maxima are committed;
// a quantity that was never observed keeps its previous value. Cancel abandons the window.
//
// Start, Tick and Cancel may be called from any goroutine. Get takes a shared lock and never waits
// on anything but a commit.
type Protocol struct {
	logger logging.Logger
	store  Store

	ticksLeft atomic.Int64

	mu         sync.Mutex
	inProgress BodyCalibration

	publishedMu sync.RWMutex
	published   BodyCalibration
	changed     event.Event[BodyCalibration]
}

// NewProtocol returns an idle protocol publishing initial.
func NewProtocol(initial BodyCalibration, store Store, logger logging.Logger) *Protocol {
	return &Protocol{
		logger:    logger,
		store:     store,
		published: initial,
	}
}

// Get returns the published calibration.
func (p *Protocol) Get() BodyCalibration {
	p.publishedMu.RLock()
	defer p.publishedMu.RUnlock()
	return p.published
}

// OnChanged subscribes to commits. Observers run while the published value is locked for writing
// and must not call Get; the committed value is passed to them. They may call Start or Cancel.
func (p *Protocol) OnChanged(fn func(BodyCalibration)) (unsubscribe func()) {
	return p.changed.Subscribe(fn)
}

// IsCalibrating reports whether a window is running.
func (p *Protocol) IsCalibrating() bool {
	return p.ticksLeft.Load() > 0
}

// TicksLeft returns the number of ticks remaining in the window.
func (p *Protocol) TicksLeft() int {
	return int(p.ticksLeft.Load())
}

// Start begins a window of durationTicks ticks, restarting any window already running. A
// non-positive duration uses DefaultDurationTicks.
func (p *Protocol) Start(durationTicks int) {
	if durationTicks <= 0 {
		durationTicks = DefaultDurationTicks
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inProgress = BodyCalibration{}
	p.ticksLeft.Store(int64(durationTicks))
	p.logger.Infow("calibration started", "ticks", durationTicks)
}

// Cancel ends the window without committing.
func (p *Protocol) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticksLeft.Swap(0) > 0 {
		p.logger.Info("calibration cancelled")
	}
}

// Tick samples the poses and counts down the window. It returns true on the tick the window ends
// naturally, after the result has been committed.
func (p *Protocol) Tick(head device.Pose, hands handed.Handed[device.Pose]) bool {
	measured, finished := p.sample(head, hands)
	if finished {
		p.commit(measured)
	}
	return finished
}

// sample folds one tick of poses into the window and reports whether the window just ended,
// returning what it measured.
func (p *Protocol) sample(head device.Pose, hands handed.Handed[device.Pose]) (BodyCalibration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ticksLeft.Load() <= 0 {
		return BodyCalibration{}, false
	}

	if head.IsTracked {
		if height := head.DeviceToAbsolute.Translation().Y; height > p.inProgress.Height {
			p.inProgress.Height = height
		}
	}
	if hands.Left.IsTracked && hands.Right.IsTracked {
		if span := horizontalDistance(hands); span > p.inProgress.ArmSpan {
			p.inProgress.ArmSpan = span
		}
	}

	if p.ticksLeft.Dec() > 0 {
		return BodyCalibration{}, false
	}
	return p.inProgress, true
}

// commit merges every measured quantity into the published value. Observers run with the
// published value write-locked but with the window unlocked, so they may start or cancel one.
func (p *Protocol) commit(measured BodyCalibration) {
	if measured.Height <= 0 && measured.ArmSpan <= 0 {
		p.logger.Warn("calibration finished without tracking the headset or both hands, keeping previous values")
		return
	}

	p.publishedMu.Lock()
	defer p.publishedMu.Unlock()
	if measured.Height > 0 {
		p.published.Height = measured.Height
	} else {
		p.logger.Warn("headset was never tracked during calibration, keeping previous height")
	}
	if measured.ArmSpan > 0 {
		p.published.ArmSpan = measured.ArmSpan
	} else {
		p.logger.Warn("hands were never tracked together during calibration, keeping previous arm span")
	}
	p.logger.Infow("calibration committed", "height", p.published.Height, "arm_span", p.published.ArmSpan)

	if p.store != nil {
		p.store.SaveBodyCalibration(p.published)
	}
	p.changed.Fire(p.published)
}

// horizontalDistance is the distance between the hands ignoring height.
func horizontalDistance(hands handed.Handed[device.Pose]) float64 {
	l := hands.Left.DeviceToAbsolute.Translation()
	r := hands.Right.DeviceToAbsolute.Translation()
	return math.Hypot(l.X-r.X, l.Z-r.Z)
}
