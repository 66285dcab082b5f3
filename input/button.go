package input

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Button is a digital action.
type Button struct {
	name   string
	source Source
	state  DigitalState
}

// NewButton returns the button for an action path.
func NewButton(source Source, action string) *Button {
	return &Button{name: action, source: source}
}

// Name is the action path.
func (b *Button) Name() string {
	return b.name
}

// Update reads the action's state. On error the previous state is cleared of edges so a press is
// not reported twice.
func (b *Button) Update(ctx context.Context) error {
	state, err := b.source.DigitalAction(ctx, b.name)
	if err != nil {
		b.state.Changed = false
		return errors.Wrapf(err, "reading %s", b.name)
	}
	b.state = state
	return nil
}

// Active reports whether the action is bound and its set is active.
func (b *Button) Active() bool {
	return b.state.Active
}

// IsPressed reports whether the button is held.
func (b *Button) IsPressed() bool {
	return b.state.State
}

// HasChanged reports whether the button was pressed or released this tick.
func (b *Button) HasChanged() bool {
	return b.state.Changed
}

// HasPressed reports whether the button went down this tick.
func (b *Button) HasPressed() bool {
	return b.state.State && b.state.Changed
}

// HasReleased reports whether the button came up this tick.
func (b *Button) HasReleased() bool {
	return !b.state.State && b.state.Changed
}

// Analog is an analog action such as a thumbstick or trigger.
type Analog struct {
	name   string
	source Source
	state  AnalogState
}

// NewAnalog returns the analog control for an action path.
func NewAnalog(source Source, action string) *Analog {
	return &Analog{name: action, source: source}
}

// Name is the action path.
func (a *Analog) Name() string {
	return a.name
}

// Update reads the action's state, keeping the previous one on error.
func (a *Analog) Update(ctx context.Context) error {
	state, err := a.source.AnalogAction(ctx, a.name)
	if err != nil {
		return errors.Wrapf(err, "reading %s", a.name)
	}
	a.state = state
	return nil
}

// Active reports whether the action is bound and its set is active.
func (a *Analog) Active() bool {
	return a.state.Active
}

// Position is the current value.
func (a *Analog) Position() r3.Vector {
	return a.state.Position
}

// Delta is the change since the last update.
func (a *Analog) Delta() r3.Vector {
	return a.state.Delta
}
