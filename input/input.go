// Package input reads named actions from the VR runtime's input system once per simulation tick
// and turns them into edges, analog values and events.
package input

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
)

// Source is the runtime's action based input system. Actions are named by path, e.g.
// "/actions/common/in/Calibrate", and grouped into action sets, e.g. "/actions/common".
type Source interface {
	// UpdateActionState activates the given action sets and refreshes every action in them.
	UpdateActionState(ctx context.Context, sets []string) error
	DigitalAction(ctx context.Context, action string) (DigitalState, error)
	AnalogAction(ctx context.Context, action string) (AnalogState, error)
}

// DigitalState is the state of a button action since the last UpdateActionState. Changed is set
// when State differs from the previous update.
type DigitalState struct {
	Active  bool
	State   bool
	Changed bool
}

// AnalogState is the state of an analog action. Unused axes are zero.
type AnalogState struct {
	Active   bool
	Position r3.Vector
	Delta    r3.Vector
}

// Control is anything an ActionSet refreshes each tick.
type Control interface {
	Name() string
	Update(ctx context.Context) error
}

// Positional is a control reporting a position and its change since the previous tick.
type Positional interface {
	Control
	Position() r3.Vector
	Delta() r3.Vector
}

// EventType is the kind of change an Event reports.
type EventType uint8

// Event types. All matches every type when registering a callback.
const (
	All EventType = iota
	ButtonDown
	ButtonUp
	ButtonChange
	PositionChangeAbs
	PositionChangeRel
)

func (et EventType) String() string {
	switch et {
	case All:
		return "All"
	case ButtonDown:
		return "ButtonDown"
	case ButtonUp:
		return "ButtonUp"
	case ButtonChange:
		return "ButtonChange"
	case PositionChangeAbs:
		return "PositionChangeAbs"
	case PositionChangeRel:
		return "PositionChangeRel"
	}
	return "Unknown"
}

// Event is passed to registered callbacks.
type Event struct {
	Time     time.Time
	Event    EventType
	Control  string
	Pressed  bool
	Position r3.Vector
	Delta    r3.Vector
}

// ControlFunction is called for each event a control produces.
type ControlFunction func(ctx context.Context, event Event)
