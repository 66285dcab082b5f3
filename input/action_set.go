package input

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Action set paths.
const (
	SetCommon  = "/actions/common"
	SetWalking = "/actions/walking"
	SetFlying  = "/actions/flying"
)

type registration struct {
	trigger EventType
	fn      ControlFunction
}

// ActionSet is a group of controls refreshed together. Update activates the sets with the
// runtime, refreshes every control in the order added and dispatches events to callbacks.
type ActionSet struct {
	source Source
	clk    clock.Clock
	sets   []string

	controls  []Control
	byName    map[string]Control
	callbacks map[string][]registration
	last      map[string]r3.Vector
}

// NewActionSet returns an empty group activating the given sets.
func NewActionSet(source Source, sets ...string) *ActionSet {
	return &ActionSet{
		source:    source,
		clk:       clock.New(),
		sets:      sets,
		byName:    map[string]Control{},
		callbacks: map[string][]registration{},
		last:      map[string]r3.Vector{},
	}
}

// Add appends controls. A control already in the group is ignored.
func (as *ActionSet) Add(controls ...Control) *ActionSet {
	for _, c := range controls {
		if _, ok := as.byName[c.Name()]; ok {
			continue
		}
		as.byName[c.Name()] = c
		as.controls = append(as.controls, c)
	}
	return as
}

// Controls returns the controls in update order.
func (as *ActionSet) Controls() []Control {
	return as.controls
}

// Sets returns the action set paths activated by Update.
func (as *ActionSet) Sets() []string {
	return as.sets
}

// RegisterControl calls fn for every event of type trigger the named control produces.
func (as *ActionSet) RegisterControl(control string, fn ControlFunction, trigger EventType) error {
	if _, ok := as.byName[control]; !ok {
		return errors.Errorf("no control %q in action set %v", control, as.sets)
	}
	as.callbacks[control] = append(as.callbacks[control], registration{trigger, fn})
	return nil
}

// Update refreshes the group. A control failing to update does not stop the others; all errors are
// returned together.
func (as *ActionSet) Update(ctx context.Context) error {
	if err := as.source.UpdateActionState(ctx, as.sets); err != nil {
		return errors.Wrapf(err, "activating %v", as.sets)
	}

	var errs error
	now := as.clk.Now()
	for _, c := range as.controls {
		if err := c.Update(ctx); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		as.dispatch(ctx, now, c)
	}
	return errs
}

func (as *ActionSet) dispatch(ctx context.Context, now time.Time, c Control) {
	callbacks := as.callbacks[c.Name()]
	if len(callbacks) == 0 {
		return
	}

	var events []Event
	switch ctrl := c.(type) {
	case *Button:
		if ctrl.HasChanged() {
			ev := Event{Time: now, Event: ButtonUp, Control: c.Name(), Pressed: ctrl.IsPressed()}
			if ctrl.HasPressed() {
				ev.Event = ButtonDown
			}
			events = append(events, ev)
		}
	case Positional:
		pos, delta := ctrl.Position(), ctrl.Delta()
		if pos != as.last[c.Name()] {
			as.last[c.Name()] = pos
			events = append(events, Event{Time: now, Event: PositionChangeAbs, Control: c.Name(), Position: pos, Delta: delta})
		}
		if delta != (r3.Vector{}) {
			events = append(events, Event{Time: now, Event: PositionChangeRel, Control: c.Name(), Position: pos, Delta: delta})
		}
	}

	for _, ev := range events {
		for _, reg := range callbacks {
			if matches(reg.trigger, ev.Event) {
				reg.fn(ctx, ev)
			}
		}
	}
}

func matches(trigger, event EventType) bool {
	switch trigger {
	case All:
		return true
	case ButtonChange:
		return event == ButtonDown || event == ButtonUp
	default:
		return trigger == event
	}
}
