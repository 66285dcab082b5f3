// Package fake implements a scripted input source.
package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/vrpose/vrpose/input"
)

// Source is an input.Source whose actions are set by the caller. Digital edges are derived like
// the runtime does: Changed is set on the first update after Press or Release.
type Source struct {
	mu         sync.Mutex
	pressed    map[string]bool
	reported   map[string]bool
	digital    map[string]input.DigitalState
	analog     map[string]input.AnalogState
	failing    map[string]error
	updateErr  error
	activeSets [][]string
}

// NewSource returns a source with every action released.
func NewSource() *Source {
	return &Source{
		pressed:  map[string]bool{},
		reported: map[string]bool{},
		digital:  map[string]input.DigitalState{},
		analog:   map[string]input.AnalogState{},
		failing:  map[string]error{},
	}
}

// Press holds a button down from the next update on.
func (s *Source) Press(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed[action] = true
}

// Release lets a button up from the next update on.
func (s *Source) Release(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed[action] = false
}

// SetAnalog sets an analog action's state.
func (s *Source) SetAnalog(action string, state input.AnalogState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analog[action] = state
}

// FailAction makes reads of one action fail with err until cleared with nil.
func (s *Source) FailAction(action string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failing, action)
		return
	}
	s.failing[action] = err
}

// FailUpdates makes UpdateActionState fail with err until cleared with nil.
func (s *Source) FailUpdates(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateErr = err
}

// ActiveSets returns the sets passed to each UpdateActionState call.
func (s *Source) ActiveSets() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.activeSets...)
}

// UpdateActionState latches pressed buttons into digital states.
func (s *Source) UpdateActionState(ctx context.Context, sets []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.activeSets = append(s.activeSets, append([]string(nil), sets...))

	for action, pressed := range s.pressed {
		s.digital[action] = input.DigitalState{
			Active:  true,
			State:   pressed,
			Changed: pressed != s.reported[action],
		}
		s.reported[action] = pressed
	}
	return nil
}

// DigitalAction returns the state latched by the last update.
func (s *Source) DigitalAction(ctx context.Context, action string) (input.DigitalState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failing[action]; ok {
		return input.DigitalState{}, err
	}
	return s.digital[action], nil
}

// AnalogAction returns the state set by SetAnalog.
func (s *Source) AnalogAction(ctx context.Context, action string) (input.AnalogState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failing[action]; ok {
		return input.AnalogState{}, errors.Wrap(err, "analog action")
	}
	return s.analog[action], nil
}
