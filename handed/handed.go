// Package handed provides left/right paired values and the primary/secondary indirection
// driven by the player's handedness.
package handed

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// LeftRight names one side of the body.
type LeftRight int

// The two sides.
const (
	Left LeftRight = iota
	Right
)

// Invert returns the other side.
func (lr LeftRight) Invert() LeftRight {
	if lr == Left {
		return Right
	}
	return Left
}

func (lr LeftRight) String() string {
	if lr == Left {
		return "left"
	}
	return "right"
}

// ParseLeftRight parses "left" or "right", case insensitively.
func ParseLeftRight(s string) (LeftRight, error) {
	switch strings.ToLower(s) {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Right, errors.Errorf("%q is not a valid side, expected left or right", s)
	}
}

// MarshalJSON writes the side as a string.
func (lr LeftRight) MarshalJSON() ([]byte, error) {
	return json.Marshal(lr.String())
}

// UnmarshalJSON reads a side written by MarshalJSON.
func (lr *LeftRight) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLeftRight(s)
	if err != nil {
		return err
	}
	*lr = parsed
	return nil
}

// Handed holds one value per side. Anything other than Left resolves to Right, so a lookup always
// yields exactly one of the two slots.
type Handed[T any] struct {
	Left  T
	Right T
}

// New pairs a left and a right value.
func New[T any](left, right T) Handed[T] {
	return Handed[T]{Left: left, Right: right}
}

// Get returns the value for a side.
func (h Handed[T]) Get(lr LeftRight) T {
	if lr == Left {
		return h.Left
	}
	return h.Right
}

// Set replaces the value for a side.
func (h *Handed[T]) Set(lr LeftRight, v T) {
	if lr == Left {
		h.Left = v
		return
	}
	h.Right = v
}

// Primary returns the value on the player's dominant side.
func (h Handed[T]) Primary(handedness LeftRight) T {
	return h.Get(handedness)
}

// Secondary returns the value on the player's off side.
func (h Handed[T]) Secondary(handedness LeftRight) T {
	return h.Get(handedness.Invert())
}

// Each calls f on the left value then the right value.
func (h Handed[T]) Each(f func(lr LeftRight, v T)) {
	f(Left, h.Left)
	f(Right, h.Right)
}

// Map builds a new pair by applying f to each side.
func Map[T, R any](h Handed[T], f func(T) R) Handed[R] {
	return Handed[R]{Left: f(h.Left), Right: f(h.Right)}
}
