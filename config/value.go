package config

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/vrpose/vrpose/event"
)

// Number is any setting type that can be snapped to a step.
type Number interface {
	~int | ~int64 | ~float32 | ~float64
}

// saver persists the settings file some time after a value changes.
type saver interface {
	SaveLater()
}

// setting is the untyped view of a value used to read and write the settings file.
type setting interface {
	Key() string
	marshal() (json.RawMessage, error)
	// decode checks data without storing it. apply stores the decoded value; adjusted reports that
	// it had to be clamped or snapped.
	decode(data json.RawMessage) (apply func(), adjusted bool, err error)
	reset()
	bind(s saver)
}

// Value is a single persisted setting. Setting it notifies observers and schedules a save.
type Value[T comparable] struct {
	key     string
	Tooltip string

	mu        sync.RWMutex
	value     T
	def       T
	label     func(T) string
	normalize func(T) T
	changed   event.Event[T]
	saver     saver
}

// NewValue makes a setting stored under key with a default value.
func NewValue[T comparable](key string, def T, tooltip string) *Value[T] {
	return &Value[T]{
		key:     key,
		Tooltip: tooltip,
		value:   def,
		def:     def,
	}
}

// Key is the name of the setting in the settings file.
func (v *Value[T]) Key() string {
	return v.key
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Default returns the value used when nothing is stored.
func (v *Value[T]) Default() T {
	return v.def
}

// Set stores x, normalized for the kind of setting, and schedules a save if it changed.
func (v *Value[T]) Set(x T) {
	if v.set(x) && v.saver != nil {
		v.saver.SaveLater()
	}
}

// set stores x without saving and reports whether the value changed. Observers are called after
// the lock is released so they may read the value back.
func (v *Value[T]) set(x T) bool {
	if v.normalize != nil {
		x = v.normalize(x)
	}
	v.mu.Lock()
	if v.value == x {
		v.mu.Unlock()
		return false
	}
	v.value = x
	v.mu.Unlock()
	v.changed.Fire(x)
	return true
}

func (v *Value[T]) reset() {
	v.set(v.def)
}

func (v *Value[T]) bind(s saver) {
	v.saver = s
}

// OnChanged subscribes to changes of the value.
func (v *Value[T]) OnChanged(fn func(T)) (unsubscribe func()) {
	return v.changed.Subscribe(fn)
}

// WithLabel sets the function used to describe the value to the player.
func (v *Value[T]) WithLabel(label func(T) string) *Value[T] {
	v.label = label
	return v
}

// Label describes the current value.
func (v *Value[T]) Label() string {
	x := v.Get()
	if v.label == nil {
		return fmt.Sprint(x)
	}
	return v.label(x)
}

func (v *Value[T]) marshal() (json.RawMessage, error) {
	return json.Marshal(v.Get())
}

func (v *Value[T]) decode(data json.RawMessage) (func(), bool, error) {
	var x T
	if err := json.Unmarshal(data, &x); err != nil {
		return nil, false, errors.Wrapf(err, "reading setting %q", v.key)
	}
	adjusted := v.normalize != nil && v.normalize(x) != x
	return func() { v.set(x) }, adjusted, nil
}

// Range is a setting kept between a minimum and a maximum.
type Range[T cmp.Ordered] struct {
	*Value[T]
	Min T
	Max T
}

// NewRange makes a setting clamped to [minimum, maximum].
func NewRange[T cmp.Ordered](key string, def, minimum, maximum T, tooltip string) *Range[T] {
	r := &Range[T]{Value: NewValue(key, def, tooltip), Min: minimum, Max: maximum}
	r.normalize = func(x T) T {
		return lo.Clamp(x, r.Min, r.Max)
	}
	r.value = r.normalize(def)
	r.def = r.value
	return r
}

// InRange reports whether x is stored unchanged by Set.
func (r *Range[T]) InRange(x T) bool {
	return x >= r.Min && x <= r.Max
}

// Slider is a range whose values snap to multiples of Snap above Min.
type Slider[T Number] struct {
	*Range[T]
	Snap T
}

// NewSlider makes a range that also snaps values to a step. A non-positive snap disables snapping.
func NewSlider[T Number](key string, def, minimum, maximum, snap T, tooltip string) *Slider[T] {
	s := &Slider[T]{Range: NewRange(key, def, minimum, maximum, tooltip), Snap: snap}
	s.normalize = func(x T) T {
		return lo.Clamp(snapTo(x, s.Min, s.Snap), s.Min, s.Max)
	}
	return s
}

func snapTo[T Number](x, origin, step T) T {
	if step <= 0 {
		return x
	}
	steps := math.Round(float64(x-origin) / float64(step))
	snapped := origin + T(steps*float64(step))
	// already on a step, up to rounding
	if math.Abs(float64(snapped-x)) < float64(step)*1e-6 {
		return x
	}
	return snapped
}
