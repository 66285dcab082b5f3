// Package config holds the player's persisted settings and reads, saves and watches the settings
// file.
package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/pkg/errors"

	"github.com/vrpose/vrpose/calibration"
	"github.com/vrpose/vrpose/handed"
	"github.com/vrpose/vrpose/logging"
	"github.com/vrpose/vrpose/spatialmath"
	"github.com/vrpose/vrpose/utils"
)

// SaveDelay is how long SaveLater waits for further changes before writing the file.
const SaveDelay = 500 * time.Millisecond

const logKey = "log"

// Settings are the player's settings. Every value notifies its observers when set, and setting a
// value through its Set method schedules a save of the whole file.
type Settings struct {
	EnableKeyboardAndMouse      *Value[bool]
	EnableCharacterRendering    *Value[bool]
	UseHeadRotationForCharacter *Value[bool]
	BodyScalingMode             *Range[int]
	PlayerHeight                *Slider[float64]
	PlayerArmSpan               *Slider[float64]
	ResolutionScale             *Slider[float64]
	HandActivationPitch         *Slider[spatialmath.Angle]
	HandActivationYaw           *Slider[spatialmath.Angle]
	HandAimPitch                *Slider[spatialmath.Angle]
	HandAimYaw                  *Slider[spatialmath.Angle]
	UIDepth                     *Slider[float64]
	UIWidth                     *Slider[float64]
	Handedness                  *Value[handed.LeftRight]
	Debug                       *Value[bool]

	path   string
	logger logging.Logger
	all    []setting

	logMu sync.Mutex
	log   []logging.LoggerPatternConfig

	saveLater func(func())
}

// NewSettings returns default settings saved to path.
func NewSettings(path string, logger logging.Logger) *Settings {
	meters := func(m float64) string { return fmt.Sprintf("%.2f m", m) }
	percent := func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) }
	angle := func(key string, def float64, tooltip string) *Slider[spatialmath.Angle] {
		return NewSlider(key, spatialmath.Degrees(def), spatialmath.Degrees(-180), spatialmath.Degrees(180),
			spatialmath.Degrees(1), tooltip)
	}

	s := &Settings{
		EnableKeyboardAndMouse: NewValue("enable_keyboard_and_mouse", true,
			"Keep keyboard and mouse input enabled while playing in VR."),
		EnableCharacterRendering: NewValue("enable_character_rendering", true,
			"Draw the player character's body."),
		UseHeadRotationForCharacter: NewValue("use_head_rotation_for_character", true,
			"Turn the character with the headset when the floor is reset."),
		BodyScalingMode: NewRange("body_scaling_mode", calibration.DefaultScalingMode, 0,
			len(calibration.ScalingModes)-1, "How the player's body is scaled onto the character."),
		PlayerHeight: NewSlider("player_height", 1.69, 0.1, 2.5, 0.01,
			"The player's height, measured by calibration."),
		PlayerArmSpan: NewSlider("player_arm_span", 1.66, 0.1, 2.5, 0.01,
			"The player's arm span, measured by calibration."),
		ResolutionScale: NewSlider("resolution_scale", 1.0, 0.1, 2.0, 0.05,
			"Render resolution relative to the headset's recommended resolution."),
		HandActivationPitch: angle("hand_activation_pitch", -90,
			"Pitch of the hand at which hand actions activate."),
		HandActivationYaw: angle("hand_activation_yaw", 0,
			"Yaw of the hand at which hand actions activate."),
		HandAimPitch: angle("hand_aim_pitch", -60,
			"Pitch offset applied to the hand when aiming."),
		HandAimYaw: angle("hand_aim_yaw", 0,
			"Yaw offset applied to the hand when aiming."),
		UIDepth: NewSlider("ui_depth", 0.5, 0.1, 10, 0.01,
			"Distance of the menu from the player."),
		UIWidth: NewSlider("ui_width", 2, 0.1, 2.5, 0.01,
			"Width of the menu."),
		Handedness: NewValue("handedness", handed.Right,
			"The player's dominant hand."),
		Debug: NewValue("debug", false,
			"Log debug messages."),

		path:      path,
		logger:    logger,
		saveLater: debounce.New(SaveDelay),
	}
	s.PlayerHeight.WithLabel(meters)
	s.PlayerArmSpan.WithLabel(meters)
	s.UIDepth.WithLabel(meters)
	s.UIWidth.WithLabel(meters)
	s.ResolutionScale.WithLabel(percent)
	s.BodyScalingMode.WithLabel(func(i int) string { return calibration.ScalingModeAt(i).Name })

	s.all = []setting{
		s.EnableKeyboardAndMouse,
		s.EnableCharacterRendering,
		s.UseHeadRotationForCharacter,
		s.BodyScalingMode,
		s.PlayerHeight,
		s.PlayerArmSpan,
		s.ResolutionScale,
		s.HandActivationPitch,
		s.HandActivationYaw,
		s.HandAimPitch,
		s.HandAimYaw,
		s.UIDepth,
		s.UIWidth,
		s.Handedness,
		s.Debug,
	}
	for _, st := range s.all {
		st.bind(s)
	}
	return s
}

// Path is the file the settings are saved to.
func (s *Settings) Path() string {
	return s.path
}

// LogPatterns returns the logger level patterns from the settings file.
func (s *Settings) LogPatterns() []logging.LoggerPatternConfig {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return append([]logging.LoggerPatternConfig(nil), s.log...)
}

// SetLogPatterns replaces the logger level patterns, applies them and schedules a save.
func (s *Settings) SetLogPatterns(patterns []logging.LoggerPatternConfig) error {
	s.logMu.Lock()
	s.log = append([]logging.LoggerPatternConfig(nil), patterns...)
	s.logMu.Unlock()
	s.SaveLater()
	return logging.UpdateLoggerPatterns(patterns, s.logger)
}

// SaveBodyCalibration stores a committed calibration. Non-positive quantities were not measured and
// are left alone.
func (s *Settings) SaveBodyCalibration(c calibration.BodyCalibration) {
	if c.Height > 0 {
		s.PlayerHeight.Set(c.Height)
	}
	if c.ArmSpan > 0 {
		s.PlayerArmSpan.Set(c.ArmSpan)
	}
}

// BodyCalibration returns the stored calibration.
func (s *Settings) BodyCalibration() calibration.BodyCalibration {
	return calibration.BodyCalibration{Height: s.PlayerHeight.Get(), ArmSpan: s.PlayerArmSpan.Get()}
}

// ScalingMode returns the selected body scaling mode.
func (s *Settings) ScalingMode() calibration.ScalingMode {
	return calibration.ScalingModeAt(s.BodyScalingMode.Get())
}

// Reset restores every default. It does not save.
func (s *Settings) Reset() {
	for _, st := range s.all {
		st.reset()
	}
	s.logMu.Lock()
	s.log = nil
	s.logMu.Unlock()
}

// SaveLater saves the settings once they have not changed for SaveDelay.
func (s *Settings) SaveLater() {
	s.saveLater(func() {
		if err := s.Save(); err != nil {
			s.logger.Errorw("failed to save settings", "path", s.path, "error", err)
		}
	})
}

// Flush drops any pending SaveLater and saves now.
func (s *Settings) Flush() error {
	s.saveLater(func() {})
	return s.Save()
}

// Save writes the settings file now.
func (s *Settings) Save() error {
	values, err := s.values()
	if err != nil {
		return err
	}
	md, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrap(utils.AtomicWriteFile(s.path, md, 0o600), "failed to save settings")
}

// MarshalJSON writes every setting as one flat object.
func (s *Settings) MarshalJSON() ([]byte, error) {
	values, err := s.values()
	if err != nil {
		return nil, err
	}
	return json.Marshal(values)
}

func (s *Settings) values() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(s.all)+1)
	for _, st := range s.all {
		data, err := st.marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "writing setting %q", st.Key())
		}
		out[st.Key()] = data
	}
	if patterns := s.LogPatterns(); len(patterns) > 0 {
		data, err := json.Marshal(patterns)
		if err != nil {
			return nil, err
		}
		out[logKey] = data
	}
	return out, nil
}

// load decodes a settings file and, only if all of it decodes, applies it. Settings missing from
// the file go back to their defaults.
func (s *Settings) load(buf []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		return errors.Wrap(err, "failed to decode settings from json")
	}
	if raw == nil {
		return errors.New("settings file does not hold an object")
	}

	var patterns []logging.LoggerPatternConfig
	if data, ok := raw[logKey]; ok {
		if err := json.Unmarshal(data, &patterns); err != nil {
			return errors.Wrap(err, "reading logger patterns")
		}
	}

	applies := make([]func(), 0, len(s.all))
	var adjusted []string
	for _, st := range s.all {
		data, ok := raw[st.Key()]
		if !ok {
			applies = append(applies, st.reset)
			continue
		}
		apply, wasAdjusted, err := st.decode(data)
		if err != nil {
			return err
		}
		if wasAdjusted {
			adjusted = append(adjusted, st.Key())
		}
		applies = append(applies, apply)
	}

	for _, apply := range applies {
		apply()
	}
	s.logMu.Lock()
	s.log = patterns
	s.logMu.Unlock()

	if len(adjusted) > 0 {
		sort.Strings(adjusted)
		s.logger.Warnw("settings out of range were adjusted", "path", s.path, "settings", adjusted)
	}
	return nil
}

// applyLogging pushes the logging related settings to the logging package.
func (s *Settings) applyLogging() error {
	UpdateFileConfigDebug(s.Debug.Get())
	return logging.UpdateLoggerPatterns(s.LogPatterns(), s.logger)
}
