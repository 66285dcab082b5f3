package calibration

import (
	"github.com/samber/lo"

	"github.com/vrpose/vrpose/spatialmath"
)

// ScalingMode maps the player's body onto the character's: Scale returns the transform from
// player space to character space.
type ScalingMode struct {
	Name    string
	Tooltip string
	Scale   func(player, character BodyCalibration) spatialmath.RigidTransform
}

// The scaling modes, indexed by the body scaling mode setting.
var (
	NoScaling = ScalingMode{
		Name: "None",
		Tooltip: "Does not scale the player. Shorter players may not be able to touch the in-game floor, " +
			"taller players may see their arms stretch.",
		Scale: func(_, _ BodyCalibration) spatialmath.RigidTransform {
			return spatialmath.Identity()
		},
	}
	HeightScaling = ScalingMode{
		Name: "Height",
		Tooltip: "Scales the player so the real world floor matches the in-game floor. Taller players may see " +
			"their arms stretch, shorter players may not reach as far.",
		Scale: func(player, character BodyCalibration) spatialmath.RigidTransform {
			return ratio(character.Height, player.Height)
		},
	}
	ArmSpanScaling = ScalingMode{
		Name: "Arm span",
		Tooltip: "Scales the player so their arm span matches the character's. Reach feels right but the " +
			"floor may not line up.",
		Scale: func(player, character BodyCalibration) spatialmath.RigidTransform {
			return ratio(character.ArmSpan, player.ArmSpan)
		},
	}

	ScalingModes = []ScalingMode{NoScaling, HeightScaling, ArmSpanScaling}
)

// DefaultScalingMode is the index of NoScaling.
const DefaultScalingMode = 0

// ScalingModeAt returns the mode at index i, clamped to the table.
func ScalingModeAt(i int) ScalingMode {
	return ScalingModes[lo.Clamp(i, 0, len(ScalingModes)-1)]
}

func ratio(character, player float64) spatialmath.RigidTransform {
	if player <= 0 || character <= 0 {
		return spatialmath.Identity()
	}
	return spatialmath.NewScale(character / player)
}
