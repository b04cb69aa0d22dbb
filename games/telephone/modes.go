/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import "math"

type ImageQuality string

const (
	QualityFast     ImageQuality = "fast"
	QualityStandard ImageQuality = "standard"
	QualityHigh     ImageQuality = "high"
)

// InferenceSteps maps a quality tier to the number of diffusion steps requested
// from the image provider.
func (q ImageQuality) InferenceSteps() int {
	switch q {
	case QualityFast:
		return 2
	case QualityHigh:
		return 8
	default:
		return 4
	}
}

type Mode struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	WordLimitMultiplier float64      `json:"-"`
	TurnTimerEnabled    bool         `json:"turn_timer_enabled"`
	TurnTimerSeconds    int          `json:"turn_timer_seconds"`
	ImageQuality        ImageQuality `json:"image_quality"`
}

const DefaultModeID = "classic"

var modes = map[string]Mode{
	"classic": {
		ID:                  "classic",
		Name:                "Classic",
		Description:         "Half word limit - be concise!",
		WordLimitMultiplier: 0.5,
		ImageQuality:        QualityStandard,
	},
	"relaxed": {
		ID:                  "relaxed",
		Name:                "Relaxed",
		Description:         "Word limit matches prompt length",
		WordLimitMultiplier: 1,
		ImageQuality:        QualityStandard,
	},
	"blitz": {
		ID:                  "blitz",
		Name:                "Blitz",
		Description:         "Half word limit and thirty seconds on the clock",
		WordLimitMultiplier: 0.5,
		TurnTimerEnabled:    true,
		TurnTimerSeconds:    30,
		ImageQuality:        QualityFast,
	},
	"verbose": {
		ID:                  "verbose",
		Name:                "Verbose",
		Description:         "No word limit at all",
		WordLimitMultiplier: math.Inf(1),
		ImageQuality:        QualityHigh,
	},
}

// GetMode resolves a mode id, falling back to classic for anything unknown.
func GetMode(id string) Mode {
	if m, ok := modes[id]; ok {
		return m
	}

	return modes[DefaultModeID]
}

// Modes lists every mode in a stable order, for settings pickers.
func Modes() []Mode {
	return []Mode{modes["classic"], modes["relaxed"], modes["blitz"], modes["verbose"]}
}
