package domain

import "fmt"

// AudioSettings controls the raster sonification range.
type AudioSettings struct {
	MinFreq float64 `json:"min_freq"`
	MaxFreq float64 `json:"max_freq"`
	Volume  float64 `json:"volume"`
}

// DefaultAudioSettings matches the desktop application's defaults.
func DefaultAudioSettings() AudioSettings {
	return AudioSettings{MinFreq: 220, MaxFreq: 880, Volume: 1}
}

// Validate checks that the frequency range is usable.
func (a AudioSettings) Validate() error {
	if a.MinFreq <= 0 {
		return fmt.Errorf("min_freq must be positive, got %g", a.MinFreq)
	}
	if a.MinFreq >= a.MaxFreq {
		return fmt.Errorf("min_freq (%g) must be below max_freq (%g)", a.MinFreq, a.MaxFreq)
	}
	if a.Volume < 0 || a.Volume > 1 {
		return fmt.Errorf("volume must be within [0,1], got %g", a.Volume)
	}
	return nil
}
