package endpoint

import (
	"github.com/switchcast/switchcast/pkg/core/audio"
)

// EnergyClassifier is a pure-Go VAD based on RMS energy with hysteresis:
// speech starts above the onset threshold and ends only after the level
// drops below the (lower) release threshold, which avoids flickering on
// breathy or trailing speech.
type EnergyClassifier struct {
	onsetThreshold   float64
	releaseThreshold float64
	inSpeech         bool
}

// NewEnergyClassifier creates a classifier with explicit thresholds.
func NewEnergyClassifier(onset, release float64) *EnergyClassifier {
	return &EnergyClassifier{
		onsetThreshold:   onset,
		releaseThreshold: release,
	}
}

// NewDefaultEnergyClassifier returns thresholds suitable for 16 kHz mic
// capture at normal speaking distance.
func NewDefaultEnergyClassifier() *EnergyClassifier {
	return NewEnergyClassifier(0.015, 0.008)
}

// IsSpeech classifies one frame. It never fails.
func (c *EnergyClassifier) IsSpeech(frame audio.Frame) (bool, error) {
	level := audio.RMSEnergy(frame.Samples)

	if c.inSpeech {
		if level < c.releaseThreshold {
			c.inSpeech = false
		}
	} else if level >= c.onsetThreshold {
		c.inSpeech = true
	}

	return c.inSpeech, nil
}

// Reset clears the hysteresis state.
func (c *EnergyClassifier) Reset() {
	c.inSpeech = false
}
