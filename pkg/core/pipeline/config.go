package pipeline

import (
	"time"

	"github.com/switchcast/switchcast/pkg/core/audio"
	"github.com/switchcast/switchcast/pkg/core/endpoint"
	"github.com/switchcast/switchcast/pkg/core/race"
)

// State is the orchestrator's position in a dispatch cycle.
type State int

const (
	// StateWaitForWake feeds frames through the wake detector.
	StateWaitForWake State = iota
	// StateCaptureUtterance runs the endpointer to completion.
	StateCaptureUtterance
	// StateTranscribe converts the utterance to text.
	StateTranscribe
	// StateSearch retrieves candidate streams for the text.
	StateSearch
	// StateRaceLiveness races candidate liveness probes.
	StateRaceLiveness
	// StateDispatch hands the winning URL to the player.
	StateDispatch
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateWaitForWake:
		return "WAIT_FOR_WAKE"
	case StateCaptureUtterance:
		return "CAPTURE_UTTERANCE"
	case StateTranscribe:
		return "TRANSCRIBE"
	case StateSearch:
		return "SEARCH"
	case StateRaceLiveness:
		return "RACE_LIVENESS"
	case StateDispatch:
		return "DISPATCH"
	default:
		return "UNKNOWN"
	}
}

// Config holds orchestrator tuning.
type Config struct {
	// Audio is the capture format shared by all frame consumers.
	Audio audio.Config

	// Endpoint configures the utterance recorder.
	Endpoint endpoint.Config

	// Race configures the liveness race.
	Race race.Config

	// CaptureTimeout bounds one utterance-capture pass. If no speech ever
	// arrives within it, the cycle short-circuits back to the wake loop.
	CaptureTimeout time.Duration
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Audio:          audio.DefaultConfig(),
		Endpoint:       endpoint.DefaultConfig(),
		Race:           race.DefaultConfig(),
		CaptureTimeout: 15 * time.Second,
	}
}
