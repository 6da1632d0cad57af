// Package endpoint implements voice-activity-gated utterance recording.
//
// The Endpointer is a three-state machine: it discards frames until the VAD
// collaborator classifies one as speech, records everything from that frame
// on, and finishes once trailing silence has lasted the configured timeout.
package endpoint

import (
	"context"
	"time"

	"github.com/switchcast/switchcast/pkg/core"
	"github.com/switchcast/switchcast/pkg/core/audio"
)

// State is the endpointer's position in the recording lifecycle.
type State int

const (
	// StateIdle discards frames while waiting for speech onset.
	StateIdle State = iota
	// StateRecording buffers every frame, speech or silence.
	StateRecording
	// StateDone is terminal: trailing silence exceeded the timeout.
	StateDone
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Classifier is the VAD collaborator. Classification failures are treated as
// "not speech" so a flaky VAD keeps the recorder listening instead of
// terminating it early.
type Classifier interface {
	IsSpeech(frame audio.Frame) (bool, error)
}

// Config holds endpointer tuning.
type Config struct {
	// SilenceTimeout is the trailing-silence duration that ends a recording.
	SilenceTimeout time.Duration
}

// DefaultConfig returns the standard 2 s trailing-silence timeout.
func DefaultConfig() Config {
	return Config{SilenceTimeout: 2 * time.Second}
}

// Utterance is the finite recording produced by one endpointing pass.
// Ownership transfers to the caller; the endpointer retains nothing.
type Utterance struct {
	// Samples spans speech onset through the trailing silence.
	Samples []float32
	// Frames is the number of frames recorded.
	Frames int
	// VoiceDetected is false when the pass ended without any speech. That
	// is a valid negative outcome, not an error.
	VoiceDetected bool
}

// Duration returns the utterance length at the given sample rate.
func (u Utterance) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(len(u.Samples)) * time.Second / time.Duration(sampleRate)
}

// Endpointer records a single utterance from a frame stream. Reset before
// reuse. Not safe for concurrent use.
type Endpointer struct {
	cfg        Config
	audioCfg   audio.Config
	classifier Classifier

	state        State
	samples      []float32
	frames       int
	silentFrames int
}

// New creates an endpointer for the given capture format.
func New(cfg Config, audioCfg audio.Config, classifier Classifier) *Endpointer {
	if cfg.SilenceTimeout <= 0 {
		cfg.SilenceTimeout = DefaultConfig().SilenceTimeout
	}
	return &Endpointer{
		cfg:        cfg,
		audioCfg:   audioCfg,
		classifier: classifier,
	}
}

// State returns the current machine state.
func (e *Endpointer) State() State {
	return e.state
}

// Process advances the state machine by one frame and returns the new state.
// Pre-speech silence never counts toward the timeout; any speech frame while
// recording resets the silence run to zero.
func (e *Endpointer) Process(frame audio.Frame) State {
	if e.state == StateDone {
		return e.state
	}

	speech, err := e.classifier.IsSpeech(frame)
	if err != nil {
		speech = false // fail open toward continued listening
	}

	switch e.state {
	case StateIdle:
		if speech {
			e.state = StateRecording
			e.appendFrame(frame)
		}
	case StateRecording:
		e.appendFrame(frame)
		if speech {
			e.silentFrames = 0
		} else {
			e.silentFrames++
			frameMs := e.audioCfg.FrameDuration().Milliseconds()
			if int64(e.silentFrames)*frameMs >= e.cfg.SilenceTimeout.Milliseconds() {
				e.state = StateDone
			}
		}
	}
	return e.state
}

func (e *Endpointer) appendFrame(frame audio.Frame) {
	e.samples = append(e.samples, frame.Samples...)
	e.frames++
}

// Result returns the utterance accumulated so far. VoiceDetected is true only
// once the machine has reached StateDone; a pass cut off by an external
// deadline reports no usable voice.
func (e *Endpointer) Result() Utterance {
	if e.state != StateDone {
		return Utterance{VoiceDetected: false}
	}
	return Utterance{
		Samples:       e.samples,
		Frames:        e.frames,
		VoiceDetected: true,
	}
}

// Reset clears all state for a new utterance.
func (e *Endpointer) Reset() {
	e.state = StateIdle
	e.samples = nil
	e.frames = 0
	e.silentFrames = 0
}

// Run drives the endpointer against a source until the utterance completes
// or ctx expires. Recoverable stream faults skip the frame; fatal source
// errors abort the pass.
func (e *Endpointer) Run(ctx context.Context, src audio.Source) (Utterance, error) {
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return e.Result(), nil
			}
			if core.IsType(err, core.ErrStreamFault) {
				continue
			}
			return Utterance{}, err
		}

		if e.Process(frame) == StateDone {
			return e.Result(), nil
		}
	}
}
