// Package pipeline composes the voice-triggered dispatch cycle: wait for a
// wake word, record the utterance that follows, transcribe it, search for
// candidate streams, race their liveness, and hand the winner to the player.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/switchcast/switchcast/pkg/core"
	"github.com/switchcast/switchcast/pkg/core/audio"
	"github.com/switchcast/switchcast/pkg/core/endpoint"
	"github.com/switchcast/switchcast/pkg/core/race"
	"github.com/switchcast/switchcast/pkg/core/wake"
)

// Transcriber converts a finite utterance to text. Empty text is a valid
// "no usable request" outcome.
type Transcriber interface {
	Transcribe(ctx context.Context, utt endpoint.Utterance) (string, error)
}

// Searcher retrieves ordered candidates for a spoken request. An empty list
// is a valid "no match" outcome.
type Searcher interface {
	Search(ctx context.Context, query string) ([]race.Candidate, error)
}

// Player receives the winning URL. Fire-and-forget from the pipeline's
// perspective: a playback failure ends the cycle, never the pipeline.
type Player interface {
	Play(ctx context.Context, url string) error
}

// Collaborators are the components a pipeline is built from.
type Collaborators struct {
	Source      audio.Source
	Detector    *wake.Detector
	Endpointer  *endpoint.Endpointer
	Transcriber Transcriber
	Searcher    Searcher
	Prober      race.Prober
	Player      Player
}

// Pipeline is the long-running orchestrator. One goroutine owns the audio
// read loop; transcription, search, and the race run on that same goroutine
// between reads, so no wake word can trigger while a cycle is mid-flight.
// Only the liveness race fans out internally.
type Pipeline struct {
	cfg   Config
	c     Collaborators
	racer *race.Race

	mu    sync.RWMutex
	state State

	events chan Event
}

// New validates the collaborators and creates a pipeline.
func New(cfg Config, c Collaborators) (*Pipeline, error) {
	switch {
	case c.Source == nil:
		return nil, errors.New("pipeline requires an audio source")
	case c.Detector == nil:
		return nil, errors.New("pipeline requires a wake detector")
	case c.Endpointer == nil:
		return nil, errors.New("pipeline requires an endpointer")
	case c.Transcriber == nil:
		return nil, errors.New("pipeline requires a transcriber")
	case c.Searcher == nil:
		return nil, errors.New("pipeline requires a searcher")
	case c.Prober == nil:
		return nil, errors.New("pipeline requires a liveness prober")
	case c.Player == nil:
		return nil, errors.New("pipeline requires a player")
	}

	return &Pipeline{
		cfg:    cfg,
		c:      c,
		racer:  race.New(cfg.Race, c.Prober),
		state:  StateWaitForWake,
		events: make(chan Event, 100),
	}, nil
}

// Events returns the pipeline event stream. The channel is closed when Run
// returns.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// State returns the current orchestrator state.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Run loops dispatch cycles until ctx is cancelled or the audio source fails
// fatally. Everything else resolves within one cycle.
func (p *Pipeline) Run(ctx context.Context) error {
	defer close(p.events)
	defer p.c.Source.Close()

	for {
		if err := p.runCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// runCycle drives one full cycle. A nil return means the cycle resolved
// (dispatched or short-circuited) and the loop goes back to the wake word.
func (p *Pipeline) runCycle(ctx context.Context) error {
	trigger, err := p.waitForWake(ctx)
	if err != nil {
		return err
	}
	p.emit(&WakeDetectedEvent{Model: trigger.Model, Score: trigger.Score})

	p.setState(StateCaptureUtterance)
	p.emit(&ListeningEvent{})

	utt, err := p.captureUtterance(ctx)
	if err != nil {
		return err
	}
	if !utt.VoiceDetected {
		p.emit(&NoSpeechEvent{})
		p.setState(StateWaitForWake)
		return nil
	}
	p.emit(&UtteranceCapturedEvent{
		DurationMs: utt.Duration(p.cfg.Audio.SampleRate).Milliseconds(),
		Frames:     utt.Frames,
	})

	p.setState(StateTranscribe)
	text, err := p.c.Transcriber.Transcribe(ctx, utt)
	if err != nil {
		p.cycleError(StateTranscribe, err)
		return nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		p.emit(&NoUsableRequestEvent{})
		p.setState(StateWaitForWake)
		return nil
	}
	p.emit(&TranscriptEvent{Text: text})

	p.setState(StateSearch)
	candidates, err := p.c.Searcher.Search(ctx, text)
	if err != nil {
		p.cycleError(StateSearch, err)
		return nil
	}
	if len(candidates) == 0 {
		p.emit(&NoMatchEvent{Query: text})
		p.setState(StateWaitForWake)
		return nil
	}
	p.emit(&SearchResultsEvent{Query: text, Count: len(candidates)})

	p.setState(StateRaceLiveness)
	p.emit(&RaceStartedEvent{Candidates: len(candidates)})
	result := p.racer.Run(ctx, candidates)
	if result.Outcome != race.OutcomeLiveFound {
		p.emit(&NoLiveCandidateEvent{Outcome: result.Outcome.String()})
		p.setState(StateWaitForWake)
		return nil
	}
	p.emit(&LiveFoundEvent{URL: result.URL})

	p.setState(StateDispatch)
	if err := p.c.Player.Play(ctx, result.URL); err != nil {
		p.cycleError(StateDispatch, err)
		return nil
	}
	p.emit(&DispatchedEvent{URL: result.URL})

	p.setState(StateWaitForWake)
	return nil
}

// waitForWake feeds frames through the detector until a model triggers.
// Stream faults skip the frame; fatal source errors abort the pipeline.
func (p *Pipeline) waitForWake(ctx context.Context) (wake.TriggerEvent, error) {
	p.setState(StateWaitForWake)

	for {
		frame, err := p.c.Source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return wake.TriggerEvent{}, ctx.Err()
			}
			if core.IsType(err, core.ErrStreamFault) {
				continue
			}
			return wake.TriggerEvent{}, err
		}

		if events := p.c.Detector.Process(frame); len(events) > 0 {
			return events[0], nil
		}
	}
}

// captureUtterance runs the endpointer with the capture deadline applied.
func (p *Pipeline) captureUtterance(ctx context.Context) (endpoint.Utterance, error) {
	capCtx := ctx
	if p.cfg.CaptureTimeout > 0 {
		var cancel context.CancelFunc
		capCtx, cancel = context.WithTimeout(ctx, p.cfg.CaptureTimeout)
		defer cancel()
	}

	p.c.Endpointer.Reset()
	return p.c.Endpointer.Run(capCtx, p.c.Source)
}

func (p *Pipeline) setState(next State) {
	p.mu.Lock()
	prev := p.state
	p.state = next
	p.mu.Unlock()

	if prev != next {
		p.emit(&StateChangedEvent{From: prev, To: next})
	}
}

// cycleError reports a non-fatal failure and returns the cycle to the wake
// loop.
func (p *Pipeline) cycleError(stage State, err error) {
	p.emit(&CycleErrorEvent{Stage: stage.String(), Message: err.Error()})
	p.setState(StateWaitForWake)
}

// emit delivers an event without ever blocking the capture loop; a slow
// consumer drops events rather than losing frames.
func (p *Pipeline) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
	}
}
