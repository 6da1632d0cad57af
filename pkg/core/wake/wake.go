// Package wake implements wake-word detection over the capture frame stream.
//
// The detector is a pure reducer: it buffers nothing, scores each frame
// through the trigger-model collaborator, and returns trigger events for
// models whose score clears the threshold outside their cooldown window.
package wake

import (
	"sort"
	"time"

	"github.com/switchcast/switchcast/pkg/core"
	"github.com/switchcast/switchcast/pkg/core/audio"
)

const (
	// DefaultThreshold is the minimum score for a positive detection.
	DefaultThreshold = 0.5

	// DefaultCooldown is the minimum interval between successive triggers
	// of the same model.
	DefaultCooldown = 2 * time.Second
)

// Scorer is the trigger-model collaborator. It maps each frame to per-model
// confidence scores in [0, 1].
type Scorer interface {
	Score(frame audio.Frame) (map[string]float64, error)
}

// Model configures one wake-word model.
type Model struct {
	ID        string
	Threshold float64
	Cooldown  time.Duration
}

// TriggerEvent is emitted when a model fires outside its cooldown window.
type TriggerEvent struct {
	Model string
	Score float64
	At    time.Time
}

// Detector scores frames and applies per-model cooldowns. It is not safe for
// concurrent use; the capture loop is its only caller.
type Detector struct {
	scorer      Scorer
	models      map[string]Model
	lastTrigger map[string]time.Time
	now         func() time.Time
}

// NewDetector creates a detector for the given models. It fails fast with a
// no_models_configured error rather than idling silently on an empty set.
func NewDetector(scorer Scorer, models []Model) (*Detector, error) {
	if len(models) == 0 {
		return nil, core.NewNoModelsConfiguredError("wake detector requires at least one model")
	}

	byID := make(map[string]Model, len(models))
	for _, m := range models {
		if m.Threshold <= 0 {
			m.Threshold = DefaultThreshold
		}
		if m.Cooldown <= 0 {
			m.Cooldown = DefaultCooldown
		}
		byID[m.ID] = m
	}

	return &Detector{
		scorer:      scorer,
		models:      byID,
		lastTrigger: make(map[string]time.Time, len(byID)),
		now:         time.Now,
	}, nil
}

// Process scores one frame and returns the trigger events it produced.
// Usually zero or one, but multiple models may fire on the same frame.
// Scoring failures are swallowed: a frame that cannot be scored is a frame
// with no detections.
func (d *Detector) Process(frame audio.Frame) []TriggerEvent {
	scores, err := d.scorer.Score(frame)
	if err != nil {
		return nil
	}

	var events []TriggerEvent
	now := d.now()

	for id, score := range scores {
		model, ok := d.models[id]
		if !ok || score <= model.Threshold {
			continue
		}

		if last, fired := d.lastTrigger[id]; fired && now.Sub(last) <= model.Cooldown {
			continue // still within cooldown, suppress
		}

		d.lastTrigger[id] = now
		events = append(events, TriggerEvent{Model: id, Score: score, At: now})
	}

	// Map iteration order is random; keep multi-model output stable.
	sort.Slice(events, func(i, j int) bool { return events[i].Model < events[j].Model })
	return events
}

// Models returns the configured model IDs in sorted order.
func (d *Detector) Models() []string {
	ids := make([]string, 0, len(d.models))
	for id := range d.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
