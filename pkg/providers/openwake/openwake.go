// Package openwake scores frames against embedded micro wake-word models.
package openwake

import (
	"fmt"

	"github.com/pmdroid/microwakeword"

	"github.com/switchcast/switchcast/pkg/core"
	"github.com/switchcast/switchcast/pkg/core/audio"
)

// streamingModel is the subset of the wake-word model API the scorer needs.
type streamingModel interface {
	ProcessStreaming(audio []byte) (bool, error)
}

// Scorer implements wake.Scorer over one or more built-in models. Each model
// reports a binary hit per frame window, surfaced as a 0/1 confidence.
type Scorer struct {
	models map[string]streamingModel
}

// NewScorer loads the named built-in models.
func NewScorer(names []string) (*Scorer, error) {
	if len(names) == 0 {
		return nil, core.NewNoModelsConfiguredError("no wake-word models requested")
	}

	models := make(map[string]streamingModel, len(names))
	for _, name := range names {
		m, err := microwakeword.FromBuiltin(name, microwakeword.DefaultRefractory)
		if err != nil {
			return nil, fmt.Errorf("load wake-word model %q: %w", name, err)
		}
		models[name] = m
	}

	return &Scorer{models: models}, nil
}

// Score runs every model over the frame. A model that fails to process the
// frame simply contributes no score; if every model fails, the frame is
// reported as a classification failure.
func (s *Scorer) Score(frame audio.Frame) (map[string]float64, error) {
	pcm := audio.EncodePCM16(frame.Samples)

	scores := make(map[string]float64, len(s.models))
	var lastErr error
	for id, m := range s.models {
		hit, err := m.ProcessStreaming(pcm)
		if err != nil {
			lastErr = err
			continue
		}
		if hit {
			scores[id] = 1.0
		} else {
			scores[id] = 0.0
		}
	}

	if len(scores) == 0 && lastErr != nil {
		return nil, core.NewClassificationError("score frame", lastErr)
	}
	return scores, nil
}

// Models returns the loaded model names.
func (s *Scorer) Models() []string {
	names := make([]string, 0, len(s.models))
	for name := range s.models {
		names = append(names, name)
	}
	return names
}
