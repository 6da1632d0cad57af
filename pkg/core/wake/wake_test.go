package wake

import (
	"errors"
	"testing"
	"time"

	"github.com/switchcast/switchcast/pkg/core"
	"github.com/switchcast/switchcast/pkg/core/audio"
)

type stubScorer struct {
	scores map[string]float64
	err    error
}

func (s *stubScorer) Score(audio.Frame) (map[string]float64, error) {
	return s.scores, s.err
}

// fakeClock hands out a controllable now.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDetector(t *testing.T, scorer Scorer, models []Model) (*Detector, *fakeClock) {
	t.Helper()
	d, err := NewDetector(scorer, models)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	d.now = clock.now
	return d, clock
}

func TestNewDetectorNoModels(t *testing.T) {
	_, err := NewDetector(&stubScorer{}, nil)
	if err == nil {
		t.Fatal("expected error for empty model set")
	}
	if !core.IsType(err, core.ErrNoModelsConfigured) {
		t.Fatalf("expected no_models_configured, got %v", err)
	}
	if !core.IsFatal(err) {
		t.Fatal("no_models_configured should be fatal")
	}
}

func TestDetectorTriggersAboveThreshold(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"trigger": 0.9}}
	d, _ := newTestDetector(t, scorer, []Model{{ID: "trigger"}})

	events := d.Process(audio.Frame{})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Model != "trigger" || events[0].Score != 0.9 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestDetectorScoreAtThresholdDoesNotTrigger(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"trigger": DefaultThreshold}}
	d, _ := newTestDetector(t, scorer, []Model{{ID: "trigger"}})

	if events := d.Process(audio.Frame{}); len(events) != 0 {
		t.Fatalf("score equal to threshold must not trigger, got %+v", events)
	}
}

func TestDetectorCooldownSuppression(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"trigger": 1.0}}
	d, clock := newTestDetector(t, scorer, []Model{{ID: "trigger", Cooldown: 2 * time.Second}})

	if events := d.Process(audio.Frame{}); len(events) != 1 {
		t.Fatalf("first detection should trigger, got %d events", len(events))
	}

	// Inside the cooldown window, including its exact boundary.
	clock.advance(time.Second)
	if events := d.Process(audio.Frame{}); len(events) != 0 {
		t.Fatalf("detection inside cooldown should be suppressed, got %+v", events)
	}
	clock.advance(time.Second)
	if events := d.Process(audio.Frame{}); len(events) != 0 {
		t.Fatal("detection exactly at the cooldown boundary should be suppressed")
	}

	// Past the boundary the model may fire again.
	clock.advance(time.Millisecond)
	if events := d.Process(audio.Frame{}); len(events) != 1 {
		t.Fatalf("detection after cooldown should trigger, got %d events", len(events))
	}
}

func TestDetectorContinuousDetectionOnePerWindow(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"trigger": 1.0}}
	d, clock := newTestDetector(t, scorer, []Model{{ID: "trigger", Cooldown: 2 * time.Second}})

	// 100 frames at 80 ms spacing: 8 s of continuous detection.
	var total int
	for i := 0; i < 100; i++ {
		total += len(d.Process(audio.Frame{Seq: uint64(i)}))
		clock.advance(80 * time.Millisecond)
	}

	// One trigger, then one more each time the window strictly elapses.
	if total != 4 {
		t.Fatalf("expected 4 triggers over 8s of continuous detection, got %d", total)
	}
}

func TestDetectorIndependentCooldowns(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"a": 1.0}}
	d, clock := newTestDetector(t, scorer, []Model{
		{ID: "a", Cooldown: 2 * time.Second},
		{ID: "b", Cooldown: 2 * time.Second},
	})

	if events := d.Process(audio.Frame{}); len(events) != 1 || events[0].Model != "a" {
		t.Fatalf("expected a to trigger, got %+v", events)
	}

	// a is cooling down; b fires independently on the next frame.
	clock.advance(80 * time.Millisecond)
	scorer.scores = map[string]float64{"a": 1.0, "b": 1.0}
	events := d.Process(audio.Frame{})
	if len(events) != 1 || events[0].Model != "b" {
		t.Fatalf("expected only b to trigger, got %+v", events)
	}
}

func TestDetectorMultipleModelsSameFrame(t *testing.T) {
	scorer := &stubScorer{scores: map[string]float64{"b": 0.8, "a": 0.9}}
	d, _ := newTestDetector(t, scorer, []Model{{ID: "a"}, {ID: "b"}})

	events := d.Process(audio.Frame{})
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Model != "a" || events[1].Model != "b" {
		t.Fatalf("events not in stable order: %+v", events)
	}
}

func TestDetectorScorerErrorYieldsNoDetections(t *testing.T) {
	scorer := &stubScorer{err: errors.New("model crashed")}
	d, _ := newTestDetector(t, scorer, []Model{{ID: "trigger"}})

	if events := d.Process(audio.Frame{}); events != nil {
		t.Fatalf("scorer failure must yield no detections, got %+v", events)
	}
}

func TestDetectorFillsDefaults(t *testing.T) {
	d, _ := newTestDetector(t, &stubScorer{}, []Model{{ID: "trigger"}})

	m := d.models["trigger"]
	if m.Threshold != DefaultThreshold {
		t.Fatalf("expected default threshold, got %v", m.Threshold)
	}
	if m.Cooldown != DefaultCooldown {
		t.Fatalf("expected default cooldown, got %v", m.Cooldown)
	}
}
