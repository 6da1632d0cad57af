package endpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/switchcast/switchcast/pkg/core"
	"github.com/switchcast/switchcast/pkg/core/audio"
)

// scriptedClassifier answers per-frame from a script keyed by call order.
type scriptedClassifier struct {
	script []bool
	errAt  map[int]error
	calls  int
}

func (c *scriptedClassifier) IsSpeech(audio.Frame) (bool, error) {
	i := c.calls
	c.calls++
	if err, ok := c.errAt[i]; ok {
		return false, err
	}
	if i < len(c.script) {
		return c.script[i], nil
	}
	return false, nil
}

func testAudioConfig() audio.Config {
	return audio.Config{SampleRate: 16000, Channels: 1, FrameSize: 1280} // 80 ms frames
}

func testFrame(seq uint64) audio.Frame {
	return audio.Frame{Samples: make([]float32, 1280), Seq: seq}
}

// script builds a classification sequence from (value, count) runs.
func script(runs ...struct {
	speech bool
	n      int
}) []bool {
	var out []bool
	for _, r := range runs {
		for i := 0; i < r.n; i++ {
			out = append(out, r.speech)
		}
	}
	return out
}

func run(speech bool, n int) struct {
	speech bool
	n      int
} {
	return struct {
		speech bool
		n      int
	}{speech, n}
}

func feed(e *Endpointer, n int) State {
	st := e.State()
	for i := 0; i < n; i++ {
		st = e.Process(testFrame(uint64(i)))
	}
	return st
}

func TestEndpointerNoSpeech(t *testing.T) {
	e := New(DefaultConfig(), testAudioConfig(), &scriptedClassifier{})

	// Pure silence never leaves Idle, no matter how long it runs.
	if st := feed(e, 100); st != StateIdle {
		t.Fatalf("expected IDLE after pure silence, got %v", st)
	}

	utt := e.Result()
	if utt.VoiceDetected {
		t.Fatal("no-speech pass must report VoiceDetected=false")
	}
	if len(utt.Samples) != 0 || utt.Frames != 0 {
		t.Fatalf("no-speech pass must be empty, got %d samples / %d frames", len(utt.Samples), utt.Frames)
	}
}

func TestEndpointerCompletesAfterSilenceTimeout(t *testing.T) {
	// 2000 ms timeout at 80 ms frames: exactly 25 silent frames finish it.
	cls := &scriptedClassifier{script: script(run(true, 5), run(false, 25))}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	feed(e, 5+24)
	if st := e.State(); st != StateRecording {
		t.Fatalf("expected RECORDING after 24 silent frames, got %v", st)
	}

	if st := e.Process(testFrame(29)); st != StateDone {
		t.Fatalf("expected DONE on the 25th silent frame, got %v", st)
	}

	utt := e.Result()
	if !utt.VoiceDetected {
		t.Fatal("completed pass must report VoiceDetected=true")
	}
	if utt.Frames != 30 {
		t.Fatalf("expected 30 recorded frames (5 speech + 25 silence), got %d", utt.Frames)
	}
	if got := utt.Duration(16000); got != 2400*time.Millisecond {
		t.Fatalf("expected 2.4s utterance, got %v", got)
	}
}

func TestEndpointerSpeechResetsSilenceRun(t *testing.T) {
	// 24 silent frames, one speech frame, then a fresh 25-frame silence run.
	cls := &scriptedClassifier{script: script(
		run(true, 3), run(false, 24), run(true, 1), run(false, 25),
	)}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	feed(e, 3+24+1+24)
	if st := e.State(); st != StateRecording {
		t.Fatalf("silence run must reset on speech; got %v", st)
	}
	if st := e.Process(testFrame(52)); st != StateDone {
		t.Fatalf("expected DONE after the full fresh silence run, got %v", st)
	}
	if utt := e.Result(); utt.Frames != 53 {
		t.Fatalf("expected 53 recorded frames, got %d", utt.Frames)
	}
}

func TestEndpointerPreSpeechSilenceNotCounted(t *testing.T) {
	// An hour of leading silence, then speech; the timeout still needs its
	// own 25 trailing silent frames.
	cls := &scriptedClassifier{script: script(
		run(false, 45000), run(true, 2), run(false, 25),
	)}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	st := feed(e, 45000+2+25)
	if st != StateDone {
		t.Fatalf("expected DONE, got %v", st)
	}
	if utt := e.Result(); utt.Frames != 27 {
		t.Fatalf("leading silence must not be recorded; got %d frames", utt.Frames)
	}
}

func TestEndpointerRecordingIncludesOnsetAndSilence(t *testing.T) {
	cls := &scriptedClassifier{script: script(run(true, 1), run(false, 25))}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	feed(e, 26)
	utt := e.Result()
	if utt.Frames != 26 {
		t.Fatalf("recording must include onset frame and trailing silence, got %d frames", utt.Frames)
	}
	if len(utt.Samples) != 26*1280 {
		t.Fatalf("expected %d samples, got %d", 26*1280, len(utt.Samples))
	}
}

func TestEndpointerClassifierFailureIsNotSpeech(t *testing.T) {
	// Failures while idle keep it idle; failures while recording count as
	// silence and eventually finish the pass.
	cls := &scriptedClassifier{
		script: script(run(false, 2), run(true, 1), run(false, 30)),
		errAt: map[int]error{
			0: core.NewClassificationError("vad", errors.New("boom")),
			5: errors.New("plain failure"),
		},
	}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	if st := feed(e, 2); st != StateIdle {
		t.Fatalf("classification failure while idle must stay IDLE, got %v", st)
	}

	st := e.State()
	for i := 2; i < 2+1+25 && st != StateDone; i++ {
		st = e.Process(testFrame(uint64(i)))
	}
	if st != StateDone {
		t.Fatalf("expected DONE with failures counted as silence, got %v", st)
	}
}

func TestEndpointerResultBeforeDoneReportsNoVoice(t *testing.T) {
	cls := &scriptedClassifier{script: script(run(true, 10))}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	feed(e, 10)
	if st := e.State(); st != StateRecording {
		t.Fatalf("expected RECORDING, got %v", st)
	}
	if utt := e.Result(); utt.VoiceDetected {
		t.Fatal("an unfinished pass must not report usable voice")
	}
}

func TestEndpointerReset(t *testing.T) {
	cls := &scriptedClassifier{script: script(run(true, 1), run(false, 25))}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	feed(e, 26)
	if e.State() != StateDone {
		t.Fatal("setup: expected DONE")
	}

	e.Reset()
	if e.State() != StateIdle {
		t.Fatal("Reset must return to IDLE")
	}
	if utt := e.Result(); utt.Frames != 0 || utt.VoiceDetected {
		t.Fatalf("Reset must clear the buffer, got %+v", utt)
	}
}

// chanSource feeds frames from a channel and honors ctx.
type chanSource struct {
	frames chan audio.Frame
	errs   chan error
}

func newChanSource() *chanSource {
	return &chanSource{
		frames: make(chan audio.Frame, 1024),
		errs:   make(chan error, 16),
	}
}

func (s *chanSource) Next(ctx context.Context) (audio.Frame, error) {
	select {
	case err := <-s.errs:
		return audio.Frame{}, err
	default:
	}
	select {
	case f := <-s.frames:
		return f, nil
	case <-ctx.Done():
		return audio.Frame{}, ctx.Err()
	}
}

func (s *chanSource) Close() error { return nil }

func TestEndpointerRunCompletes(t *testing.T) {
	cls := &scriptedClassifier{script: script(run(true, 2), run(false, 25))}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	src := newChanSource()
	for i := 0; i < 27; i++ {
		src.frames <- testFrame(uint64(i))
	}

	utt, err := e.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !utt.VoiceDetected || utt.Frames != 27 {
		t.Fatalf("unexpected utterance: %+v", utt)
	}
}

func TestEndpointerRunDeadlineReportsNoVoice(t *testing.T) {
	cls := &scriptedClassifier{}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	utt, err := e.Run(ctx, newChanSource())
	if err != nil {
		t.Fatalf("a deadline is a negative outcome, not an error: %v", err)
	}
	if utt.VoiceDetected {
		t.Fatal("deadline without speech must report VoiceDetected=false")
	}
}

func TestEndpointerRunSkipsStreamFaults(t *testing.T) {
	cls := &scriptedClassifier{script: script(run(true, 1), run(false, 25))}
	e := New(DefaultConfig(), testAudioConfig(), cls)

	src := newChanSource()
	src.errs <- core.NewStreamFaultError("overflow", nil)
	for i := 0; i < 26; i++ {
		src.frames <- testFrame(uint64(i))
	}

	utt, err := e.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !utt.VoiceDetected {
		t.Fatal("stream fault must be skipped, not terminate the pass")
	}
}

func TestEndpointerRunFatalSourceError(t *testing.T) {
	e := New(DefaultConfig(), testAudioConfig(), &scriptedClassifier{})

	src := newChanSource()
	src.errs <- core.NewDeviceUnavailableError("device lost", nil)

	if _, err := e.Run(context.Background(), src); !core.IsType(err, core.ErrDeviceUnavailable) {
		t.Fatalf("expected device_unavailable, got %v", err)
	}
}

func TestEnergyClassifierHysteresis(t *testing.T) {
	c := NewEnergyClassifier(0.5, 0.2)

	loud := audio.Frame{Samples: []float32{0.8, -0.8, 0.8, -0.8}}
	mid := audio.Frame{Samples: []float32{0.3, -0.3, 0.3, -0.3}}
	quiet := audio.Frame{Samples: []float32{0.01, -0.01, 0.01, -0.01}}

	if got, _ := c.IsSpeech(mid); got {
		t.Fatal("mid level below onset must not start speech")
	}
	if got, _ := c.IsSpeech(loud); !got {
		t.Fatal("loud frame must start speech")
	}
	if got, _ := c.IsSpeech(mid); !got {
		t.Fatal("mid level above release must hold speech")
	}
	if got, _ := c.IsSpeech(quiet); got {
		t.Fatal("quiet frame must end speech")
	}

	c.Reset()
	if got, _ := c.IsSpeech(mid); got {
		t.Fatal("Reset must clear the in-speech state")
	}
}
