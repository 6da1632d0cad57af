package audio

import (
	"context"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/switchcast/switchcast/pkg/core"
)

// PortAudioSource reads frames from the default input device via PortAudio.
type PortAudioSource struct {
	cfg    Config
	mu     sync.Mutex
	stream *portaudio.Stream
	buf    []float32
	seq    uint64
	closed bool
}

// NewPortAudioSource opens the default input device with the given format.
// The returned source owns the PortAudio session; Close releases it.
func NewPortAudioSource(cfg Config) (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, core.NewDeviceUnavailableError("initialize portaudio", err)
	}

	s := &PortAudioSource{
		cfg: cfg,
		buf: make([]float32, cfg.FrameSize),
	}

	stream, err := portaudio.OpenDefaultStream(
		cfg.Channels,
		0,
		float64(cfg.SampleRate),
		cfg.FrameSize,
		s.buf,
	)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, core.NewDeviceUnavailableError("open default input stream", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, core.NewDeviceUnavailableError("start input stream", err)
	}

	s.stream = stream
	return s, nil
}

// Next blocks until a full frame has been read from the device.
// Read faults (typically input overflow after the consumer stalls) surface as
// recoverable stream_fault errors; the caller skips and reads again.
func (s *PortAudioSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.stream == nil {
		return Frame{}, core.NewDeviceUnavailableError("input stream is closed", nil)
	}

	if err := s.stream.Read(); err != nil {
		return Frame{}, core.NewStreamFaultError("read input frame", err)
	}

	samples := make([]float32, len(s.buf))
	copy(samples, s.buf)
	s.seq++

	return Frame{Samples: samples, Seq: s.seq}, nil
}

// Close stops the stream and releases the device.
func (s *PortAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.stream != nil {
		_ = s.stream.Stop()
		_ = s.stream.Close()
		s.stream = nil
	}
	return portaudio.Terminate()
}
