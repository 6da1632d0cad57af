package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/switchcast/switchcast/pkg/core"
)

// FFmpegSource captures frames by running ffmpeg against the default input
// device and reading raw s16le PCM from its stdout. It is the fallback when
// PortAudio is not available on the host.
type FFmpegSource struct {
	cfg    Config
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    []byte
	seq    uint64
	closed bool
}

// NewFFmpegSource starts an ffmpeg capture process for the given format.
func NewFFmpegSource(cfg Config) (*FFmpegSource, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, core.NewDeviceUnavailableError("ffmpeg not found in PATH", err)
	}

	args, err := micArgs(runtime.GOOS, cfg)
	if err != nil {
		return nil, core.NewDeviceUnavailableError("unsupported capture platform", err)
	}

	cmd := exec.Command("ffmpeg", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, core.NewDeviceUnavailableError("open ffmpeg stdout", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, core.NewDeviceUnavailableError("start ffmpeg capture", err)
	}

	return &FFmpegSource{
		cfg:    cfg,
		cmd:    cmd,
		stdout: stdout,
		buf:    make([]byte, cfg.BytesPerFrame()),
	}, nil
}

func micArgs(goos string, cfg Config) ([]string, error) {
	common := []string{
		"-hide_banner", "-loglevel", "error",
		"-ac", fmt.Sprintf("%d", cfg.Channels),
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-f", "s16le", "-",
	}
	switch goos {
	case "darwin":
		return append([]string{"-f", "avfoundation", "-i", ":0"}, common...), nil
	case "linux":
		return append([]string{"-f", "pulse", "-i", "default"}, common...), nil
	default:
		return nil, fmt.Errorf("mic capture is not implemented for %s; supported platforms: darwin, linux", goos)
	}
}

// Next blocks until a full frame of PCM has been read from ffmpeg.
func (s *FFmpegSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Frame{}, core.NewDeviceUnavailableError("capture process is closed", nil)
	}

	if _, err := io.ReadFull(s.stdout, s.buf); err != nil {
		// A short read means ffmpeg hiccuped mid-frame; EOF means the
		// process died and the device is gone.
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, core.NewStreamFaultError("short read from capture process", err)
		}
		return Frame{}, core.NewDeviceUnavailableError("capture process terminated", err)
	}

	s.seq++
	return Frame{Samples: DecodePCM16(s.buf), Seq: s.seq}, nil
}

// Close kills the capture process and reaps it.
func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	return nil
}
