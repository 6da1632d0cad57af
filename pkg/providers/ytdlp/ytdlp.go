// Package ytdlp probes stream liveness by shelling out to yt-dlp.
package ytdlp

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const (
	defaultBinary = "yt-dlp"

	// waitDelay bounds how long Wait keeps the stdout pipe open after the
	// process is killed on cancellation. Without it a killed yt-dlp that
	// forked helpers leaves the pipe inherited, and Output blocks for the
	// orphan's lifetime instead of honoring ctx.
	waitDelay = time.Second
)

// Prober checks whether a stream URL is currently live. It fails closed:
// any error, timeout, or non-"True" output counts as not live.
type Prober struct {
	binary string
}

// New creates a prober. binary may be empty for the default.
func New(binary string) *Prober {
	if binary == "" {
		binary = defaultBinary
	}
	return &Prober{binary: binary}
}

// IsLive asks yt-dlp whether the URL is a live stream. The caller bounds the
// probe through ctx; the process is killed on cancellation.
func (p *Prober) IsLive(ctx context.Context, url string) (bool, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"--skip-download",
		"--print", "is_live",
		url,
	)
	cmd.WaitDelay = waitDelay

	out, err := cmd.Output()
	if err != nil {
		return false, err
	}
	return strings.Contains(string(out), "True"), nil
}
