// Package mpv plays the dispatched stream URL with the mpv player.
package mpv

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sync"
)

const defaultBinary = "mpv"

var youtubeURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

// Options select the playback profile.
type Options struct {
	// Fullscreen plays without window chrome.
	Fullscreen bool

	// Quality caps the stream resolution: "best", "1080p", "720p",
	// "480p", or "360p".
	Quality string

	// Vertical1080 center-cuts and scales the video to exactly fill a
	// 1080x1920 portrait display.
	Vertical1080 bool
}

// DefaultOptions returns the portrait signage profile the switcher drives.
func DefaultOptions() Options {
	return Options{
		Fullscreen:   true,
		Quality:      "best",
		Vertical1080: true,
	}
}

// Player launches mpv for each dispatched URL, replacing any stream that is
// already playing. Fire-and-forget: Play returns once mpv has started.
type Player struct {
	binary string
	opts   Options

	mu      sync.Mutex
	current *exec.Cmd
}

// New creates a player. binary may be empty for the default.
func New(binary string, opts Options) *Player {
	if binary == "" {
		binary = defaultBinary
	}
	return &Player{binary: binary, opts: opts}
}

// Play validates the URL, stops the previous stream, and starts mpv.
func (p *Player) Play(ctx context.Context, url string) error {
	if !youtubeURLPattern.MatchString(url) {
		return fmt.Errorf("not a playable stream url: %q", url)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	cmd := exec.Command(p.binary, append(p.args(), url)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}
	p.current = cmd

	// Reap in the background so a finished player never leaves a zombie.
	go func() { _ = cmd.Wait() }()

	return nil
}

func (p *Player) args() []string {
	var args []string
	if p.opts.Fullscreen {
		args = append(args, "--fullscreen")
	}

	switch p.opts.Quality {
	case "", "best":
		args = append(args, "--ytdl-format=bestvideo+bestaudio/best")
	default:
		height := map[string]string{
			"1080p": "1080",
			"720p":  "720",
			"480p":  "480",
			"360p":  "360",
		}[p.opts.Quality]
		if height == "" {
			args = append(args, "--ytdl-format=bestvideo+bestaudio/best")
		} else {
			args = append(args, fmt.Sprintf("--ytdl-format=bestvideo[height<=%s]+bestaudio/best[height<=%s]", height, height))
		}
	}

	if p.opts.Vertical1080 {
		// Crop the 16:9 center to 9:16, then fill 1080x1920 exactly.
		args = append(args,
			"--vf=lavfi=[crop=ih*9/16:ih:iw/2-ih*9/32:0,scale=1080:1920,setdar=9/16]",
			"--no-keepaspect",
		)
	}

	return args
}

func (p *Player) stopLocked() {
	if p.current != nil && p.current.Process != nil {
		_ = p.current.Process.Kill()
	}
	p.current = nil
}

// Close stops any playing stream.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}
