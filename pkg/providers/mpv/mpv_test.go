package mpv

import (
	"context"
	"strings"
	"testing"
)

func TestPlayRejectsNonStreamURLs(t *testing.T) {
	p := New("", DefaultOptions())
	for _, url := range []string{
		"",
		"not a url",
		"https://example.com/watch?v=abc",
		"file:///etc/passwd",
	} {
		if err := p.Play(context.Background(), url); err == nil {
			t.Errorf("Play(%q) should be rejected", url)
		}
	}
}

func TestURLValidationAcceptsStreamURLs(t *testing.T) {
	for _, url := range []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://youtube.com/live/abc123",
		"youtu.be/abc123",
		"http://youtube.com/watch?v=x",
	} {
		if !youtubeURLPattern.MatchString(url) {
			t.Errorf("%q should be accepted", url)
		}
	}
}

func TestArgsVerticalProfile(t *testing.T) {
	p := New("", DefaultOptions())
	args := strings.Join(p.args(), " ")

	if !strings.Contains(args, "--fullscreen") {
		t.Error("default profile must be fullscreen")
	}
	if !strings.Contains(args, "crop=ih*9/16") || !strings.Contains(args, "scale=1080:1920") {
		t.Errorf("missing vertical crop/scale filter: %s", args)
	}
	if !strings.Contains(args, "--no-keepaspect") {
		t.Error("vertical profile must disable aspect preservation")
	}
}

func TestArgsQualityCap(t *testing.T) {
	p := New("", Options{Quality: "720p"})
	args := strings.Join(p.args(), " ")
	if !strings.Contains(args, "height<=720") {
		t.Errorf("expected 720p cap in ytdl format: %s", args)
	}

	p = New("", Options{Quality: "nonsense"})
	args = strings.Join(p.args(), " ")
	if !strings.Contains(args, "bestvideo+bestaudio/best") {
		t.Errorf("unknown quality must fall back to best: %s", args)
	}
}
