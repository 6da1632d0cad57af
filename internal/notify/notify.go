// Package notify surfaces pipeline outcomes as desktop notifications.
package notify

import "github.com/gen2brain/beeep"

const appTitle = "switchcast"

// Notifier posts desktop notifications. A disabled notifier is a no-op, so
// callers never need to branch.
type Notifier struct {
	enabled bool
}

// New creates a notifier.
func New(enabled bool) *Notifier {
	return &Notifier{enabled: enabled}
}

// NowPlaying announces the stream that was just dispatched.
func (n *Notifier) NowPlaying(url string) {
	n.post("Now playing", url)
}

// NoMatch announces that a spoken request matched no streams.
func (n *Notifier) NoMatch(query string) {
	n.post("No match", "No streams found for: "+query)
}

// NoneLive announces that every candidate stream was offline.
func (n *Notifier) NoneLive() {
	n.post("Nothing live", "No matching stream is live right now")
}

// Error announces a cycle failure.
func (n *Notifier) Error(message string) {
	n.post("Error", message)
}

func (n *Notifier) post(subtitle, body string) {
	if !n.enabled {
		return
	}
	// Notification failures are cosmetic; the log already carries the event.
	_ = beeep.Notify(appTitle+": "+subtitle, body, "")
}
