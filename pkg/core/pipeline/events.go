package pipeline

// Event is the interface for all pipeline events. The capture loop never
// performs side effects itself; it emits events and the daemon decides what
// to log, notify, or ignore.
type Event interface {
	// EventType returns the event type string for logging/serialization.
	EventType() string
}

// StateChangedEvent is emitted on every orchestrator state transition.
type StateChangedEvent struct {
	From State `json:"from"`
	To   State `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// WakeDetectedEvent is emitted when a wake-word model triggers.
type WakeDetectedEvent struct {
	Model string  `json:"model"`
	Score float64 `json:"score"`
}

func (e *WakeDetectedEvent) EventType() string { return "wake.detected" }

// ListeningEvent is emitted when utterance capture begins.
type ListeningEvent struct{}

func (e *ListeningEvent) EventType() string { return "capture.listening" }

// NoSpeechEvent is emitted when capture ends without any detected speech.
// A valid negative outcome; the cycle returns to waiting for the wake word.
type NoSpeechEvent struct{}

func (e *NoSpeechEvent) EventType() string { return "capture.no_speech" }

// UtteranceCapturedEvent is emitted when an utterance completes.
type UtteranceCapturedEvent struct {
	DurationMs int64 `json:"duration_ms"`
	Frames     int   `json:"frames"`
}

func (e *UtteranceCapturedEvent) EventType() string { return "capture.utterance" }

// TranscriptEvent carries the transcription of a captured utterance.
type TranscriptEvent struct {
	Text string `json:"text"`
}

func (e *TranscriptEvent) EventType() string { return "transcript.final" }

// NoUsableRequestEvent is emitted when transcription yields empty text.
type NoUsableRequestEvent struct{}

func (e *NoUsableRequestEvent) EventType() string { return "transcript.empty" }

// SearchResultsEvent reports the candidate count for a query.
type SearchResultsEvent struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

func (e *SearchResultsEvent) EventType() string { return "search.results" }

// NoMatchEvent is the user-visible "no match" signal for an empty result.
type NoMatchEvent struct {
	Query string `json:"query"`
}

func (e *NoMatchEvent) EventType() string { return "search.no_match" }

// RaceStartedEvent is emitted when liveness probing begins.
type RaceStartedEvent struct {
	Candidates int `json:"candidates"`
}

func (e *RaceStartedEvent) EventType() string { return "race.started" }

// LiveFoundEvent is emitted when a candidate is confirmed live.
type LiveFoundEvent struct {
	URL string `json:"url"`
}

func (e *LiveFoundEvent) EventType() string { return "race.live_found" }

// NoLiveCandidateEvent is the "no active match" signal.
type NoLiveCandidateEvent struct {
	Outcome string `json:"outcome"`
}

func (e *NoLiveCandidateEvent) EventType() string { return "race.no_live" }

// DispatchedEvent is emitted after the winning URL is handed to the player.
type DispatchedEvent struct {
	URL string `json:"url"`
}

func (e *DispatchedEvent) EventType() string { return "dispatch.playing" }

// CycleErrorEvent reports a non-fatal failure that ended the current cycle.
type CycleErrorEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (e *CycleErrorEvent) EventType() string { return "cycle.error" }
