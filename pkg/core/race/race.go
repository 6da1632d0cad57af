// Package race implements the "first live candidate" search: probe every
// candidate concurrently with a bounded worker pool, take the first probe
// that reports live, and cancel the rest.
package race

import (
	"context"
	"time"
)

// Candidate is one ranked search result to be liveness-checked.
// The list passed into a race is read-only for all workers.
type Candidate struct {
	URL  string
	Rank int
}

// Outcome is the terminal value of a race, produced exactly once.
type Outcome int

const (
	// OutcomeLiveFound means some candidate probe returned live.
	OutcomeLiveFound Outcome = iota
	// OutcomeNoneLive means every probe completed and none was live.
	OutcomeNoneLive
	// OutcomeCancelled means the caller cancelled the race.
	OutcomeCancelled
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeLiveFound:
		return "LIVE_FOUND"
	case OutcomeNoneLive:
		return "NONE_LIVE"
	case OutcomeCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Result carries the outcome and, for OutcomeLiveFound, the winning URL.
type Result struct {
	Outcome Outcome
	URL     string
}

// Prober is the liveness-check collaborator. It fails closed: a timeout or
// error means "not live" for that candidate and never aborts the race.
type Prober interface {
	IsLive(ctx context.Context, url string) (bool, error)
}

// Config holds race tuning.
type Config struct {
	// MaxWorkers bounds concurrent probes.
	MaxWorkers int
	// ProbeTimeout bounds each individual probe.
	ProbeTimeout time.Duration
}

// DefaultConfig returns the standard bounds: 5 workers, 10 s per probe.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:   5,
		ProbeTimeout: 10 * time.Second,
	}
}

// Race runs first-live-wins probes over candidate lists.
type Race struct {
	cfg    Config
	prober Prober
}

// New creates a race with the given prober.
func New(cfg Config, prober Prober) *Race {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultConfig().ProbeTimeout
	}
	return &Race{cfg: cfg, prober: prober}
}

type probeResult struct {
	url  string
	live bool
}

// Run races the candidates and returns the single terminal result.
//
// "First" is completion order, not rank: the first probe to report live wins
// and the remaining in-flight and queued probes are cancelled best-effort. A
// probe already blocked inside the collaborator finishes on its own and has
// its result discarded. An empty candidate list is NoneLive with no workers
// spawned.
func (r *Race) Run(ctx context.Context, candidates []Candidate) Result {
	if len(candidates) == 0 {
		return Result{Outcome: OutcomeNoneLive}
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Candidate)
	// Buffer every result so workers never block on a collector that has
	// already returned.
	results := make(chan probeResult, len(candidates))

	workers := r.cfg.MaxWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	for i := 0; i < workers; i++ {
		go func() {
			for cand := range jobs {
				select {
				case <-raceCtx.Done():
					return
				default:
				}
				results <- probeResult{url: cand.URL, live: r.probe(raceCtx, cand.URL)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, cand := range candidates {
			select {
			case jobs <- cand:
			case <-raceCtx.Done():
				return
			}
		}
	}()

	for received := 0; received < len(candidates); received++ {
		select {
		case res := <-results:
			if res.live {
				cancel()
				return Result{Outcome: OutcomeLiveFound, URL: res.url}
			}
		case <-ctx.Done():
			return Result{Outcome: OutcomeCancelled}
		}
	}

	return Result{Outcome: OutcomeNoneLive}
}

// probe runs one bounded liveness check. Errors and timeouts count as false.
func (r *Race) probe(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	live, err := r.prober.IsLive(probeCtx, url)
	if err != nil {
		return false
	}
	return live
}
