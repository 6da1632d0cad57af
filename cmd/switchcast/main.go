package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/switchcast/switchcast/internal/notify"
	"github.com/switchcast/switchcast/pkg/config"
	"github.com/switchcast/switchcast/pkg/core/audio"
	"github.com/switchcast/switchcast/pkg/core/endpoint"
	"github.com/switchcast/switchcast/pkg/core/pipeline"
	"github.com/switchcast/switchcast/pkg/core/wake"
	"github.com/switchcast/switchcast/pkg/providers/atlas"
	"github.com/switchcast/switchcast/pkg/providers/gemini"
	"github.com/switchcast/switchcast/pkg/providers/mpv"
	"github.com/switchcast/switchcast/pkg/providers/openai"
	"github.com/switchcast/switchcast/pkg/providers/openwake"
	"github.com/switchcast/switchcast/pkg/providers/whisper"
	"github.com/switchcast/switchcast/pkg/providers/ytdlp"
)

const envFile = ".env.local"

type daemonDeps struct {
	loadConfig   func() (config.Config, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultDaemonDeps() daemonDeps {
	return daemonDeps{
		loadConfig: config.LoadFromEnv,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func buildSource(cfg config.Config, audioCfg audio.Config) (audio.Source, error) {
	switch cfg.MicBackend {
	case "ffmpeg":
		return audio.NewFFmpegSource(audioCfg)
	default:
		return audio.NewPortAudioSource(audioCfg)
	}
}

func buildTranscriber(ctx context.Context, cfg config.Config, audioCfg audio.Config) (pipeline.Transcriber, error) {
	if cfg.Transcriber == "gemini" {
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, audioCfg)
	}
	return whisper.New(cfg.WhisperBaseURL, cfg.OpenAIAPIKey, audioCfg, whisper.WithModel(cfg.WhisperModel)), nil
}

func buildPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.Endpoint.SilenceTimeout = cfg.SilenceTimeout
	pipeCfg.CaptureTimeout = cfg.CaptureTimeout
	pipeCfg.Race.MaxWorkers = cfg.RaceWorkers
	pipeCfg.Race.ProbeTimeout = cfg.ProbeTimeout

	source, err := buildSource(cfg, pipeCfg.Audio)
	if err != nil {
		return nil, nil, fmt.Errorf("open microphone: %w", err)
	}

	scorer, err := openwake.NewScorer(cfg.WakeModels)
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("load wake models: %w", err)
	}

	models := make([]wake.Model, 0, len(cfg.WakeModels))
	for _, id := range cfg.WakeModels {
		models = append(models, wake.Model{
			ID:        id,
			Threshold: cfg.Threshold,
			Cooldown:  cfg.Cooldown,
		})
	}
	detector, err := wake.NewDetector(scorer, models)
	if err != nil {
		source.Close()
		return nil, nil, err
	}

	transcriber, err := buildTranscriber(ctx, cfg, pipeCfg.Audio)
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("build transcriber: %w", err)
	}

	embedder := openai.NewEmbedder(cfg.OpenAIAPIKey)
	searcher, err := atlas.New(cfg.MongoURI, embedder)
	if err != nil {
		source.Close()
		return nil, nil, fmt.Errorf("connect stream index: %w", err)
	}

	player := mpv.New(cfg.MPVBinary, mpv.DefaultOptions())

	p, err := pipeline.New(pipeCfg, pipeline.Collaborators{
		Source:      source,
		Detector:    detector,
		Endpointer:  endpoint.New(pipeCfg.Endpoint, pipeCfg.Audio, endpoint.NewDefaultEnergyClassifier()),
		Transcriber: transcriber,
		Searcher:    searcher,
		Prober:      ytdlp.New(cfg.YTDLPBinary),
		Player:      player,
	})
	if err != nil {
		source.Close()
		searcher.Close(context.Background())
		return nil, nil, err
	}

	cleanup := func() {
		player.Close()
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := searcher.Close(closeCtx); err != nil {
			logger.Warn("close stream index", "error", err)
		}
	}
	return p, cleanup, nil
}

// consumeEvents logs every pipeline event and mirrors the user-facing ones to
// desktop notifications.
func consumeEvents(events <-chan pipeline.Event, logger *slog.Logger, notifier *notify.Notifier) {
	for ev := range events {
		switch e := ev.(type) {
		case *pipeline.StateChangedEvent:
			logger.Debug("state changed", "from", e.From.String(), "to", e.To.String())
		case *pipeline.WakeDetectedEvent:
			logger.Info("wake word detected", "model", e.Model, "score", e.Score)
		case *pipeline.ListeningEvent:
			logger.Info("listening for request")
		case *pipeline.NoSpeechEvent:
			logger.Info("no speech detected")
		case *pipeline.UtteranceCapturedEvent:
			logger.Info("utterance captured", "duration_ms", e.DurationMs, "frames", e.Frames)
		case *pipeline.TranscriptEvent:
			logger.Info("transcript", "text", e.Text)
		case *pipeline.NoUsableRequestEvent:
			logger.Info("empty transcript, ignoring")
		case *pipeline.SearchResultsEvent:
			logger.Info("search results", "query", e.Query, "count", e.Count)
		case *pipeline.NoMatchEvent:
			logger.Info("no matching streams", "query", e.Query)
			notifier.NoMatch(e.Query)
		case *pipeline.RaceStartedEvent:
			logger.Info("probing liveness", "candidates", e.Candidates)
		case *pipeline.LiveFoundEvent:
			logger.Info("live stream found", "url", e.URL)
		case *pipeline.NoLiveCandidateEvent:
			logger.Info("no candidate is live", "outcome", e.Outcome)
			notifier.NoneLive()
		case *pipeline.DispatchedEvent:
			logger.Info("now playing", "url", e.URL)
			notifier.NowPlaying(e.URL)
		case *pipeline.CycleErrorEvent:
			logger.Error("cycle failed", "stage", e.Stage, "error", e.Message)
			notifier.Error(e.Message)
		}
	}
}

func runDaemon(ctx context.Context, logger *slog.Logger, deps daemonDeps) error {
	if deps.loadConfig == nil {
		return errors.New("missing loadConfig dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p, cleanup, err := buildPipeline(runCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	notifier := notify.New(cfg.Notifications)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consumeEvents(p.Events(), logger, notifier)
	}()

	logger.Info("switchcast started",
		"wake_models", cfg.WakeModels,
		"mic", cfg.MicBackend,
		"transcriber", cfg.Transcriber,
	)

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- p.Run(runCtx) }()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-runErrCh:
		<-consumerDone
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("pipeline: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
	}

	cancel()
	err = <-runErrCh
	<-consumerDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline: %w", err)
	}

	logger.Info("switchcast stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps daemonDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(stderr, "switchcast: load %s: %v\n", envFile, err)
			return 1
		}
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(os.Getenv("SWITCHCAST_LOG_LEVEL")),
	}))

	if err := runDaemon(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "switchcast: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultDaemonDeps()))
}
