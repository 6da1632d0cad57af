// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the daemon configuration. Values come from SWITCHCAST_* plus the
// provider credential variables; .env.local is loaded into the environment
// before this runs.
type Config struct {
	// WakeModels are the built-in wake-word model names to load.
	WakeModels []string

	// MicBackend selects the capture source: "portaudio" or "ffmpeg".
	MicBackend string

	// Transcriber selects the transcription provider: "whisper" or "gemini".
	Transcriber string

	// WhisperBaseURL is the OpenAI-compatible transcription endpoint.
	WhisperBaseURL string
	// WhisperModel is the transcription model name.
	WhisperModel string
	// GeminiModel is the Gemini transcription model name.
	GeminiModel string

	OpenAIAPIKey string
	GeminiAPIKey string
	MongoURI     string

	// YTDLPBinary and MPVBinary override the probe/player executables.
	YTDLPBinary string
	MPVBinary   string

	// SilenceTimeout ends an utterance after this much trailing silence.
	SilenceTimeout time.Duration
	// CaptureTimeout bounds one utterance-capture pass.
	CaptureTimeout time.Duration
	// Cooldown is the per-model wake trigger cooldown.
	Cooldown time.Duration
	// Threshold is the wake detection threshold.
	Threshold float64

	// RaceWorkers bounds concurrent liveness probes.
	RaceWorkers int
	// ProbeTimeout bounds each liveness probe.
	ProbeTimeout time.Duration

	// Notifications enables desktop notifications.
	Notifications bool

	// LogLevel is the slog level for the daemon.
	LogLevel slog.Level
}

// LoadFromEnv reads the configuration, applying defaults and validating the
// credentials the selected providers need.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		WakeModels:     splitList(envOr("SWITCHCAST_WAKE_MODELS", "hey_switchcast")),
		MicBackend:     envOr("SWITCHCAST_MIC", "portaudio"),
		Transcriber:    envOr("SWITCHCAST_TRANSCRIBER", "whisper"),
		WhisperBaseURL: envOr("SWITCHCAST_WHISPER_URL", "http://127.0.0.1:8000"),
		WhisperModel:   envOr("SWITCHCAST_WHISPER_MODEL", "base"),
		GeminiModel:    os.Getenv("SWITCHCAST_GEMINI_MODEL"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		MongoURI:       os.Getenv("MONGODB_URI"),
		YTDLPBinary:    os.Getenv("SWITCHCAST_YTDLP"),
		MPVBinary:      os.Getenv("SWITCHCAST_MPV"),
		Notifications:  envBool("SWITCHCAST_NOTIFICATIONS", true),
	}

	var err error
	if cfg.SilenceTimeout, err = envDuration("SWITCHCAST_SILENCE_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CaptureTimeout, err = envDuration("SWITCHCAST_CAPTURE_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Cooldown, err = envDuration("SWITCHCAST_COOLDOWN", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ProbeTimeout, err = envDuration("SWITCHCAST_PROBE_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Threshold, err = envFloat("SWITCHCAST_THRESHOLD", 0.5); err != nil {
		return Config{}, err
	}
	if cfg.RaceWorkers, err = envInt("SWITCHCAST_RACE_WORKERS", 5); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = ParseLogLevel(envOr("SWITCHCAST_LOG_LEVEL", "info"))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.MicBackend {
	case "portaudio", "ffmpeg":
	default:
		return fmt.Errorf("SWITCHCAST_MIC must be portaudio or ffmpeg, got %q", c.MicBackend)
	}

	switch c.Transcriber {
	case "whisper":
		if c.WhisperBaseURL == "" {
			return fmt.Errorf("SWITCHCAST_WHISPER_URL is required for the whisper transcriber")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini transcriber")
		}
	default:
		return fmt.Errorf("SWITCHCAST_TRANSCRIBER must be whisper or gemini, got %q", c.Transcriber)
	}

	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for query embeddings")
	}
	if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		return fmt.Errorf("MONGODB_URI must be a mongodb:// or mongodb+srv:// URI")
	}
	if len(c.WakeModels) == 0 {
		return fmt.Errorf("SWITCHCAST_WAKE_MODELS must name at least one model")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
