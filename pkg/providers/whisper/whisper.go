// Package whisper transcribes utterances against an OpenAI-compatible
// /v1/audio/transcriptions endpoint (faster-whisper-server, LocalAI, or the
// OpenAI API itself).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/switchcast/switchcast/pkg/core/audio"
	"github.com/switchcast/switchcast/pkg/core/endpoint"
)

const defaultModel = "base"

// Transcriber sends WAV-encoded utterances for transcription.
type Transcriber struct {
	baseURL    string
	apiKey     string
	model      string
	audioCfg   audio.Config
	httpClient *http.Client
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transcriber) { t.httpClient = client }
}

// WithModel overrides the transcription model.
func WithModel(model string) Option {
	return func(t *Transcriber) { t.model = model }
}

// New creates a transcriber for the given endpoint. apiKey may be empty for
// local servers.
func New(baseURL, apiKey string, audioCfg audio.Config, opts ...Option) *Transcriber {
	t := &Transcriber{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      defaultModel,
		audioCfg:   audioCfg,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transcribe converts the utterance to text. Empty text is not an error.
func (t *Transcriber) Transcribe(ctx context.Context, utt endpoint.Utterance) (string, error) {
	wav := utt.WAV(t.audioCfg.SampleRate, t.audioCfg.Channels)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := mw.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/v1/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription failed: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return strings.TrimSpace(out.Text), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
