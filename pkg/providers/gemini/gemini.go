// Package gemini transcribes utterances with the Gemini API via inline
// audio content.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/switchcast/switchcast/pkg/core/audio"
	"github.com/switchcast/switchcast/pkg/core/endpoint"
)

const (
	defaultModel = "gemini-2.0-flash"

	transcribePrompt = "Transcribe this audio verbatim. Reply with only the transcription, nothing else. If there is no intelligible speech, reply with an empty string."
)

// generateFunc produces model text for the given contents. The seam keeps the
// content assembly testable without a live client.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content) (string, error)

// Transcriber converts utterances to text with a Gemini model.
type Transcriber struct {
	model    string
	audioCfg audio.Config
	generate generateFunc
}

// New creates a Gemini transcriber. model may be empty for the default.
func New(ctx context.Context, apiKey, model string, audioCfg audio.Config) (*Transcriber, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	if model == "" {
		model = defaultModel
	}
	return &Transcriber{
		model:    model,
		audioCfg: audioCfg,
		generate: func(ctx context.Context, model string, contents []*genai.Content) (string, error) {
			resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		},
	}, nil
}

// Transcribe sends the utterance as inline WAV audio.
func (t *Transcriber) Transcribe(ctx context.Context, utt endpoint.Utterance) (string, error) {
	wav := utt.WAV(t.audioCfg.SampleRate, t.audioCfg.Channels)

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcribePrompt),
			genai.NewPartFromBytes(wav, "audio/wav"),
		}, genai.RoleUser),
	}

	text, err := t.generate(ctx, t.model, contents)
	if err != nil {
		return "", fmt.Errorf("gemini transcription: %w", err)
	}

	return strings.TrimSpace(text), nil
}
