// Package openai provides the embedding client used by the vector searcher.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	defaultBaseURL = "https://api.openai.com"

	// DefaultModel and DefaultDimensions must match the values the stream
	// index was built with; changing either invalidates every stored vector.
	DefaultModel      = "text-embedding-3-large"
	DefaultDimensions = 1024
)

// Embedder generates query embeddings via the OpenAI embeddings API.
type Embedder struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(e *Embedder) { e.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Embedder) { e.httpClient = client }
}

// NewEmbedder creates an embedder with the index's model and dimensions.
func NewEmbedder(apiKey string, opts ...Option) *Embedder {
	e := &Embedder{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      DefaultModel,
		dimensions: DefaultDimensions,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embeddingsRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
	Dimensions     int    `json:"dimensions"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for the text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(embeddingsRequest{
		Model:          e.model,
		Input:          text,
		EncodingFormat: "float",
		Dimensions:     e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings failed: status %d", resp.StatusCode)
	}

	var out embeddingsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embeddings response contained no data")
	}

	return out.Data[0].Embedding, nil
}
