package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaSummarizer generates summaries through a local Ollama instance's
// /api/generate endpoint.
type OllamaSummarizer struct {
	client      *http.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
}

// NewOllamaSummarizer builds the Ollama summarization backend.
func NewOllamaSummarizer(cfg Config) (*OllamaSummarizer, error) {
	if cfg.Model == "" {
		return nil, errors.New("ollama summarization requires a model name")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}

	httpClient := &http.Client{}
	if cfg.RequestTimeout > 0 {
		httpClient.Timeout = cfg.RequestTimeout
	}

	return &OllamaSummarizer{
		client:      httpClient,
		baseURL:     baseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Summarize sends a non-streaming generate request.
func (s *OllamaSummarizer) Summarize(ctx context.Context, content, prompt string) (string, error) {
	log.Debug().Str("model", s.model).Msg("generating summary via Ollama")

	options := map[string]any{}
	if s.temperature > 0 {
		options["temperature"] = s.temperature
	}
	if s.maxTokens > 0 {
		options["num_predict"] = s.maxTokens
	}

	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:   s.model,
		Prompt:  buildPrompt(content, prompt),
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded ollamaGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama: %s", decoded.Error)
	}
	return strings.TrimSpace(decoded.Response), nil
}
