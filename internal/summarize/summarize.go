// Package summarize condenses transcripts and articles through a language
// model. Backends: the OpenAI chat API and a local Ollama instance.
package summarize

import (
	"context"
	"fmt"
	"time"
)

const (
	maxContentLen = 10000

	defaultPrompt = "Summarize the following content in a clear and concise manner:"
)

// Summarizer generates a summary of content under a task-specific prompt.
type Summarizer interface {
	Summarize(ctx context.Context, content, prompt string) (string, error)
}

// Config selects and configures a summarization backend.
type Config struct {
	Provider       string // "openai" or "ollama"
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
}

// New constructs the backend named by cfg.Provider.
func New(cfg Config) (Summarizer, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAISummarizer(cfg)
	case "ollama":
		return NewOllamaSummarizer(cfg)
	}
	return nil, fmt.Errorf("unknown summarization provider %q", cfg.Provider)
}

// truncate caps content length so prompts stay within model context,
// marking the cut.
func truncate(content string) string {
	if len(content) <= maxContentLen {
		return content
	}
	return content[:maxContentLen] + "\n\n[Content truncated...]"
}

func buildPrompt(content, prompt string) string {
	if prompt == "" {
		prompt = defaultPrompt
	}
	return prompt + "\n\n" + truncate(content)
}
