package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	openaiparam "github.com/openai/openai-go/v3/packages/param"
	"github.com/rs/zerolog/log"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAISummarizer generates summaries through the OpenAI chat API.
type OpenAISummarizer struct {
	client      *openai.Client
	model       openai.ChatModel
	temperature float64
	maxTokens   int
}

// NewOpenAISummarizer builds the OpenAI summarization backend.
func NewOpenAISummarizer(cfg Config) (*OpenAISummarizer, error) {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	clientVal := openai.NewClient(opts...)
	return &OpenAISummarizer{
		client:      &clientVal,
		model:       openai.ChatModel(model),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Summarize sends the prompt and content as a single user message.
func (s *OpenAISummarizer) Summarize(ctx context.Context, content, prompt string) (string, error) {
	log.Debug().Str("model", string(s.model)).Msg("generating summary via OpenAI")

	params := openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(content, prompt)),
		},
	}
	if s.temperature > 0 {
		params.Temperature = openaiparam.NewOpt(s.temperature)
	}
	if s.maxTokens > 0 {
		params.MaxTokens = openaiparam.NewOpt(int64(s.maxTokens))
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai summarization: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", errors.New("openai summarization returned no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
