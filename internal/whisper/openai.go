package whisper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	openaiparam "github.com/openai/openai-go/v3/packages/param"
	"github.com/rs/zerolog/log"
)

// OpenAITranscriber uses OpenAI's REST API to perform speech-to-text.
type OpenAITranscriber struct {
	client   *openai.Client
	model    openai.AudioModel
	language string
	prompt   string
}

// NewOpenAITranscriber builds the OpenAI transcription backend.
func NewOpenAITranscriber(cfg Config) (*OpenAITranscriber, error) {
	var opts []option.RequestOption
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Organization != "" {
		opts = append(opts, option.WithOrganization(cfg.Organization))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.ProxyURL != "" {
		client, err := buildHTTPClient(cfg.ProxyURL, cfg.RequestTimeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	} else if cfg.RequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.RequestTimeout))
	}

	clientVal := openai.NewClient(opts...)

	return &OpenAITranscriber{
		client:   &clientVal,
		model:    normalizeAudioModel(cfg.Model),
		language: cfg.Language,
		prompt:   cfg.Prompt,
	}, nil
}

func buildHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	var baseTransport *http.Transport
	if ok {
		baseTransport = transport.Clone()
	} else {
		baseTransport = &http.Transport{Proxy: http.ProxyFromEnvironment}
	}

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		baseTransport.Proxy = http.ProxyURL(parsed)
	}

	client := &http.Client{
		Transport: baseTransport,
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client, nil
}

// ModelName returns the audio model identifier currently in use.
func (t *OpenAITranscriber) ModelName() string {
	return string(t.model)
}

// Transcribe uploads one media file and returns its transcript text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	upload, cleanup, err := ensureUploadable(ctx, path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	f, err := os.Open(upload)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, filepath.Base(upload), mimeForExt(filepath.Ext(upload))),
		Model: t.model,
	}
	if lang := strings.TrimSpace(t.language); lang != "" && !strings.EqualFold(lang, "auto") {
		params.Language = openaiparam.NewOpt(lang)
	}
	if prompt := strings.TrimSpace(t.prompt); prompt != "" {
		params.Prompt = openaiparam.NewOpt(prompt)
	}

	transcription, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("openai transcription: %w", ErrTimeout)
		}
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	if transcription == nil {
		return "", errors.New("openai transcription response is empty")
	}
	return strings.TrimSpace(transcription.Text), nil
}

func normalizeAudioModel(name string) openai.AudioModel {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return openai.AudioModelWhisper1
	}

	lower := strings.ToLower(trimmed)
	if strings.HasSuffix(lower, ".bin") || strings.ContainsAny(trimmed, "\\/") {
		log.Warn().Str("model", trimmed).Msg("ignoring local whisper model path; using OpenAI whisper-1")
		return openai.AudioModelWhisper1
	}

	return openai.AudioModel(trimmed)
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	}
	return "application/octet-stream"
}
