// Package whisper provides speech-to-text backends for audio and video
// attachments. Two backends are supported: the OpenAI audio API and a
// self-hosted whisper-asr-webservice instance. Inputs that are not WAV are
// converted with ffmpeg before upload.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnavailable indicates the backend or a required tool (ffmpeg)
	// is not reachable or not installed.
	ErrUnavailable = errors.New("transcription backend unavailable")

	// ErrTimeout indicates the backend did not answer in time.
	ErrTimeout = errors.New("transcription timed out")
)

// Transcriber converts a media file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Config selects and configures a transcription backend.
type Config struct {
	Provider       string // "openai" or "webservice"
	Model          string
	APIKey         string
	BaseURL        string
	Organization   string
	ProxyURL       string
	Language       string
	Prompt         string
	RequestTimeout time.Duration
}

// New constructs the backend named by cfg.Provider.
func New(cfg Config) (Transcriber, error) {
	switch cfg.Provider {
	case "openai", "":
		return NewOpenAITranscriber(cfg)
	case "webservice":
		return NewWebServiceTranscriber(cfg)
	}
	return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
}
