package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// WebServiceTranscriber sends files to a whisper-asr-webservice instance.
type WebServiceTranscriber struct {
	client   *http.Client
	baseURL  string
	language string
}

// NewWebServiceTranscriber constructs a transcriber for whisper-asr-webservice.
func NewWebServiceTranscriber(cfg Config) (*WebServiceTranscriber, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("webservice base URL cannot be empty")
	}

	httpClient := &http.Client{}
	if cfg.RequestTimeout > 0 {
		httpClient.Timeout = cfg.RequestTimeout
	}

	return &WebServiceTranscriber{
		client:   httpClient,
		baseURL:  baseURL,
		language: cfg.Language,
	}, nil
}

// Transcribe uploads one media file to the /asr endpoint and returns its
// transcript text.
func (t *WebServiceTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	upload, cleanup, err := ensureUploadable(ctx, path)
	if err != nil {
		return "", err
	}
	defer cleanup()

	requestURL, err := t.buildRequestURL()
	if err != nil {
		return "", err
	}

	f, err := os.Open(upload)
	if err != nil {
		return "", fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fileWriter, err := writer.CreateFormFile("audio_file", filepath.Base(upload))
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(fileWriter, f); err != nil {
		return "", err
	}
	if err = writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("webservice request: %w", ErrTimeout)
		default:
			return "", fmt.Errorf("webservice request: %w: %v", ErrUnavailable, err)
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) == 0 {
			return "", fmt.Errorf("webservice returned status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("webservice error (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var payload webServiceResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode webservice response: %w", err)
	}
	return strings.TrimSpace(payload.Text), nil
}

func (t *WebServiceTranscriber) buildRequestURL() (string, error) {
	target, err := url.Parse(t.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	target.Path = strings.TrimSuffix(target.Path, "/") + "/asr"

	query := target.Query()
	query.Set("output", "json")
	query.Set("task", "transcribe")
	if lang := strings.TrimSpace(t.language); lang != "" && !strings.EqualFold(lang, "auto") {
		query.Set("language", lang)
	}

	target.RawQuery = query.Encode()
	return target.String(), nil
}

// webServiceResponse models the JSON payload returned by whisper-asr-webservice.
type webServiceResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}
