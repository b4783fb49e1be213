// Package ocr extracts text from images by shelling out to the tesseract
// binary.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnavailable indicates the tesseract binary is not installed.
var ErrUnavailable = errors.New("tesseract not available")

const defaultTimeout = 2 * time.Minute

// Config controls the tesseract invocation.
type Config struct {
	Languages []string // e.g. ["eng", "fra"]; joined as eng+fra
	Timeout   time.Duration
}

// Engine runs tesseract against image files.
type Engine struct {
	languages string
	timeout   time.Duration
}

// New builds an engine and verifies tesseract is on PATH.
func New(cfg Config) (*Engine, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	languages := strings.Join(cfg.Languages, "+")
	if languages == "" {
		languages = "eng"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	log.Info().Str("languages", languages).Msg("initialized tesseract OCR")
	return &Engine{languages: languages, timeout: timeout}, nil
}

// Extract runs OCR on one image and returns the recognized text, trimmed.
func (e *Engine) Extract(ctx context.Context, path string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "tesseract", path, "stdout", "-l", e.languages)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("ocr of %s timed out", filepath.Base(path))
		}
		return "", fmt.Errorf("ocr of %s: %v: %s", filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
