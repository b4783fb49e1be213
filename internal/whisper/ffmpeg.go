package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const convertTimeout = 5 * time.Minute

// wavExtensions lists formats the backends accept without conversion.
var wavExtensions = map[string]bool{
	".wav": true,
	".mp3": true,
	".m4a": true,
	".ogg": true,
}

// ensureUploadable converts a media file to 16 kHz mono WAV when its format
// is not accepted directly. It returns the path to upload and a cleanup
// function for the temporary file (a no-op when no conversion happened).
func ensureUploadable(ctx context.Context, path string) (string, func(), error) {
	if wavExtensions[strings.ToLower(filepath.Ext(path))] {
		return path, func() {}, nil
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", nil, fmt.Errorf("ffmpeg not found: %w", ErrUnavailable)
	}

	out, err := os.CreateTemp("", "trudy-audio-*.wav")
	if err != nil {
		return "", nil, err
	}
	out.Close()
	wavPath := out.Name()
	cleanup := func() { os.Remove(wavPath) }

	cctx, cancel := context.WithTimeout(ctx, convertTimeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "ffmpeg",
		"-y",
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		wavPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return "", nil, fmt.Errorf("ffmpeg conversion of %s: %w", filepath.Base(path), ErrTimeout)
		}
		log.Debug().Str("output", string(output)).Msg("ffmpeg failed")
		return "", nil, fmt.Errorf("ffmpeg conversion of %s: %w", filepath.Base(path), err)
	}
	return wavPath, cleanup, nil
}
