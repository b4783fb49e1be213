package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9._\-]+`)

// TimestampStem renders a timestamp the way media filenames embed it.
func TimestampStem(ts time.Time) string {
	return ts.Format("2006-01-02_15-04-05")
}

// SanitizeFilename strips characters unsafe for filenames and caps length,
// preserving the extension.
func SanitizeFilename(name string, maxLen int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	stem = unsafeFilenameRe.ReplaceAllString(stem, "_")
	stem = strings.Trim(stem, "_")
	if maxLen > 0 && len(stem) > maxLen {
		stem = stem[:maxLen]
	}
	if stem == "" {
		stem = "file"
	}
	return stem + ext
}

// MediaFilename builds a media filename of the form
// YYYY-MM-DD_HH-MM-SS_<name><ext>. When the original filename is absent the
// media type stands in for the name part.
func MediaFilename(ts time.Time, mediaType, originalName, ext string) string {
	var namePart string
	if originalName != "" {
		namePart = SanitizeFilename(originalName, 50)
		if filepath.Ext(namePart) == "" && ext != "" {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			namePart += ext
		}
	} else {
		namePart = mediaType
		if ext != "" && strings.HasPrefix(ext, ".") {
			namePart += ext
		}
	}
	return TimestampStem(ts) + "_" + namePart
}

// TranscriptFilename derives a transcript sidecar name from a media
// filename, e.g. "2026-01-03_14-23-45_video.mp4" to
// "2026-01-03_14-23-45_video_transcript.txt".
func TranscriptFilename(mediaFilename string) string {
	stem := strings.TrimSuffix(mediaFilename, filepath.Ext(mediaFilename))
	return stem + "_transcript.txt"
}

// UniqueFilename returns a name not yet present in dir, appending _1, _2,
// ... before the extension when needed.
func UniqueFilename(dir, name string) string {
	if !FileExists(filepath.Join(dir, name)) {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if !FileExists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}

// ExtensionForMime maps common Telegram media MIME types to extensions.
func ExtensionForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	case "audio/x-wav", "audio/wav":
		return ".wav"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return ".m4a"
	case "application/pdf":
		return ".pdf"
	case "text/plain":
		return ".txt"
	}
	if _, ext, ok := strings.Cut(mime, "/"); ok && ext != "" {
		return "." + ext
	}
	return ""
}
