package markdown

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

// ProcessedWriter appends enriched messages to per-day processed files.
// Entries carry the same header as staging plus a metadata block holding
// every enrichment the pipeline produced.
type ProcessedWriter struct {
	cfg Config
}

// NewProcessedWriter builds a processed writer; cfg is normalized on the
// way in.
func NewProcessedWriter(cfg Config) *ProcessedWriter {
	cfg.Normalize()
	return &ProcessedWriter{cfg: cfg}
}

// Append writes one enriched message entry to the user's processed file
// for the message's local date and returns the file path written.
func (w *ProcessedWriter) Append(processedDir string, msg *model.Message, result *model.EnrichedResult) (string, error) {
	header := fmt.Sprintf("## %s - %s", FormatTime(msg.Timestamp, w.cfg.Location), previewText(msg))
	entry := fmt.Sprintf("%s\n%s\n---\n\n", header, w.formatMetadata(msg, result))

	return appendEntry(processedDir, FormatDate(msg.Timestamp, w.cfg.Location), entry)
}

func (w *ProcessedWriter) formatMetadata(msg *model.Message, result *model.EnrichedResult) string {
	var lines []string

	lines = append(lines, "type: "+string(result.Kind))

	if msg.Text != "" && (result.Kind == model.KindText || result.Kind == model.KindLink) {
		lines = appendBlockScalar(lines, "content", msg.Text)
	}

	for _, mediaFile := range result.MediaFiles {
		link := FormatWikilink(filepath.Base(mediaFile), "", w.cfg.WikilinkStyle, true)
		lines = append(lines, "file: "+link)
	}

	if msg.Caption != "" {
		lines = appendBlockScalar(lines, "caption", msg.Caption)
	}

	if result.TranscriptFile != "" {
		link := FormatWikilink(filepath.Base(result.TranscriptFile), "", w.cfg.WikilinkStyle, false)
		lines = append(lines, "transcript: "+link)
	}

	if result.Summary != "" {
		lines = appendBlockScalar(lines, "summary", result.Summary)
	}
	if result.OCRText != "" {
		lines = appendBlockScalar(lines, "ocr_text", result.OCRText)
	}

	if len(result.Tags) > 0 {
		lines = append(lines, fmt.Sprintf("tags: [%s]", strings.Join(result.Tags, ", ")))
	}

	if len(result.Links) > 0 {
		lines = append(lines, "links:")
		for _, link := range result.Links {
			lines = append(lines, fmt.Sprintf("  - url: %q", link.URL))
			if link.Title != "" {
				lines = append(lines, fmt.Sprintf("    title: %q", link.Title))
			}
			if link.Description != "" {
				lines = append(lines, fmt.Sprintf("    description: %q", link.Description))
			}
		}
	}

	if result.ReplyTo != nil {
		lines = append(lines, "reply_to:")
		lines = append(lines, fmt.Sprintf("  message_id: %d", result.ReplyTo.MessageID))
		if result.ReplyTo.Timestamp != nil {
			lines = append(lines, fmt.Sprintf("  timestamp: %q", result.ReplyTo.Timestamp.Format("2006-01-02T15:04:05Z07:00")))
		}
		if result.ReplyTo.Preview != "" {
			lines = append(lines, fmt.Sprintf("  preview: %q", result.ReplyTo.Preview))
		}
	}

	if result.ForwardedFrom != nil {
		lines = append(lines, "forwarded_from:")
		lines = append(lines, fmt.Sprintf("  user: %q", result.ForwardedFrom.User))
		if result.ForwardedFrom.ChatID != 0 {
			lines = append(lines, fmt.Sprintf("  chat_id: %d", result.ForwardedFrom.ChatID))
		}
		if result.ForwardedFrom.OriginalDate != nil {
			lines = append(lines, fmt.Sprintf("  original_date: %q", result.ForwardedFrom.OriginalDate.Format("2006-01-02T15:04:05Z07:00")))
		}
	}

	if result.EditedAt != nil {
		lines = append(lines, fmt.Sprintf("edited_at: %q", result.EditedAt.Format("2006-01-02T15:04:05Z07:00")))
	}

	if w.cfg.IncludeMessageID {
		lines = append(lines, fmt.Sprintf("message_id: %d", msg.MessageID))
	}

	// Handler-specific extras, rendered deterministically.
	if len(result.Metadata) > 0 {
		keys := make([]string, 0, len(result.Metadata))
		for k := range result.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, result.Metadata[k]))
		}
	}

	return strings.Join(lines, "\n")
}

// appendBlockScalar renders a multi-line value as a YAML literal block.
func appendBlockScalar(lines []string, key, value string) []string {
	lines = append(lines, key+": |-")
	for _, line := range strings.Split(value, "\n") {
		lines = append(lines, "  "+line)
	}
	return lines
}
