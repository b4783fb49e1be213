// Package markdown implements the two daily-file formats: the minimal
// staging capture written during fetch and the metadata-rich processed
// format written during enrichment.
package markdown

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// WikilinkStyle selects how media references are rendered.
const (
	StyleObsidian = "obsidian"
	StyleMarkdown = "markdown"
)

// Config carries the formatting knobs shared by the writers and reader.
type Config struct {
	Location         *time.Location
	WikilinkStyle    string
	IncludeMessageID bool
}

// Normalize fills defaults for zero-valued fields.
func (c *Config) Normalize() {
	if c.Location == nil {
		c.Location = time.Local
	}
	switch c.WikilinkStyle {
	case StyleObsidian, StyleMarkdown:
	default:
		c.WikilinkStyle = StyleObsidian
	}
}

var urlRe = regexp.MustCompile(`https?://[^\s<>"\)\]]+`)

// ExtractURLs returns every http(s) URL found in text, in order.
func ExtractURLs(text string) []string {
	return urlRe.FindAllString(text, -1)
}

// IsYouTubeURL reports whether a URL points at YouTube.
func IsYouTubeURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "youtube.com/") || strings.Contains(lower, "youtu.be/")
}

// FormatDate renders t as the daily file stem (YYYY-MM-DD) in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// FormatTime renders t as the entry-header clock time (HH:MM) in loc.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}

// SanitizeText collapses whitespace into single spaces and truncates to
// max runes with an ellipsis, for use in entry-header previews.
func SanitizeText(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}

// FormatWikilink renders a media reference in the configured style. Embeds
// prefix the link with "!" so images render inline.
func FormatWikilink(filename, caption, style string, embed bool) string {
	if style == StyleMarkdown {
		label := caption
		if label == "" {
			label = filename
		}
		link := fmt.Sprintf("[%s](%s)", label, filename)
		if embed {
			return "!" + link
		}
		return link
	}

	link := fmt.Sprintf("[[%s]]", filename)
	if caption != "" {
		link = fmt.Sprintf("[[%s|%s]]", filename, caption)
	}
	if embed {
		return "!" + link
	}
	return link
}

// FormatTranscriptLink renders the link to a transcript sidecar file.
func FormatTranscriptLink(filename, style string) string {
	if style == StyleMarkdown {
		return fmt.Sprintf("Transcript: [%s](%s)\n\n", filename, filename)
	}
	return fmt.Sprintf("Transcript: [[%s]]\n\n", filename)
}
