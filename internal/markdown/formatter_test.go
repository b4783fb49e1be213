package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	text := "see https://example.com/a and http://foo.bar/baz?q=1 plus (https://nested.io/x)"
	urls := ExtractURLs(text)
	assert.Equal(t, []string{
		"https://example.com/a",
		"http://foo.bar/baz?q=1",
		"https://nested.io/x",
	}, urls)

	assert.Empty(t, ExtractURLs("no links here"))
}

func TestIsYouTubeURL(t *testing.T) {
	assert.True(t, IsYouTubeURL("https://www.youtube.com/watch?v=abc"))
	assert.True(t, IsYouTubeURL("https://YOUTU.BE/abc"))
	assert.False(t, IsYouTubeURL("https://vimeo.com/123"))
}

func TestFormatDateAndTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	ts := time.Date(2026, 1, 3, 23, 30, 0, 0, time.UTC)

	// 23:30 UTC rolls over to the next local day
	assert.Equal(t, "2026-01-04", FormatDate(ts, loc))
	assert.Equal(t, "01:30", FormatTime(ts, loc))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "a b c", SanitizeText("a\n b\t\tc", 50))
	assert.Equal(t, "hello...", SanitizeText("hello world", 5))
	assert.Equal(t, "", SanitizeText("   ", 50))
}

func TestFormatWikilink(t *testing.T) {
	assert.Equal(t, "![[photo.jpg]]", FormatWikilink("photo.jpg", "", StyleObsidian, true))
	assert.Equal(t, "[[photo.jpg|sunset]]", FormatWikilink("photo.jpg", "sunset", StyleObsidian, false))
	assert.Equal(t, "![sunset](photo.jpg)", FormatWikilink("photo.jpg", "sunset", StyleMarkdown, true))
	assert.Equal(t, "[doc.pdf](doc.pdf)", FormatWikilink("doc.pdf", "", StyleMarkdown, false))
}

func TestFormatTranscriptLink(t *testing.T) {
	assert.Equal(t, "Transcript: [[a_transcript.txt]]\n\n",
		FormatTranscriptLink("a_transcript.txt", StyleObsidian))
	assert.Equal(t, "Transcript: [a_transcript.txt](a_transcript.txt)\n\n",
		FormatTranscriptLink("a_transcript.txt", StyleMarkdown))
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{WikilinkStyle: "weird"}
	cfg.Normalize()
	assert.Equal(t, StyleObsidian, cfg.WikilinkStyle)
	assert.NotNil(t, cfg.Location)
}
