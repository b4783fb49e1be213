package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

func TestProcessedWriter_TextEntry(t *testing.T) {
	dir := t.TempDir()
	w := NewProcessedWriter(utcConfig())

	msg := testMessage(model.KindText)
	msg.Text = "line one\nline two"
	result := &model.EnrichedResult{Kind: model.KindText, Tags: []string{"#note", "#text"}}

	path, err := w.Append(dir, msg, result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-01-03.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "## 14:23 - line one line two")
	assert.Contains(t, content, "type: text")
	assert.Contains(t, content, "content: |-\n  line one\n  line two")
	assert.Contains(t, content, "tags: [#note, #text]")
	assert.Contains(t, content, "\n---\n")
}

func TestProcessedWriter_MediaEntry(t *testing.T) {
	dir := t.TempDir()
	w := NewProcessedWriter(utcConfig())

	msg := testMessage(model.KindVideo)
	msg.Caption = "talk recording"
	result := &model.EnrichedResult{
		Kind:           model.KindVideo,
		MediaFiles:     []string{"/data/media/alice/2026-01-03_14-23-00_video.mp4"},
		TranscriptFile: "/data/media/alice/2026-01-03_14-23-00_video_transcript.txt",
		Summary:        "A talk about pipelines.",
		Metadata:       map[string]any{"has_transcript": true},
	}

	path, err := w.Append(dir, msg, result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "type: video")
	assert.Contains(t, content, "file: ![[2026-01-03_14-23-00_video.mp4]]")
	assert.Contains(t, content, "caption: |-\n  talk recording")
	assert.Contains(t, content, "transcript: [[2026-01-03_14-23-00_video_transcript.txt]]")
	assert.Contains(t, content, "summary: |-\n  A talk about pipelines.")
	assert.Contains(t, content, "has_transcript: true")
	assert.NotContains(t, content, "message_id:", "disabled by default")
}

func TestProcessedWriter_LinkEntry(t *testing.T) {
	dir := t.TempDir()
	w := NewProcessedWriter(utcConfig())

	msg := testMessage(model.KindLink)
	msg.Text = "https://example.com/post"
	result := &model.EnrichedResult{
		Kind: model.KindLink,
		Links: []model.LinkMeta{
			{URL: "https://example.com/post", Title: "A Post", Description: "About things."},
		},
	}

	path, err := w.Append(dir, msg, result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "type: link")
	assert.Contains(t, content, "content: |-\n  https://example.com/post")
	assert.Contains(t, content, "links:\n  - url: \"https://example.com/post\"")
	assert.Contains(t, content, "    title: \"A Post\"")
	assert.Contains(t, content, "    description: \"About things.\"")
}

func TestProcessedWriter_ContextFields(t *testing.T) {
	dir := t.TempDir()
	w := NewProcessedWriter(Config{Location: time.UTC, IncludeMessageID: true})

	replyTime := time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC)
	edited := time.Date(2026, 1, 3, 15, 0, 0, 0, time.UTC)

	msg := testMessage(model.KindText)
	msg.Text = "replying"
	result := &model.EnrichedResult{
		Kind: model.KindText,
		ReplyTo: &model.ReplyRef{
			MessageID: 77,
			Timestamp: &replyTime,
			Preview:   "original text",
		},
		ForwardedFrom: &model.ForwardRef{User: "bob", ChatID: 2002},
		EditedAt:      &edited,
	}

	path, err := w.Append(dir, msg, result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "reply_to:\n  message_id: 77")
	assert.Contains(t, content, "  preview: \"original text\"")
	assert.Contains(t, content, "forwarded_from:\n  user: \"bob\"\n  chat_id: 2002")
	assert.Contains(t, content, "edited_at: \"2026-01-03T15:00:00Z\"")
	assert.Contains(t, content, "message_id: 100")
}

func TestProcessedWriter_MetadataSorted(t *testing.T) {
	dir := t.TempDir()
	w := NewProcessedWriter(utcConfig())

	msg := testMessage(model.KindText)
	msg.Text = "x"
	result := &model.EnrichedResult{
		Kind:     model.KindText,
		Metadata: map[string]any{"zeta": 1, "alpha": "two", "mid": true},
	}

	path, err := w.Append(dir, msg, result)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	alpha := strings.Index(content, "alpha: two")
	mid := strings.Index(content, "mid: true")
	zeta := strings.Index(content, "zeta: 1")
	require.GreaterOrEqual(t, alpha, 0)
	assert.Less(t, alpha, mid)
	assert.Less(t, mid, zeta)
}
