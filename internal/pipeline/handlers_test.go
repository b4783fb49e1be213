package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/markdown"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

type stubTranscriber struct {
	text string
	err  error
}

func (s stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return s.text, s.err
}

type stubSummarizer struct {
	summary string
	prompt  string
	err     error
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, prompt string) (string, error) {
	s.prompt = prompt
	return s.summary, s.err
}

type stubOCR struct {
	text string
	err  error
}

func (s stubOCR) Extract(context.Context, string) (string, error) {
	return s.text, s.err
}

type stubArticles struct {
	meta model.LinkMeta
	err  error
}

func (s stubArticles) Extract(_ context.Context, url string) (model.LinkMeta, error) {
	if s.err != nil {
		return model.LinkMeta{}, s.err
	}
	meta := s.meta
	meta.URL = url
	return meta, nil
}

type stubVideos struct {
	title string
	err   error
}

func (s stubVideos) VideoTitle(context.Context, string) (string, error) {
	return s.title, s.err
}

var handlerTime = time.Date(2026, 1, 3, 14, 23, 0, 0, time.UTC)

func mediaMessage(kind model.Kind) *model.Message {
	return &model.Message{
		MessageID: 7,
		Username:  "alice",
		Timestamp: handlerTime,
		Kind:      kind,
		FileID:    model.StagedMediaMarker,
	}
}

// seedMedia drops a media file whose name carries the message's minute
// stamp, the way the fetch phase names downloads.
func seedMedia(t *testing.T, mediaDir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(mediaDir, 0o755))
	path := filepath.Join(mediaDir, name)
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0o644))
	return path
}

func TestResolveMedia(t *testing.T) {
	mediaDir := t.TempDir()
	want := seedMedia(t, mediaDir, "2026-01-03_14-23-05_photo.jpg")
	seedMedia(t, mediaDir, "2026-01-03_14-23-05_photo_transcript.txt")
	seedMedia(t, mediaDir, "2026-01-03_18-00-00_other.jpg")

	msg := mediaMessage(model.KindPhoto)
	assert.Equal(t, want, resolveMedia(mediaDir, msg), "transcripts and other minutes are skipped")

	// an explicit filename wins over the timestamp scan
	named := seedMedia(t, mediaDir, "explicit.jpg")
	msg.FileName = "explicit.jpg"
	assert.Equal(t, named, resolveMedia(mediaDir, msg))

	// nothing matches
	other := mediaMessage(model.KindPhoto)
	other.Timestamp = handlerTime.Add(5 * time.Hour)
	assert.Equal(t, "", resolveMedia(mediaDir, other))
}

func TestTextHandler(t *testing.T) {
	h := NewTextHandler()
	edited := handlerTime.Add(time.Hour)

	msg := &model.Message{Kind: model.KindText, Text: "plain note", EditedAt: &edited}
	assert.True(t, h.CanHandle(msg))
	assert.False(t, h.CanHandle(&model.Message{Kind: model.KindPhoto}))

	result, err := h.Process(context.Background(), msg, HandlerContext{})
	require.NoError(t, err)
	assert.Equal(t, "plain note\n\n", result.MarkdownContent)
	assert.Equal(t, model.KindText, result.Kind)
	assert.Equal(t, &edited, result.EditedAt, "message context carries through")
}

func TestMediaHandler_ImageWithOCR(t *testing.T) {
	mediaDir := t.TempDir()
	seedMedia(t, mediaDir, "2026-01-03_14-23-05_photo.jpg")

	h := NewMediaHandler(stubOCR{text: "scanned words"}, markdown.Config{Location: time.UTC})
	msg := mediaMessage(model.KindPhoto)
	msg.Caption = "whiteboard"

	result, err := h.Process(context.Background(), msg, HandlerContext{MediaDir: mediaDir})
	require.NoError(t, err)
	assert.Contains(t, result.MarkdownContent, "**Image**")
	assert.Contains(t, result.MarkdownContent, "![[2026-01-03_14-23-05_photo.jpg|whiteboard]]")
	assert.Equal(t, "scanned words", result.OCRText)
	assert.Equal(t, true, result.Metadata["has_caption"])
	require.Len(t, result.MediaFiles, 1)
}

func TestMediaHandler_SkipOCR(t *testing.T) {
	mediaDir := t.TempDir()
	seedMedia(t, mediaDir, "2026-01-03_14-23-05_photo.jpg")

	h := NewMediaHandler(stubOCR{text: "should not appear"}, markdown.Config{Location: time.UTC})
	msg := mediaMessage(model.KindPhoto)

	result, err := h.Process(context.Background(), msg, HandlerContext{
		MediaDir: mediaDir,
		Skip:     SkipOptions{OCR: true},
	})
	require.NoError(t, err)
	assert.Empty(t, result.OCRText)
}

func TestMediaHandler_MissingMedia(t *testing.T) {
	h := NewMediaHandler(nil, markdown.Config{Location: time.UTC})
	msg := mediaMessage(model.KindDocument)

	result, err := h.Process(context.Background(), msg, HandlerContext{MediaDir: t.TempDir()})
	require.NoError(t, err, "missing media degrades, never fails")
	assert.Contains(t, result.MarkdownContent, "**Document - Unavailable**")
	assert.Equal(t, "media_missing", result.Metadata["error"])
}

func TestAudioVideoHandler_TranscribesAndSummarizes(t *testing.T) {
	mediaDir := t.TempDir()
	seedMedia(t, mediaDir, "2026-01-03_14-23-05_video.mp4")

	sum := &stubSummarizer{summary: "short version"}
	h := NewAudioVideoHandler(
		stubTranscriber{text: "full transcript"},
		sum,
		markdown.Config{Location: time.UTC},
		Prompts{Audio: "audio prompt", Video: "video prompt"},
	)
	msg := mediaMessage(model.KindVideo)

	result, err := h.Process(context.Background(), msg, HandlerContext{MediaDir: mediaDir})
	require.NoError(t, err)

	expectedTranscript := filepath.Join(mediaDir, "2026-01-03_14-23-05_video_transcript.txt")
	assert.Equal(t, expectedTranscript, result.TranscriptFile)
	data, err := os.ReadFile(expectedTranscript)
	require.NoError(t, err)
	assert.Equal(t, "full transcript", string(data))

	assert.Equal(t, "short version", result.Summary)
	assert.Equal(t, "video prompt", sum.prompt, "video messages use the video prompt")
	assert.Contains(t, result.MarkdownContent, "Transcript: [[2026-01-03_14-23-05_video_transcript.txt]]")
	assert.Contains(t, result.MarkdownContent, "**Summary:**\nshort version")
	assert.Equal(t, true, result.Metadata["has_transcript"])
	assert.Equal(t, true, result.Metadata["has_summary"])
}

func TestAudioVideoHandler_TranscriptionFailureDegrades(t *testing.T) {
	mediaDir := t.TempDir()
	seedMedia(t, mediaDir, "2026-01-03_14-23-05_voice.ogg")

	h := NewAudioVideoHandler(
		stubTranscriber{err: errors.New("service down")},
		nil,
		markdown.Config{Location: time.UTC},
		Prompts{},
	)
	msg := mediaMessage(model.KindVoice)

	result, err := h.Process(context.Background(), msg, HandlerContext{MediaDir: mediaDir})
	require.NoError(t, err)
	assert.Contains(t, result.MarkdownContent, "*Transcription unavailable: service down*")
	assert.Empty(t, result.TranscriptFile)
	assert.Equal(t, false, result.Metadata["has_transcript"])
}

func TestAudioVideoHandler_SkipTranscription(t *testing.T) {
	mediaDir := t.TempDir()
	seedMedia(t, mediaDir, "2026-01-03_14-23-05_audio.mp3")

	h := NewAudioVideoHandler(
		stubTranscriber{text: "should not run"},
		nil,
		markdown.Config{Location: time.UTC},
		Prompts{},
	)
	msg := mediaMessage(model.KindAudio)

	result, err := h.Process(context.Background(), msg, HandlerContext{
		MediaDir: mediaDir,
		Skip:     SkipOptions{Transcription: true},
	})
	require.NoError(t, err)
	assert.Empty(t, result.TranscriptFile)
	assert.Contains(t, result.MarkdownContent, "**Audio Recording**")
}

func TestLinkHandler_CanHandle(t *testing.T) {
	h := NewLinkHandler(nil, nil, Prompts{})

	assert.True(t, h.CanHandle(&model.Message{Kind: model.KindLink, Text: "https://example.com/a"}))
	assert.False(t, h.CanHandle(&model.Message{Kind: model.KindLink, Text: "https://youtu.be/x"}),
		"pure YouTube links belong to the YouTube handler")
	assert.False(t, h.CanHandle(&model.Message{Kind: model.KindText, Text: "https://example.com"}))
}

func TestLinkHandler_ExtractsAndSummarizes(t *testing.T) {
	h := NewLinkHandler(
		stubArticles{meta: model.LinkMeta{Title: "A Post", Description: "about things"}},
		&stubSummarizer{summary: "tl;dr"},
		Prompts{Article: "article prompt"},
	)
	msg := &model.Message{Kind: model.KindLink, Text: "read https://example.com/post"}

	result, err := h.Process(context.Background(), msg, HandlerContext{})
	require.NoError(t, err)
	assert.Contains(t, result.MarkdownContent, "**Article: A Post**")
	assert.Contains(t, result.MarkdownContent, "https://example.com/post")
	assert.Equal(t, "tl;dr", result.Summary)
	require.Len(t, result.Links, 1)
	assert.Equal(t, "https://example.com/post", result.Links[0].URL)
	assert.Equal(t, "A Post", result.Links[0].Title)
}

func TestLinkHandler_ExtractionFailureDegrades(t *testing.T) {
	h := NewLinkHandler(stubArticles{err: errors.New("timeout")}, nil, Prompts{})
	msg := &model.Message{Kind: model.KindLink, Text: "https://example.com/slow"}

	result, err := h.Process(context.Background(), msg, HandlerContext{})
	require.NoError(t, err)
	assert.Contains(t, result.MarkdownContent, "**Article Link**")
	assert.Contains(t, result.MarkdownContent, "*Failed to extract article: timeout*")
	assert.Empty(t, result.Links)
	assert.Equal(t, "timeout", result.Metadata["error"])
}

func TestLinkHandler_SkipLinks(t *testing.T) {
	h := NewLinkHandler(stubArticles{meta: model.LinkMeta{Title: "x"}}, nil, Prompts{})
	msg := &model.Message{Kind: model.KindLink, Text: "https://example.com/a"}

	result, err := h.Process(context.Background(), msg, HandlerContext{Skip: SkipOptions{Links: true}})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a\n\n", result.MarkdownContent)
	assert.Empty(t, result.Links)
}

func TestYouTubeHandler(t *testing.T) {
	h := NewYouTubeHandler(stubVideos{title: "Go Concurrency Patterns"})
	msg := &model.Message{Kind: model.KindLink, Text: "https://www.youtube.com/watch?v=f6kdp27TYZs"}

	assert.True(t, h.CanHandle(msg))
	assert.False(t, h.CanHandle(&model.Message{Kind: model.KindLink, Text: "https://example.com"}))

	result, err := h.Process(context.Background(), msg, HandlerContext{})
	require.NoError(t, err)
	assert.Contains(t, result.MarkdownContent, "**YouTube: Go Concurrency Patterns**")
	assert.Equal(t, "youtube", result.Metadata["type"])
	require.Len(t, result.Links, 1)
	assert.Equal(t, "Go Concurrency Patterns", result.Links[0].Title)
}

func TestYouTubeHandler_LookupFailureDegrades(t *testing.T) {
	h := NewYouTubeHandler(stubVideos{err: errors.New("oembed 404")})
	msg := &model.Message{Kind: model.KindLink, Text: "https://youtu.be/gone"}

	result, err := h.Process(context.Background(), msg, HandlerContext{})
	require.NoError(t, err)
	assert.Contains(t, result.MarkdownContent, "*Failed to resolve video: oembed 404*")
	assert.Empty(t, result.Links)
}
