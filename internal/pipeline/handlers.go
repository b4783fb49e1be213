package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/markdown"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/util"
)

// Transcriber converts an audio or video file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Summarizer condenses content under a task-specific prompt.
type Summarizer interface {
	Summarize(ctx context.Context, content, prompt string) (string, error)
}

// OCREngine extracts text from an image file.
type OCREngine interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ArticleExtractor fetches metadata for a web page.
type ArticleExtractor interface {
	Extract(ctx context.Context, url string) (model.LinkMeta, error)
}

// VideoResolver looks up metadata for a video URL.
type VideoResolver interface {
	VideoTitle(ctx context.Context, url string) (string, error)
}

// Tagger derives tags from a message and its enrichments.
type Tagger interface {
	Tags(msg *model.Message, result *model.EnrichedResult) []string
}

// SkipOptions disables individual enrichment steps for a run.
type SkipOptions struct {
	Transcription bool
	OCR           bool
	Summarization bool
	Tags          bool
	Links         bool
}

// Prompts holds the per-content-type summarization prompts.
type Prompts struct {
	Audio   string
	Video   string
	Article string
	YouTube string
}

// HandlerContext carries the per-user environment a handler runs in.
type HandlerContext struct {
	Username     string
	MediaDir     string
	ProcessedDir string
	Skip         SkipOptions
}

// Handler enriches one kind of message. Dispatch walks an ordered handler
// list and uses the first one whose CanHandle returns true.
type Handler interface {
	CanHandle(msg *model.Message) bool
	Process(ctx context.Context, msg *model.Message, hc HandlerContext) (*model.EnrichedResult, error)
}

// carryContext copies the message context fields every handler preserves.
func carryContext(result *model.EnrichedResult, msg *model.Message) *model.EnrichedResult {
	result.ReplyTo = msg.ReplyTo
	result.ForwardedFrom = msg.ForwardedFrom
	result.EditedAt = msg.EditedAt
	if result.Metadata == nil {
		result.Metadata = map[string]any{}
	}
	return result
}

// resolveMedia locates the media file for a message. Messages parsed back
// from staging carry only a marker, so the lookup falls back to scanning the
// media directory for files stamped with the message's minute.
func resolveMedia(mediaDir string, msg *model.Message) string {
	if msg.FileName != "" {
		path := filepath.Join(mediaDir, msg.FileName)
		if util.FileExists(path) {
			return path
		}
	}
	if msg.FileID != model.StagedMediaMarker {
		return ""
	}

	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		return ""
	}
	prefix := msg.Timestamp.Format("2006-01-02_15-04")
	var candidates []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, "_transcript.txt") {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.Strings(candidates)
	return filepath.Join(mediaDir, candidates[0])
}

// TextHandler passes plain text messages through unchanged.
type TextHandler struct{}

func NewTextHandler() *TextHandler { return &TextHandler{} }

func (h *TextHandler) CanHandle(msg *model.Message) bool {
	return msg.Kind == model.KindText
}

func (h *TextHandler) Process(_ context.Context, msg *model.Message, _ HandlerContext) (*model.EnrichedResult, error) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	return carryContext(&model.EnrichedResult{
		MarkdownContent: text + "\n\n",
		Kind:            model.KindText,
	}, msg), nil
}

// MediaHandler handles images and documents: a wikilink to the stored file
// plus OCR text for images when an engine is configured.
type MediaHandler struct {
	ocr OCREngine
	cfg markdown.Config
}

func NewMediaHandler(ocr OCREngine, cfg markdown.Config) *MediaHandler {
	cfg.Normalize()
	return &MediaHandler{ocr: ocr, cfg: cfg}
}

func (h *MediaHandler) CanHandle(msg *model.Message) bool {
	switch msg.Kind {
	case model.KindImage, model.KindPhoto, model.KindDocument:
		return true
	}
	return false
}

func (h *MediaHandler) Process(ctx context.Context, msg *model.Message, hc HandlerContext) (*model.EnrichedResult, error) {
	isImage := msg.Kind == model.KindImage || msg.Kind == model.KindPhoto
	label := "Document"
	if isImage {
		label = "Image"
	}

	mediaFile := resolveMedia(hc.MediaDir, msg)
	if mediaFile == "" {
		log.Warn().Int64("message_id", msg.MessageID).Str("kind", string(msg.Kind)).
			Msg("media file not found for message")
		return carryContext(&model.EnrichedResult{
			MarkdownContent: fmt.Sprintf("**%s - Unavailable**\n\n", label),
			Kind:            msg.Kind,
			Metadata:        map[string]any{"error": "media_missing"},
		}, msg), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", label)
	wikilink := markdown.FormatWikilink(filepath.Base(mediaFile), msg.Caption, h.cfg.WikilinkStyle, isImage)
	b.WriteString(wikilink + "\n\n")
	if msg.Caption != "" && h.cfg.WikilinkStyle != markdown.StyleObsidian {
		b.WriteString(msg.Caption + "\n\n")
	}

	result := carryContext(&model.EnrichedResult{
		Kind:       msg.Kind,
		MediaFiles: []string{mediaFile},
		Metadata: map[string]any{
			"filename":    filepath.Base(mediaFile),
			"has_caption": msg.Caption != "",
		},
	}, msg)

	if isImage && h.ocr != nil && !hc.Skip.OCR {
		text, err := h.ocr.Extract(ctx, mediaFile)
		if err != nil {
			log.Warn().Err(err).Str("file", mediaFile).Msg("OCR failed")
		} else if text != "" {
			result.OCRText = text
		}
	}

	result.MarkdownContent = b.String()
	return result, nil
}

// AudioVideoHandler transcribes audio and video messages, writes the
// transcript as a sidecar file next to the media, and optionally summarizes
// the transcript.
type AudioVideoHandler struct {
	transcriber Transcriber
	summarizer  Summarizer
	cfg         markdown.Config
	prompts     Prompts
}

func NewAudioVideoHandler(tr Transcriber, sum Summarizer, cfg markdown.Config, prompts Prompts) *AudioVideoHandler {
	cfg.Normalize()
	return &AudioVideoHandler{transcriber: tr, summarizer: sum, cfg: cfg, prompts: prompts}
}

func (h *AudioVideoHandler) CanHandle(msg *model.Message) bool {
	switch msg.Kind {
	case model.KindAudio, model.KindVoice, model.KindVideo, model.KindVideoNote:
		return true
	}
	return false
}

func (h *AudioVideoHandler) Process(ctx context.Context, msg *model.Message, hc HandlerContext) (*model.EnrichedResult, error) {
	labels := map[model.Kind]string{
		model.KindAudio:     "Audio Recording",
		model.KindVoice:     "Voice Message",
		model.KindVideo:     "Video",
		model.KindVideoNote: "Video Note",
	}
	label := labels[msg.Kind]

	mediaFile := resolveMedia(hc.MediaDir, msg)
	if mediaFile == "" {
		log.Warn().Int64("message_id", msg.MessageID).Str("kind", string(msg.Kind)).
			Msg("media file not found for message")
		return carryContext(&model.EnrichedResult{
			MarkdownContent: fmt.Sprintf("**%s - Unavailable**\n\n", label),
			Kind:            msg.Kind,
			Metadata:        map[string]any{"error": "media_missing"},
		}, msg), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", label)
	b.WriteString(markdown.FormatWikilink(filepath.Base(mediaFile), msg.Caption, h.cfg.WikilinkStyle, true) + "\n\n")

	result := carryContext(&model.EnrichedResult{
		Kind:       msg.Kind,
		MediaFiles: []string{mediaFile},
		Metadata:   map[string]any{"filename": filepath.Base(mediaFile)},
	}, msg)

	if h.transcriber != nil && !hc.Skip.Transcription {
		transcript, err := h.transcriber.Transcribe(ctx, mediaFile)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("file", mediaFile).Msg("transcription failed")
			fmt.Fprintf(&b, "*Transcription unavailable: %v*\n\n", err)
		case transcript != "":
			name := util.TranscriptFilename(filepath.Base(mediaFile))
			path := filepath.Join(hc.MediaDir, name)
			if werr := os.WriteFile(path, []byte(transcript), 0o644); werr != nil {
				log.Warn().Err(werr).Str("file", path).Msg("failed to write transcript")
			} else {
				result.TranscriptFile = path
				b.WriteString(markdown.FormatTranscriptLink(name, h.cfg.WikilinkStyle))
			}
			if h.summarizer != nil && !hc.Skip.Summarization {
				prompt := h.prompts.Audio
				if msg.Kind == model.KindVideo || msg.Kind == model.KindVideoNote {
					prompt = h.prompts.Video
				}
				summary, serr := h.summarizer.Summarize(ctx, transcript, prompt)
				if serr != nil {
					log.Warn().Err(serr).Msg("failed to generate summary")
				} else if summary != "" {
					result.Summary = summary
					fmt.Fprintf(&b, "**Summary:**\n%s\n\n", summary)
				}
			}
		}
	}

	result.Metadata["has_transcript"] = result.TranscriptFile != ""
	result.Metadata["has_summary"] = result.Summary != ""
	result.MarkdownContent = b.String()
	return result, nil
}

// LinkHandler enriches article links: page metadata plus an optional
// summary of the page description.
type LinkHandler struct {
	articles   ArticleExtractor
	summarizer Summarizer
	prompts    Prompts
}

func NewLinkHandler(articles ArticleExtractor, sum Summarizer, prompts Prompts) *LinkHandler {
	return &LinkHandler{articles: articles, summarizer: sum, prompts: prompts}
}

func (h *LinkHandler) CanHandle(msg *model.Message) bool {
	if msg.Kind != model.KindLink || msg.Text == "" {
		return false
	}
	for _, url := range markdown.ExtractURLs(msg.Text) {
		if !markdown.IsYouTubeURL(url) {
			return true
		}
	}
	return false
}

func (h *LinkHandler) Process(ctx context.Context, msg *model.Message, hc HandlerContext) (*model.EnrichedResult, error) {
	var articleURL string
	for _, url := range markdown.ExtractURLs(msg.Text) {
		if !markdown.IsYouTubeURL(url) {
			articleURL = url
			break
		}
	}
	if articleURL == "" {
		return carryContext(&model.EnrichedResult{
			MarkdownContent: msg.Text + "\n\n",
			Kind:            model.KindLink,
			Metadata:        map[string]any{"error": "no_article_urls"},
		}, msg), nil
	}

	result := carryContext(&model.EnrichedResult{
		Kind:     model.KindLink,
		Metadata: map[string]any{"url": articleURL},
	}, msg)

	if h.articles == nil || hc.Skip.Links {
		result.MarkdownContent = msg.Text + "\n\n"
		return result, nil
	}

	meta, err := h.articles.Extract(ctx, articleURL)
	if err != nil {
		log.Warn().Err(err).Str("url", articleURL).Msg("article extraction failed")
		result.MarkdownContent = fmt.Sprintf("**Article Link**\n\n%s\n\n*Failed to extract article: %v*\n\n", articleURL, err)
		result.Metadata["error"] = err.Error()
		return result, nil
	}

	title := meta.Title
	if title == "" {
		title = "Article"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Article: %s**\n\n%s\n\n", title, articleURL)

	if h.summarizer != nil && !hc.Skip.Summarization && meta.Description != "" {
		summary, serr := h.summarizer.Summarize(ctx, meta.Description, h.prompts.Article)
		if serr != nil {
			log.Warn().Err(serr).Str("url", articleURL).Msg("failed to generate article summary")
		} else if summary != "" {
			result.Summary = summary
			fmt.Fprintf(&b, "**Summary:**\n%s\n\n", summary)
		}
	}

	result.Links = []model.LinkMeta{meta}
	result.Metadata["title"] = meta.Title
	result.Metadata["has_summary"] = result.Summary != ""
	result.MarkdownContent = b.String()
	return result, nil
}

// YouTubeHandler enriches YouTube links with video metadata.
type YouTubeHandler struct {
	videos VideoResolver
}

func NewYouTubeHandler(videos VideoResolver) *YouTubeHandler {
	return &YouTubeHandler{videos: videos}
}

func (h *YouTubeHandler) CanHandle(msg *model.Message) bool {
	if msg.Kind != model.KindLink || msg.Text == "" {
		return false
	}
	for _, url := range markdown.ExtractURLs(msg.Text) {
		if markdown.IsYouTubeURL(url) {
			return true
		}
	}
	return false
}

func (h *YouTubeHandler) Process(ctx context.Context, msg *model.Message, hc HandlerContext) (*model.EnrichedResult, error) {
	var videoURL string
	for _, url := range markdown.ExtractURLs(msg.Text) {
		if markdown.IsYouTubeURL(url) {
			videoURL = url
			break
		}
	}

	result := carryContext(&model.EnrichedResult{
		Kind:     model.KindLink,
		Metadata: map[string]any{"type": "youtube", "url": videoURL},
	}, msg)

	if h.videos == nil || hc.Skip.Links {
		result.MarkdownContent = msg.Text + "\n\n"
		return result, nil
	}

	title, err := h.videos.VideoTitle(ctx, videoURL)
	if err != nil {
		log.Warn().Err(err).Str("url", videoURL).Msg("youtube metadata lookup failed")
		result.MarkdownContent = fmt.Sprintf("**YouTube Video**\n\n%s\n\n*Failed to resolve video: %v*\n\n", videoURL, err)
		result.Metadata["error"] = err.Error()
		return result, nil
	}

	result.Links = []model.LinkMeta{{URL: videoURL, Title: title}}
	result.Metadata["title"] = title
	result.MarkdownContent = fmt.Sprintf("**YouTube: %s**\n\n%s\n\n", title, videoURL)
	return result, nil
}
