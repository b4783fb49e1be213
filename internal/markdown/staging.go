package markdown

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/filelock"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/util"
)

const previewLen = 50

var kindLabels = map[model.Kind]string{
	model.KindImage:     "Image",
	model.KindPhoto:     "Image",
	model.KindVideo:     "Video",
	model.KindVideoNote: "Video Note",
	model.KindAudio:     "Audio",
	model.KindVoice:     "Voice Message",
	model.KindDocument:  "Document",
}

var labelKinds = map[string]model.Kind{
	"[Image]":         model.KindImage,
	"[Video]":         model.KindVideo,
	"[Video Note]":    model.KindVideoNote,
	"[Audio]":         model.KindAudio,
	"[Voice Message]": model.KindVoice,
	"[Document]":      model.KindDocument,
}

// previewText builds the entry-header preview: a media-type label for
// attachments, otherwise the first 50 characters of text or caption.
func previewText(msg *model.Message) string {
	if label, ok := kindLabels[msg.Kind]; ok {
		return "[" + label + "]"
	}
	if msg.Text != "" {
		return SanitizeText(msg.Text, previewLen)
	}
	if msg.Caption != "" {
		return SanitizeText(msg.Caption, previewLen)
	}
	return "[Empty Message]"
}

// appendEntry writes one entry to a daily file under an exclusive advisory
// lock so concurrent appenders to the same file serialize.
func appendEntry(dir, dateStem, entry string) (string, error) {
	if err := util.PrepareDir(dir); err != nil {
		return "", fmt.Errorf("create daily directory: %w", err)
	}
	path := filepath.Join(dir, dateStem+".md")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open daily file: %w", err)
	}
	defer f.Close()

	err = filelock.WithLock(f, func() error {
		_, werr := f.WriteString(entry)
		return werr
	})
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", path, err)
	}
	return path, nil
}

// StagingWriter appends raw fetched messages to per-day staging files in
// the minimal first-phase format.
type StagingWriter struct {
	cfg Config
}

// NewStagingWriter builds a staging writer; cfg is normalized on the way in.
func NewStagingWriter(cfg Config) *StagingWriter {
	cfg.Normalize()
	return &StagingWriter{cfg: cfg}
}

// Append writes one message entry to the user's staging file for the
// message's local date and returns the file path written.
func (w *StagingWriter) Append(stagingDir string, msg *model.Message, mediaPath string) (string, error) {
	header := fmt.Sprintf("## %s - %s", FormatTime(msg.Timestamp, w.cfg.Location), previewText(msg))
	content := w.formatContent(msg, mediaPath)
	entry := fmt.Sprintf("%s\n\n%s\n\n---\n\n", header, content)

	return appendEntry(stagingDir, FormatDate(msg.Timestamp, w.cfg.Location), entry)
}

func (w *StagingWriter) formatContent(msg *model.Message, mediaPath string) string {
	if mediaPath != "" {
		link := stagingMediaLink(msg.Kind, mediaPath)
		if msg.Caption != "" {
			return link + "\n\nCaption: " + msg.Caption
		}
		return link
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// stagingMediaLink renders the relative link from a staging file at
// staging/<user>/DATE.md to its media file at media/<user>/<name>.
func stagingMediaLink(kind model.Kind, mediaPath string) string {
	rel := fmt.Sprintf("../media/%s/%s", filepath.Base(filepath.Dir(mediaPath)), filepath.Base(mediaPath))
	switch kind {
	case model.KindImage, model.KindPhoto:
		return fmt.Sprintf("![Image](%s)", rel)
	case model.KindVideo, model.KindVideoNote:
		return fmt.Sprintf("[Video](%s)", rel)
	case model.KindAudio, model.KindVoice:
		return fmt.Sprintf("[Audio](%s)", rel)
	case model.KindDocument:
		return fmt.Sprintf("[%s](%s)", filepath.Base(mediaPath), rel)
	}
	return fmt.Sprintf("[Media](%s)", rel)
}

// StagingReader parses staging files back into message records for the
// process phase. Malformed entries are skipped, not fatal.
type StagingReader struct {
	cfg Config
}

// NewStagingReader builds a staging reader; cfg is normalized on the way in.
func NewStagingReader(cfg Config) *StagingReader {
	cfg.Normalize()
	return &StagingReader{cfg: cfg}
}

var (
	headerRe   = regexp.MustCompile(`^##\s+(\d{1,2}:\d{2})\s+-\s+(.+)`)
	embedRe    = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	videoRe    = regexp.MustCompile(`\[Video\]\(.*?\)`)
	audioRe    = regexp.MustCompile(`\[Audio\]\(.*?\)`)
	documentRe = regexp.MustCompile(`(?i)\[.*?\]\(.*?\.pdf\)`)
	captionRe  = regexp.MustCompile(`Caption:\s*(.+)`)
)

// ReadFile parses one staging file into message records. The daily date
// comes from the file name; a missing file yields an empty slice.
func (r *StagingReader) ReadFile(path, username string) ([]*model.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read staging file: %w", err)
	}

	base := filepath.Base(path)
	dateStem := strings.TrimSuffix(base, filepath.Ext(base))

	var messages []*model.Message
	for i, entry := range strings.Split(string(data), "\n---\n") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		msg, err := r.parseEntry(entry, dateStem, username, i)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Int("entry", i).Msg("skipping malformed staging entry")
			continue
		}
		if msg != nil {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

func (r *StagingReader) parseEntry(entry, dateStem, username string, index int) (*model.Message, error) {
	header, content, _ := strings.Cut(entry, "\n")
	content = strings.TrimSpace(content)

	match := headerRe.FindStringSubmatch(strings.TrimSpace(header))
	if match == nil {
		return nil, fmt.Errorf("unrecognized entry header %q", header)
	}
	preview := match[2]

	ts, err := time.ParseInLocation("2006-01-02 15:04", dateStem+" "+match[1], r.cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("parse entry timestamp: %w", err)
	}

	kind, text, caption, fileID := classifyContent(preview, content)

	// Staging does not persist message IDs; synthesize a stable-enough one
	// from the timestamp and entry position.
	return &model.Message{
		MessageID: ts.UnixMilli() + int64(index),
		Username:  username,
		Timestamp: ts,
		Kind:      kind,
		Text:      text,
		Caption:   caption,
		FileID:    fileID,
	}, nil
}

func classifyContent(preview, content string) (model.Kind, string, string, string) {
	for label, kind := range labelKinds {
		if strings.HasPrefix(preview, label) {
			return kind, "", extractCaption(content), model.StagedMediaMarker
		}
	}

	switch {
	case embedRe.MatchString(content):
		return model.KindImage, "", extractCaption(content), model.StagedMediaMarker
	case videoRe.MatchString(content):
		return model.KindVideo, "", extractCaption(content), model.StagedMediaMarker
	case audioRe.MatchString(content):
		return model.KindAudio, "", "", model.StagedMediaMarker
	case documentRe.MatchString(content):
		return model.KindDocument, "", "", model.StagedMediaMarker
	case strings.Contains(content, "http://") || strings.Contains(content, "https://"):
		return model.KindLink, content, "", ""
	}
	return model.KindText, content, "", ""
}

func extractCaption(content string) string {
	if match := captionRe.FindStringSubmatch(content); match != nil {
		return strings.TrimSpace(match[1])
	}
	return ""
}
