package telegram

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/util"
)

// Downloader saves message attachments into a user's media directory.
type Downloader struct {
	client *Client
}

func NewDownloader(client *Client) *Downloader {
	return &Downloader{client: client}
}

// Download fetches the attachment of one message. Filenames embed the
// message timestamp and are uniquified against the media directory so two
// attachments of the same kind in the same second never overwrite or
// shadow each other.
func (d *Downloader) Download(ctx context.Context, msg *model.Message, mediaDir string) (string, error) {
	if msg.FileID == "" {
		return "", errors.New("message has no file_id")
	}
	if err := util.PrepareDir(mediaDir); err != nil {
		return "", err
	}

	filename := destinationFilename(msg, mediaDir)
	destination := filepath.Join(mediaDir, filename)

	url, err := d.client.FileURL(msg.FileID)
	if err != nil {
		return "", err
	}

	log.Info().Str("kind", string(msg.Kind)).Str("file", filename).Msg("downloading media")
	if err := d.client.DownloadFile(ctx, url, destination); err != nil {
		return "", fmt.Errorf("download media for message %d: %w", msg.MessageID, err)
	}
	return destination, nil
}

// destinationFilename resolves the on-disk name for a message attachment.
// The timestamp stem only has second granularity, so the name is uniquified
// against files already present in the media directory.
func destinationFilename(msg *model.Message, mediaDir string) string {
	ext := ""
	if msg.FileName != "" {
		ext = filepath.Ext(msg.FileName)
	}
	if ext == "" && msg.MimeType != "" {
		ext = util.ExtensionForMime(msg.MimeType)
	}
	if ext == "" {
		ext = defaultExtension(msg.Kind)
	}
	name := util.MediaFilename(msg.Timestamp, string(msg.Kind), msg.FileName, ext)
	return util.UniqueFilename(mediaDir, name)
}

func defaultExtension(kind model.Kind) string {
	switch kind {
	case model.KindVideo, model.KindVideoNote:
		return ".mp4"
	case model.KindAudio:
		return ".mp3"
	case model.KindVoice:
		return ".ogg"
	case model.KindPhoto, model.KindImage:
		return ".jpg"
	case model.KindDocument:
		return ".pdf"
	}
	return ""
}
