package model

import (
	"strings"
	"time"
)

// Kind classifies a message for handler dispatch.
type Kind string

const (
	KindText      Kind = "text"
	KindLink      Kind = "link"
	KindImage     Kind = "image"
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindVideoNote Kind = "video_note"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindDocument  Kind = "document"
)

// Media reports whether the kind carries a downloadable attachment.
func (k Kind) Media() bool {
	switch k {
	case KindImage, KindPhoto, KindVideo, KindVideoNote, KindAudio, KindVoice, KindDocument:
		return true
	}
	return false
}

// ReplyRef captures the message a reply points back to.
type ReplyRef struct {
	MessageID int64
	Timestamp *time.Time
	Preview   string
}

// ForwardRef captures forwarded-message provenance.
type ForwardRef struct {
	User         string
	ChatID       int64
	OriginalDate *time.Time
}

// Message is the normalized record that flows through both phases: written
// to staging by the fetcher, parsed back out by the staging reader, and
// dispatched through the handler chain by the processor.
type Message struct {
	MessageID int64
	ChatID    int64
	UserID    int64
	Username  string
	Timestamp time.Time
	Kind      Kind

	Text    string
	Caption string

	// Attachment info from the bot API. FileID is set to a marker value
	// when the message was reconstructed from a staging file.
	FileID   string
	FileName string
	FileSize int64
	MimeType string

	ReplyTo       *ReplyRef
	ForwardedFrom *ForwardRef
	EditedAt      *time.Time
}

// StagedMediaMarker flags a message parsed back from staging whose media was
// already downloaded during the fetch phase.
const StagedMediaMarker = "STAGING_MEDIA"

// HasURL reports whether the message text contains an http(s) URL.
func (m *Message) HasURL() bool {
	return strings.Contains(m.Text, "http://") || strings.Contains(m.Text, "https://")
}
