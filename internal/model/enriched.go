package model

import "time"

// LinkMeta is structured metadata extracted for one URL.
type LinkMeta struct {
	URL         string
	Title       string
	Description string
}

// EnrichedResult is what a message handler produces: rendered markdown plus
// the structured metadata the processed writer persists. Enrichments that
// could not be produced (provider down, OCR found nothing) are simply left
// zero-valued; absence is not an error.
type EnrichedResult struct {
	MarkdownContent string

	// Kind override for the processed entry; falls back to the message
	// kind when empty.
	Kind Kind

	MediaFiles     []string
	TranscriptFile string
	Summary        string
	OCRText        string
	Tags           []string
	Links          []LinkMeta

	ReplyTo       *ReplyRef
	ForwardedFrom *ForwardRef
	EditedAt      *time.Time

	Metadata map[string]any
}

// ResolvedKind returns the result's kind, defaulting to the message's.
func (r *EnrichedResult) ResolvedKind(msg *Message) Kind {
	if r.Kind != "" {
		return r.Kind
	}
	return msg.Kind
}
