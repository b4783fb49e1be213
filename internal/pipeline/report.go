package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxErrorDetails = 5

// Report accumulates counters for one processing run. Reports from per-user
// runs merge into a combined run report.
type Report struct {
	RunID     string
	StartedAt time.Time

	UsersProcessed    int
	FilesProcessed    int
	MessagesProcessed int
	MessagesSkipped   int

	MediaFiles         int
	Transcriptions     int
	OCRPerformed       int
	SummariesGenerated int
	TagsGenerated      int
	LinksExtracted     int

	Errors       int
	ErrorDetails []string

	Elapsed time.Duration
}

func NewReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// Merge folds a per-user report into this one. UsersProcessed is managed by
// the caller, which knows how many users the run covered.
func (r *Report) Merge(other *Report) {
	r.FilesProcessed += other.FilesProcessed
	r.MessagesProcessed += other.MessagesProcessed
	r.MessagesSkipped += other.MessagesSkipped
	r.MediaFiles += other.MediaFiles
	r.Transcriptions += other.Transcriptions
	r.OCRPerformed += other.OCRPerformed
	r.SummariesGenerated += other.SummariesGenerated
	r.TagsGenerated += other.TagsGenerated
	r.LinksExtracted += other.LinksExtracted
	r.Errors += other.Errors
	r.ErrorDetails = append(r.ErrorDetails, other.ErrorDetails...)
}

func (r *Report) addError(detail string) {
	r.Errors++
	r.ErrorDetails = append(r.ErrorDetails, detail)
}

// String renders the console summary. Only the first few error details are
// shown; the rest collapse into a count.
func (r *Report) String() string {
	lines := []string{
		"Processing Report:",
		fmt.Sprintf("  Users: %d", r.UsersProcessed),
		fmt.Sprintf("  Files: %d", r.FilesProcessed),
		fmt.Sprintf("  Messages: %d processed, %d skipped", r.MessagesProcessed, r.MessagesSkipped),
		fmt.Sprintf("  Features: %d transcripts, %d OCR, %d summaries",
			r.Transcriptions, r.OCRPerformed, r.SummariesGenerated),
		fmt.Sprintf("  Enrichments: %d tags, %d links", r.TagsGenerated, r.LinksExtracted),
		fmt.Sprintf("  Errors: %d", r.Errors),
		fmt.Sprintf("  Time: %.2fs", r.Elapsed.Seconds()),
	}
	if len(r.ErrorDetails) > 0 {
		lines = append(lines, "  Error details:")
		for i, detail := range r.ErrorDetails {
			if i == maxErrorDetails {
				lines = append(lines, fmt.Sprintf("    ... and %d more", len(r.ErrorDetails)-maxErrorDetails))
				break
			}
			lines = append(lines, "    - "+detail)
		}
	}
	return strings.Join(lines, "\n")
}
