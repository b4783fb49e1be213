// Package state owns the canonical on-disk sync state: per-user fetch and
// process progress, pending staging files, checksum baselines, and global
// statistics. The whole structure is one unit of persistence; every
// mutation rewrites the complete file atomically.
package state

import "time"

// SchemaVersion tags the persisted state layout.
const SchemaVersion = "2.0"

// FetchState tracks phase-one progress for a single user. It is only
// mutated by the fetch phase and its counters never decrease.
type FetchState struct {
	LastMessageID        *int64     `json:"last_message_id"`
	LastFetchTime        *time.Time `json:"last_fetch_time"`
	TotalMessagesFetched int64      `json:"total_messages_fetched"`
}

// ProcessState tracks phase-two progress for a single user. FileChecksums
// holds the change-detection baseline per staging file: the digest at the
// time the file was last marked processed, not whatever is on disk now.
type ProcessState struct {
	LastProcessedDate      *string           `json:"last_processed_date"`
	LastProcessTime        *time.Time        `json:"last_process_time"`
	TotalMessagesProcessed int64             `json:"total_messages_processed"`
	FileChecksums          map[string]string `json:"file_checksums"`
	PendingFiles           []string          `json:"pending_files"`
}

// UserState is everything tracked for one user. ChatID is immutable once
// the user is created; users are never deleted in normal operation.
type UserState struct {
	ChatID       int64        `json:"chat_id"`
	Phone        *string      `json:"phone"`
	FirstSeen    *time.Time   `json:"first_seen"`
	LastSeen     *time.Time   `json:"last_seen"`
	FetchState   FetchState   `json:"fetch_state"`
	ProcessState ProcessState `json:"process_state"`
}

// Statistics aggregates process-wide counters across all users. They are
// derived by the increment operations and monotonically non-decreasing.
type Statistics struct {
	TotalUsers             int   `json:"total_users"`
	TotalMessagesFetched   int64 `json:"total_messages_fetched"`
	TotalMessagesProcessed int64 `json:"total_messages_processed"`
	TotalMedia             int64 `json:"total_media"`
	TotalTranscriptions    int64 `json:"total_transcriptions"`
	TotalSummaries         int64 `json:"total_summaries"`
	TotalOCR               int64 `json:"total_ocr"`
	TotalTags              int64 `json:"total_tags"`
	TotalLinksExtracted    int64 `json:"total_links_extracted"`
}

// State is the root persisted document.
type State struct {
	Version     string                `json:"version"`
	LastUpdated time.Time             `json:"last_updated"`
	Users       map[string]*UserState `json:"users"`
	Statistics  Statistics            `json:"statistics"`
}

// NewState returns a fresh empty state at the current schema version.
func NewState() *State {
	return &State{
		Version:     SchemaVersion,
		LastUpdated: time.Now().UTC(),
		Users:       make(map[string]*UserState),
	}
}

func newUserState(chatID int64, phone string, firstSeen time.Time) *UserState {
	us := &UserState{
		ChatID:    chatID,
		FirstSeen: &firstSeen,
		ProcessState: ProcessState{
			FileChecksums: make(map[string]string),
			PendingFiles:  []string{},
		},
	}
	if phone != "" {
		us.Phone = &phone
	}
	return us
}

// StatDelta carries increments for the enrichment counters.
type StatDelta struct {
	Media          int
	Transcriptions int
	Summaries      int
	OCR            int
	Tags           int
	Links          int
}
