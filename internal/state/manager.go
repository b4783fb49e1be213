package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUserNotFound is returned by mutations that require the user to have
// been registered via EnsureUserExists first.
var ErrUserNotFound = errors.New("user not found in state")

var dateStemRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Manager serializes all access to the state file. Every mutating method
// runs the full read-modify-write-persist sequence under one lock, so
// concurrent goroutines in this process observe linearized updates. It does
// not guard against other processes writing the same file.
type Manager struct {
	path string

	mu    sync.Mutex
	state *State
}

// NewManager creates a manager for the state file at path. Nothing is read
// until Load or the first accessor runs.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the state file location.
func (m *Manager) Path() string {
	return m.path
}

// Load reads the state file, creating a fresh one when absent. A file that
// exists but cannot be parsed is renamed aside (never deleted) and replaced
// with a fresh state: corruption is logged, not fatal.
func (m *Manager) Load() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

func (m *Manager) loadLocked() (*State, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read state file: %w", err)
		}
		m.state = NewState()
		if err := m.writeLocked(); err != nil {
			return nil, err
		}
		return m.state, nil
	}

	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		aside := m.path + ".corrupt"
		log.Error().Err(err).Str("file", m.path).Str("renamed_to", aside).
			Msg("state file is corrupt, starting fresh")
		if renameErr := os.Rename(m.path, aside); renameErr != nil {
			log.Warn().Err(renameErr).Msg("failed to move corrupt state file aside")
		}
		m.state = NewState()
		if err := m.writeLocked(); err != nil {
			return nil, err
		}
		return m.state, nil
	}

	if st.Users == nil {
		st.Users = make(map[string]*UserState)
	}
	for _, us := range st.Users {
		if us.ProcessState.FileChecksums == nil {
			us.ProcessState.FileChecksums = make(map[string]string)
		}
		if us.ProcessState.PendingFiles == nil {
			us.ProcessState.PendingFiles = []string{}
		}
	}
	m.state = st
	return m.state, nil
}

// Save stamps LastUpdated, replaces the in-memory state, and writes the
// file atomically. Write failures propagate: state must never silently
// fail to persist.
func (m *Manager) Save(st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	return m.writeLocked()
}

// writeLocked copies the previous file to a .bak sidecar (best effort),
// writes the new document to a temp file in the same directory, and renames
// it over the target. The rename is the atomicity boundary.
func (m *Manager) writeLocked() error {
	m.state.LastUpdated = time.Now().UTC()

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := copyFile(m.path, m.path+".bak"); err != nil {
			log.Warn().Err(err).Msg("failed to write state backup")
		}
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state temp file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func (m *Manager) stateLocked() (*State, error) {
	if m.state == nil {
		return m.loadLocked()
	}
	return m.state, nil
}

// EnsureUserExists returns the existing user state or registers a new one.
// Calling it twice with the same username is a no-op on the second call.
func (m *Manager) EnsureUserExists(username string, chatID int64, phone string, firstSeen *time.Time) (UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return UserState{}, err
	}

	us, ok := st.Users[username]
	if !ok {
		seen := time.Now().UTC()
		if firstSeen != nil {
			seen = *firstSeen
		}
		us = newUserState(chatID, phone, seen)
		st.Users[username] = us
		st.Statistics.TotalUsers = len(st.Users)
		if err := m.writeLocked(); err != nil {
			return UserState{}, err
		}
		log.Info().Str("user", username).Int64("chat_id", chatID).Msg("registered new user")
	}

	return copyUserState(us), nil
}

// UpdateFetchState advances the fetch watermark and counters after a fetch
// batch. The user must already exist.
func (m *Manager) UpdateFetchState(username string, lastMessageID *int64, messageCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return err
	}
	us, ok := st.Users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	now := time.Now().UTC()
	if lastMessageID != nil {
		id := *lastMessageID
		us.FetchState.LastMessageID = &id
	}
	us.FetchState.LastFetchTime = &now
	us.FetchState.TotalMessagesFetched += int64(messageCount)
	us.LastSeen = &now
	st.Statistics.TotalMessagesFetched += int64(messageCount)

	return m.writeLocked()
}

// AddPendingFile registers a staging file for later processing. The pending
// list keeps insertion order with set semantics; re-adding an entry does
// not persist anything.
func (m *Manager) AddPendingFile(username, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return err
	}
	us, ok := st.Users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	for _, existing := range us.ProcessState.PendingFiles {
		if existing == filePath {
			return nil
		}
	}
	us.ProcessState.PendingFiles = append(us.ProcessState.PendingFiles, filePath)
	return m.writeLocked()
}

// GetPendingFiles returns a copy of the user's pending list in insertion
// order. Unknown users yield an empty list; querying is always safe.
func (m *Manager) GetPendingFiles(username string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return nil, err
	}
	us, ok := st.Users[username]
	if !ok {
		return []string{}, nil
	}
	return append([]string{}, us.ProcessState.PendingFiles...), nil
}

// RemovePendingFile drops a stale pending entry without touching the
// checksum baseline, for staging files that vanished from disk.
func (m *Manager) RemovePendingFile(username, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return err
	}
	us, ok := st.Users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	if !removePending(&us.ProcessState, filePath) {
		return nil
	}
	return m.writeLocked()
}

// MarkFileProcessed commits the checksum baseline for a staging file,
// removes it from the pending list (a safe no-op when already absent), and
// advances the processed counters.
func (m *Manager) MarkFileProcessed(username, filePath, sum string, messageCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return err
	}
	us, ok := st.Users[username]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	us.ProcessState.FileChecksums[filePath] = sum
	removePending(&us.ProcessState, filePath)

	now := time.Now().UTC()
	us.ProcessState.LastProcessTime = &now
	us.ProcessState.TotalMessagesProcessed += int64(messageCount)
	st.Statistics.TotalMessagesProcessed += int64(messageCount)

	if stem := fileDateStem(filePath); stem != "" {
		if us.ProcessState.LastProcessedDate == nil || *us.ProcessState.LastProcessedDate < stem {
			us.ProcessState.LastProcessedDate = &stem
		}
	}

	return m.writeLocked()
}

func removePending(ps *ProcessState, filePath string) bool {
	for i, existing := range ps.PendingFiles {
		if existing == filePath {
			ps.PendingFiles = append(ps.PendingFiles[:i], ps.PendingFiles[i+1:]...)
			return true
		}
	}
	return false
}

// fileDateStem extracts the YYYY-MM-DD stem from a daily file path, or ""
// when the name does not follow the daily naming scheme.
func fileDateStem(filePath string) string {
	base := filepath.Base(filePath)
	stem := base[:len(base)-len(filepath.Ext(base))]
	if dateStemRe.MatchString(stem) {
		return stem
	}
	return ""
}

// GetFileChecksum returns the stored baseline digest for a staging file, or
// "" when the user or file is unknown. It never fails.
func (m *Manager) GetFileChecksum(username, filePath string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return ""
	}
	us, ok := st.Users[username]
	if !ok {
		return ""
	}
	return us.ProcessState.FileChecksums[filePath]
}

// GetUserState returns a snapshot of one user's state, or false when the
// user is unknown.
func (m *Manager) GetUserState(username string) (UserState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return UserState{}, false
	}
	us, ok := st.Users[username]
	if !ok {
		return UserState{}, false
	}
	return copyUserState(us), true
}

// GetAllUsers returns every known username, sorted.
func (m *Manager) GetAllUsers() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(st.Users))
	for username := range st.Users {
		users = append(users, username)
	}
	sort.Strings(users)
	return users, nil
}

// IncrementStatistics adds enrichment counts to the global statistics.
func (m *Manager) IncrementStatistics(delta StatDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return err
	}
	st.Statistics.TotalMedia += int64(delta.Media)
	st.Statistics.TotalTranscriptions += int64(delta.Transcriptions)
	st.Statistics.TotalSummaries += int64(delta.Summaries)
	st.Statistics.TotalOCR += int64(delta.OCR)
	st.Statistics.TotalTags += int64(delta.Tags)
	st.Statistics.TotalLinksExtracted += int64(delta.Links)
	return m.writeLocked()
}

// GetStatistics returns a snapshot of the global statistics.
func (m *Manager) GetStatistics() (Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return Statistics{}, err
	}
	return st.Statistics, nil
}

// PruneStale drops pending entries and checksum baselines for staging
// files that no longer exist on disk. With dryRun set it only counts what
// would be removed.
func (m *Manager) PruneStale(username string, exists func(string) bool, dryRun bool) (pending, checksums int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.stateLocked()
	if err != nil {
		return 0, 0, err
	}
	us, ok := st.Users[username]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	kept := us.ProcessState.PendingFiles[:0:0]
	for _, filePath := range us.ProcessState.PendingFiles {
		if exists(filePath) {
			kept = append(kept, filePath)
		} else {
			pending++
		}
	}
	var gone []string
	for filePath := range us.ProcessState.FileChecksums {
		if !exists(filePath) {
			gone = append(gone, filePath)
		}
	}
	checksums = len(gone)

	if dryRun || (pending == 0 && checksums == 0) {
		return pending, checksums, nil
	}

	us.ProcessState.PendingFiles = kept
	for _, filePath := range gone {
		delete(us.ProcessState.FileChecksums, filePath)
	}
	return pending, checksums, m.writeLocked()
}

func copyUserState(us *UserState) UserState {
	out := *us
	out.ProcessState.FileChecksums = make(map[string]string, len(us.ProcessState.FileChecksums))
	for k, v := range us.ProcessState.FileChecksums {
		out.ProcessState.FileChecksums[k] = v
	}
	out.ProcessState.PendingFiles = append([]string{}, us.ProcessState.PendingFiles...)
	return out
}
