package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/markdown"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/state"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/checksum"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/util"
)

// ErrNoHandlers is returned when dispatch has no handlers to fall back to.
var ErrNoHandlers = errors.New("no handlers configured")

// Storage resolves the per-user directory layout.
type Storage interface {
	StagingDir(username string) string
	MediaDir(username string) string
	ProcessedDir(username string) string
}

// Options control one processing run.
type Options struct {
	Reprocess bool
	DryRun    bool
	FailFast  bool
	Skip      SkipOptions
}

// Processor drives the second pipeline phase: it reads pending staging
// files, enriches their messages through the handler chain, appends the
// results to the processed area, and records checksums in state so
// unchanged files are skipped next run.
type Processor struct {
	state    *state.Manager
	storage  Storage
	handlers []Handler
	reader   *markdown.StagingReader
	writer   *markdown.ProcessedWriter
	tagger   Tagger
}

func NewProcessor(
	st *state.Manager,
	storage Storage,
	handlers []Handler,
	reader *markdown.StagingReader,
	writer *markdown.ProcessedWriter,
	tagger Tagger,
) *Processor {
	return &Processor{
		state:    st,
		storage:  storage,
		handlers: handlers,
		reader:   reader,
		writer:   writer,
		tagger:   tagger,
	}
}

// ProcessUser works through one user's pending staging files.
func (p *Processor) ProcessUser(ctx context.Context, username string, opts Options) (*Report, error) {
	report := NewReport()
	defer func() { report.Elapsed = time.Since(report.StartedAt) }()

	pending, err := p.state.GetPendingFiles(username)
	if err != nil {
		return report, err
	}
	if len(pending) == 0 {
		log.Info().Str("user", username).Msg("no pending files")
		return report, nil
	}
	log.Info().Str("user", username).Int("files", len(pending)).Msg("processing pending files")

	hc := HandlerContext{
		Username:     username,
		MediaDir:     p.storage.MediaDir(username),
		ProcessedDir: p.storage.ProcessedDir(username),
		Skip:         opts.Skip,
	}

	for _, stagingFile := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.processFile(ctx, username, stagingFile, hc, opts, report); err != nil {
			log.Error().Err(err).Str("file", stagingFile).Msg("error processing staging file")
			report.addError(fmt.Sprintf("File %s: %v", filepath.Base(stagingFile), err))
			if opts.FailFast {
				return report, err
			}
		}
	}

	report.UsersProcessed = 1
	if !opts.DryRun {
		p.commitStatistics(report)
	}

	log.Info().Str("user", username).Int("messages", report.MessagesProcessed).
		Msg("completed processing for user")
	return report, nil
}

// processFile runs the checksum gate and message loop for one staging file.
func (p *Processor) processFile(
	ctx context.Context,
	username, stagingFile string,
	hc HandlerContext,
	opts Options,
	report *Report,
) error {
	if !util.FileExists(stagingFile) {
		log.Warn().Str("file", stagingFile).Msg("staging file not found, removing from pending")
		if err := p.state.RemovePendingFile(username, stagingFile); err != nil {
			return fmt.Errorf("remove missing pending file: %w", err)
		}
		return nil
	}

	currentSum, err := checksum.File(stagingFile)
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}
	stored := p.state.GetFileChecksum(username, stagingFile)

	if !opts.Reprocess && !checksum.HasChanged(stagingFile, stored) {
		log.Debug().Str("file", filepath.Base(stagingFile)).Msg("skipping unchanged file")
		report.MessagesSkipped++
		return nil
	}

	messages, err := p.reader.ReadFile(stagingFile, username)
	if err != nil {
		return fmt.Errorf("read staging file: %w", err)
	}
	if len(messages) == 0 {
		log.Warn().Str("file", filepath.Base(stagingFile)).Msg("no messages parsed from staging file")
		// Mark as processed anyway so the empty file stops showing up.
		if !opts.DryRun {
			if err := p.state.MarkFileProcessed(username, stagingFile, currentSum, 0); err != nil {
				return fmt.Errorf("mark file processed: %w", err)
			}
		}
		return nil
	}

	log.Info().Str("file", filepath.Base(stagingFile)).Int("messages", len(messages)).
		Msg("processing staging file")

	processed := 0
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := p.processMessage(ctx, msg, hc)
		if err == nil && !opts.DryRun {
			_, err = p.writer.Append(hc.ProcessedDir, msg, result)
		}
		if err != nil {
			log.Error().Err(err).Int64("message_id", msg.MessageID).Msg("error processing message")
			report.addError(fmt.Sprintf("Message %d: %v", msg.MessageID, err))
			if opts.FailFast {
				return err
			}
			continue
		}

		processed++
		report.MessagesProcessed++
		report.MediaFiles += len(result.MediaFiles)
		if result.TranscriptFile != "" {
			report.Transcriptions++
		}
		if result.Summary != "" {
			report.SummariesGenerated++
		}
		if result.OCRText != "" {
			report.OCRPerformed++
		}
		report.TagsGenerated += len(result.Tags)
		report.LinksExtracted += len(result.Links)
	}

	if !opts.DryRun {
		if err := p.state.MarkFileProcessed(username, stagingFile, currentSum, processed); err != nil {
			return fmt.Errorf("mark file processed: %w", err)
		}
	}
	report.FilesProcessed++
	return nil
}

// processMessage dispatches one message to the first matching handler and
// applies tagging to the result.
func (p *Processor) processMessage(ctx context.Context, msg *model.Message, hc HandlerContext) (*model.EnrichedResult, error) {
	var handler Handler
	for _, h := range p.handlers {
		if h.CanHandle(msg) {
			handler = h
			break
		}
	}
	if handler == nil {
		if len(p.handlers) == 0 {
			return nil, fmt.Errorf("message %d: %w", msg.MessageID, ErrNoHandlers)
		}
		log.Warn().Str("kind", string(msg.Kind)).Int64("message_id", msg.MessageID).
			Msg("no handler matched, falling back to first handler")
		handler = p.handlers[0]
	}

	result, err := handler.Process(ctx, msg, hc)
	if err != nil {
		return nil, err
	}

	if p.tagger != nil && !hc.Skip.Tags {
		result.Tags = p.tagger.Tags(msg, result)
	}
	return result, nil
}

// ProcessAll runs ProcessUser across the given users, or every known user
// when the list is empty, and merges the per-user reports.
func (p *Processor) ProcessAll(ctx context.Context, usernames []string, opts Options) (*Report, error) {
	combined := NewReport()
	defer func() { combined.Elapsed = time.Since(combined.StartedAt) }()

	known, err := p.state.GetAllUsers()
	if err != nil {
		return combined, err
	}
	var users []string
	if len(usernames) > 0 {
		knownSet := make(map[string]struct{}, len(known))
		for _, u := range known {
			knownSet[u] = struct{}{}
		}
		for _, u := range usernames {
			if _, ok := knownSet[u]; ok {
				users = append(users, u)
			} else {
				log.Warn().Str("user", u).Msg("unknown user, skipping")
			}
		}
	} else {
		users = known
	}

	log.Info().Int("users", len(users)).Msg("processing users")

	for _, username := range users {
		if err := ctx.Err(); err != nil {
			return combined, err
		}
		report, err := p.ProcessUser(ctx, username, opts)
		combined.Merge(report)
		if err != nil {
			log.Error().Err(err).Str("user", username).Msg("failed to process user")
			combined.addError(fmt.Sprintf("User %s: %v", username, err))
			if opts.FailFast {
				combined.UsersProcessed = len(users)
				return combined, err
			}
		}
	}

	combined.UsersProcessed = len(users)
	log.Info().Str("report", combined.String()).Msg("processing complete")
	return combined, nil
}

func (p *Processor) commitStatistics(report *Report) {
	delta := state.StatDelta{
		Media:          report.MediaFiles,
		Transcriptions: report.Transcriptions,
		Summaries:      report.SummariesGenerated,
		OCR:            report.OCRPerformed,
		Tags:           report.TagsGenerated,
		Links:          report.LinksExtracted,
	}
	if delta == (state.StatDelta{}) {
		return
	}
	if err := p.state.IncrementStatistics(delta); err != nil {
		log.Warn().Err(err).Msg("failed to update statistics")
	}
}
