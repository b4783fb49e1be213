package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/markdown"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/state"
)

// Storage resolves the per-user directories the fetch phase writes to.
type Storage interface {
	StagingDir(username string) string
	MediaDir(username string) string
}

// FetchOptions control one fetch run.
type FetchOptions struct {
	Users    []string // restrict to these usernames; empty = everyone
	FullSync bool     // ignore the last_message_id watermark
	DryRun   bool     // poll and classify but write nothing
}

// FetchReport summarizes one fetch run.
type FetchReport struct {
	UsersDiscovered int
	MessagesFetched int
	MediaDownloaded int
	Errors          []string
}

// DiscoveredChat describes a chat seen in updates that state does not know
// yet.
type DiscoveredChat struct {
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
}

// Fetcher drives the first pipeline phase: it polls updates, registers
// users, downloads attachments, and appends raw messages to staging.
type Fetcher struct {
	client     *Client
	state      *state.Manager
	staging    *markdown.StagingWriter
	downloader *Downloader
	storage    Storage
}

func NewFetcher(client *Client, st *state.Manager, staging *markdown.StagingWriter, downloader *Downloader, storage Storage) *Fetcher {
	return &Fetcher{
		client:     client,
		state:      st,
		staging:    staging,
		downloader: downloader,
		storage:    storage,
	}
}

// usernameFor derives a stable username from a Telegram account: the handle
// when set, otherwise a sanitized first_last form, otherwise the user ID.
func usernameFor(from *tgbotapi.User) string {
	if from.UserName != "" {
		return from.UserName
	}

	var parts []string
	if from.FirstName != "" {
		parts = append(parts, from.FirstName)
	}
	if from.LastName != "" {
		parts = append(parts, from.LastName)
	}
	if len(parts) > 0 {
		name := strings.ToLower(strings.ReplaceAll(strings.Join(parts, "_"), " ", "_"))
		var b strings.Builder
		for _, r := range name {
			if r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}

	return fmt.Sprintf("user_%d", from.ID)
}

// classify converts a Bot API message into the internal record, picking the
// kind from the populated attachment field.
func classify(tg *tgbotapi.Message, username string) *model.Message {
	msg := &model.Message{
		MessageID: int64(tg.MessageID),
		ChatID:    tg.Chat.ID,
		Username:  username,
		Timestamp: time.Unix(int64(tg.Date), 0),
		Kind:      model.KindText,
		Text:      tg.Text,
		Caption:   tg.Caption,
	}
	if tg.From != nil {
		msg.UserID = tg.From.ID
	}
	if msg.Text == "" {
		msg.Text = tg.Caption
	}

	switch {
	case tg.Video != nil:
		msg.Kind = model.KindVideo
		msg.FileID = tg.Video.FileID
		msg.FileName = tg.Video.FileName
		msg.FileSize = int64(tg.Video.FileSize)
		msg.MimeType = tg.Video.MimeType
	case tg.VideoNote != nil:
		msg.Kind = model.KindVideoNote
		msg.FileID = tg.VideoNote.FileID
		msg.FileSize = int64(tg.VideoNote.FileSize)
	case tg.Audio != nil:
		msg.Kind = model.KindAudio
		msg.FileID = tg.Audio.FileID
		msg.FileName = tg.Audio.FileName
		msg.FileSize = int64(tg.Audio.FileSize)
		msg.MimeType = tg.Audio.MimeType
	case tg.Voice != nil:
		msg.Kind = model.KindVoice
		msg.FileID = tg.Voice.FileID
		msg.FileSize = int64(tg.Voice.FileSize)
		msg.MimeType = tg.Voice.MimeType
	case len(tg.Photo) > 0:
		largest := tg.Photo[0]
		for _, p := range tg.Photo[1:] {
			if p.FileSize > largest.FileSize {
				largest = p
			}
		}
		msg.Kind = model.KindPhoto
		msg.FileID = largest.FileID
		msg.FileSize = int64(largest.FileSize)
	case tg.Document != nil:
		msg.Kind = model.KindDocument
		msg.FileID = tg.Document.FileID
		msg.FileName = tg.Document.FileName
		msg.FileSize = int64(tg.Document.FileSize)
		msg.MimeType = tg.Document.MimeType
	case tg.Text != "" && (strings.Contains(tg.Text, "http://") || strings.Contains(tg.Text, "https://")):
		msg.Kind = model.KindLink
	}

	if tg.ReplyToMessage != nil {
		ts := time.Unix(int64(tg.ReplyToMessage.Date), 0)
		preview := tg.ReplyToMessage.Text
		if preview == "" {
			preview = tg.ReplyToMessage.Caption
		}
		msg.ReplyTo = &model.ReplyRef{
			MessageID: int64(tg.ReplyToMessage.MessageID),
			Timestamp: &ts,
			Preview:   markdown.SanitizeText(preview, 50),
		}
	}
	if tg.ForwardFrom != nil {
		ref := &model.ForwardRef{User: usernameFor(tg.ForwardFrom)}
		if tg.ForwardDate > 0 {
			ts := time.Unix(int64(tg.ForwardDate), 0)
			ref.OriginalDate = &ts
		}
		msg.ForwardedFrom = ref
	} else if tg.ForwardFromChat != nil {
		ref := &model.ForwardRef{
			User:   tg.ForwardFromChat.Title,
			ChatID: tg.ForwardFromChat.ID,
		}
		if tg.ForwardDate > 0 {
			ts := time.Unix(int64(tg.ForwardDate), 0)
			ref.OriginalDate = &ts
		}
		msg.ForwardedFrom = ref
	}
	if tg.EditDate > 0 {
		ts := time.Unix(int64(tg.EditDate), 0)
		msg.EditedAt = &ts
	}

	return msg
}

// Fetch polls all pending updates, discovers unknown chats, and stages new
// messages per user.
func (f *Fetcher) Fetch(ctx context.Context, opts FetchOptions) (*FetchReport, error) {
	report := &FetchReport{}

	st, err := f.state.Load()
	if err != nil {
		return report, err
	}

	chatUsers := map[int64]string{}
	taken := map[string]bool{}
	for username, us := range st.Users {
		chatUsers[us.ChatID] = username
		taken[username] = true
	}

	only := map[string]bool{}
	for _, u := range opts.Users {
		only[u] = true
	}

	perUser := map[string][]*model.Message{}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		updates, err := f.client.Updates(offset)
		if err != nil {
			return report, err
		}
		if len(updates) == 0 {
			break
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			tg := update.Message
			if tg == nil || tg.From == nil || tg.From.IsBot {
				continue
			}

			username, known := chatUsers[tg.Chat.ID]
			if !known {
				username = usernameFor(tg.From)
				base := username
				for i := 1; taken[username]; i++ {
					username = fmt.Sprintf("%s_%d", base, i)
				}
				chatUsers[tg.Chat.ID] = username
				taken[username] = true
				report.UsersDiscovered++
				log.Info().Str("user", username).Int64("chat_id", tg.Chat.ID).Msg("discovered new user")
			}

			if len(only) > 0 && !only[username] {
				continue
			}

			if !opts.FullSync {
				if us, ok := st.Users[username]; ok && us.FetchState.LastMessageID != nil &&
					int64(tg.MessageID) <= *us.FetchState.LastMessageID {
					continue
				}
			}

			perUser[username] = append(perUser[username], classify(tg, username))
		}

		if len(updates) < updateBatchSize {
			break
		}
	}

	for username, messages := range perUser {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := f.stageUser(ctx, username, chatUsers, messages, opts, report); err != nil {
			log.Error().Err(err).Str("user", username).Msg("failed to stage messages")
			report.Errors = append(report.Errors, fmt.Sprintf("User %s: %v", username, err))
		}
	}

	log.Info().Int("users", len(perUser)).Int("messages", report.MessagesFetched).
		Msg("fetch complete")
	return report, nil
}

// stageUser writes one user's fetched messages to staging and records the
// new watermark.
func (f *Fetcher) stageUser(
	ctx context.Context,
	username string,
	chatUsers map[int64]string,
	messages []*model.Message,
	opts FetchOptions,
	report *FetchReport,
) error {
	if len(messages) == 0 {
		return nil
	}

	var chatID int64
	for id, name := range chatUsers {
		if name == username {
			chatID = id
			break
		}
	}

	if opts.DryRun {
		report.MessagesFetched += len(messages)
		log.Info().Str("user", username).Int("messages", len(messages)).
			Msg("dry run, skipping staging writes")
		return nil
	}

	firstSeen := messages[0].Timestamp
	if _, err := f.state.EnsureUserExists(username, chatID, "", &firstSeen); err != nil {
		return err
	}

	stagingDir := f.storage.StagingDir(username)
	mediaDir := f.storage.MediaDir(username)

	var maxID int64
	staged := 0
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}

		mediaPath := ""
		if msg.Kind.Media() && msg.FileID != "" {
			path, err := f.downloader.Download(ctx, msg, mediaDir)
			if err != nil {
				log.Warn().Err(err).Int64("message_id", msg.MessageID).Msg("media download failed")
				report.Errors = append(report.Errors, fmt.Sprintf("Message %d: %v", msg.MessageID, err))
			} else {
				mediaPath = path
				report.MediaDownloaded++
			}
		}

		stagingFile, err := f.staging.Append(stagingDir, msg, mediaPath)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Message %d: %v", msg.MessageID, err))
			continue
		}
		if err := f.state.AddPendingFile(username, stagingFile); err != nil {
			return err
		}

		staged++
		report.MessagesFetched++
		if msg.MessageID > maxID {
			maxID = msg.MessageID
		}
	}

	if staged > 0 {
		if err := f.state.UpdateFetchState(username, &maxID, staged); err != nil {
			return err
		}
	}
	return nil
}

// Discover polls updates and reports chats that state does not know about.
// With register set, each one is added to state.
func (f *Fetcher) Discover(ctx context.Context, register bool) ([]DiscoveredChat, error) {
	st, err := f.state.Load()
	if err != nil {
		return nil, err
	}

	known := map[int64]bool{}
	taken := map[string]bool{}
	for username, us := range st.Users {
		known[us.ChatID] = true
		taken[username] = true
	}

	var discovered []DiscoveredChat
	seen := map[int64]bool{}
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return discovered, err
		}
		updates, err := f.client.Updates(offset)
		if err != nil {
			return discovered, err
		}
		if len(updates) == 0 {
			break
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			tg := update.Message
			if tg == nil || tg.From == nil || tg.From.IsBot {
				continue
			}
			if known[tg.Chat.ID] || seen[tg.Chat.ID] {
				continue
			}
			seen[tg.Chat.ID] = true

			username := usernameFor(tg.From)
			base := username
			for i := 1; taken[username]; i++ {
				username = fmt.Sprintf("%s_%d", base, i)
			}
			taken[username] = true

			discovered = append(discovered, DiscoveredChat{
				ChatID:    tg.Chat.ID,
				Username:  username,
				FirstName: tg.From.FirstName,
				LastName:  tg.From.LastName,
			})
		}

		if len(updates) < updateBatchSize {
			break
		}
	}

	if register {
		for _, chat := range discovered {
			if _, err := f.state.EnsureUserExists(chat.Username, chat.ChatID, "", nil); err != nil {
				return discovered, err
			}
			log.Info().Str("user", chat.Username).Int64("chat_id", chat.ChatID).Msg("registered user")
		}
	}
	return discovered, nil
}
