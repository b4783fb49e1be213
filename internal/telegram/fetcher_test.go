package telegram

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

func TestUsernameFor(t *testing.T) {
	tests := []struct {
		name string
		from tgbotapi.User
		want string
	}{
		{"handle wins", tgbotapi.User{ID: 1, UserName: "alice_k", FirstName: "Alice"}, "alice_k"},
		{"first and last name", tgbotapi.User{ID: 2, FirstName: "Alice", LastName: "Kim"}, "alice_kim"},
		{"first name only", tgbotapi.User{ID: 3, FirstName: "Bob"}, "bob"},
		{"spaces collapse", tgbotapi.User{ID: 4, FirstName: "Mary Jane", LastName: "Watson"}, "mary_jane_watson"},
		{"non-ascii stripped", tgbotapi.User{ID: 5, FirstName: "Андрей"}, "user_5"},
		{"no names at all", tgbotapi.User{ID: 6}, "user_6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usernameFor(&tt.from))
		})
	}
}

func baseMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 42,
		From:      &tgbotapi.User{ID: 7},
		Chat:      &tgbotapi.Chat{ID: 1001},
		Date:      int(time.Date(2026, 1, 3, 14, 23, 0, 0, time.UTC).Unix()),
	}
}

func TestClassify_Text(t *testing.T) {
	tg := baseMessage()
	tg.Text = "plain note"

	msg := classify(tg, "alice")
	assert.Equal(t, model.KindText, msg.Kind)
	assert.Equal(t, "plain note", msg.Text)
	assert.Equal(t, int64(42), msg.MessageID)
	assert.Equal(t, int64(1001), msg.ChatID)
	assert.Equal(t, int64(7), msg.UserID)
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, int64(tg.Date), msg.Timestamp.Unix())
}

func TestClassify_Link(t *testing.T) {
	tg := baseMessage()
	tg.Text = "read https://example.com/post"

	msg := classify(tg, "alice")
	assert.Equal(t, model.KindLink, msg.Kind)
}

func TestClassify_Video(t *testing.T) {
	tg := baseMessage()
	tg.Caption = "the talk"
	tg.Video = &tgbotapi.Video{
		FileID:   "vid-file-id",
		FileName: "talk.mp4",
		FileSize: 1024,
		MimeType: "video/mp4",
	}

	msg := classify(tg, "alice")
	assert.Equal(t, model.KindVideo, msg.Kind)
	assert.Equal(t, "vid-file-id", msg.FileID)
	assert.Equal(t, "talk.mp4", msg.FileName)
	assert.Equal(t, int64(1024), msg.FileSize)
	assert.Equal(t, "video/mp4", msg.MimeType)
	assert.Equal(t, "the talk", msg.Caption)
	assert.Equal(t, "the talk", msg.Text, "caption doubles as text when text is empty")
}

func TestClassify_PhotoPicksLargest(t *testing.T) {
	tg := baseMessage()
	tg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", FileSize: 100},
		{FileID: "large", FileSize: 9000},
		{FileID: "medium", FileSize: 800},
	}

	msg := classify(tg, "alice")
	assert.Equal(t, model.KindPhoto, msg.Kind)
	assert.Equal(t, "large", msg.FileID)
	assert.Equal(t, int64(9000), msg.FileSize)
}

func TestClassify_Voice(t *testing.T) {
	tg := baseMessage()
	tg.Voice = &tgbotapi.Voice{FileID: "voice-id", FileSize: 512, MimeType: "audio/ogg"}

	msg := classify(tg, "alice")
	assert.Equal(t, model.KindVoice, msg.Kind)
	assert.Equal(t, "voice-id", msg.FileID)
}

func TestClassify_Document(t *testing.T) {
	tg := baseMessage()
	tg.Document = &tgbotapi.Document{
		FileID:   "doc-id",
		FileName: "report.pdf",
		MimeType: "application/pdf",
	}

	msg := classify(tg, "alice")
	assert.Equal(t, model.KindDocument, msg.Kind)
	assert.Equal(t, "report.pdf", msg.FileName)
}

func TestClassify_ReplyContext(t *testing.T) {
	tg := baseMessage()
	tg.Text = "replying"
	tg.ReplyToMessage = &tgbotapi.Message{
		MessageID: 40,
		Date:      int(time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC).Unix()),
		Text:      "the original message that was quite long and rambling and went on for a while",
	}

	msg := classify(tg, "alice")
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, int64(40), msg.ReplyTo.MessageID)
	assert.LessOrEqual(t, len(msg.ReplyTo.Preview), 53, "preview truncated with ellipsis")
	assert.Contains(t, msg.ReplyTo.Preview, "the original message")
}

func TestClassify_ForwardedFromUser(t *testing.T) {
	tg := baseMessage()
	tg.Text = "fwd"
	tg.ForwardFrom = &tgbotapi.User{ID: 9, UserName: "bob"}
	tg.ForwardDate = int(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC).Unix())

	msg := classify(tg, "alice")
	require.NotNil(t, msg.ForwardedFrom)
	assert.Equal(t, "bob", msg.ForwardedFrom.User)
	require.NotNil(t, msg.ForwardedFrom.OriginalDate)
}

func TestClassify_ForwardedFromChannel(t *testing.T) {
	tg := baseMessage()
	tg.Text = "fwd"
	tg.ForwardFromChat = &tgbotapi.Chat{ID: 555, Title: "Some Channel"}

	msg := classify(tg, "alice")
	require.NotNil(t, msg.ForwardedFrom)
	assert.Equal(t, "Some Channel", msg.ForwardedFrom.User)
	assert.Equal(t, int64(555), msg.ForwardedFrom.ChatID)
}

func TestClassify_Edited(t *testing.T) {
	tg := baseMessage()
	tg.Text = "edited text"
	tg.EditDate = int(time.Date(2026, 1, 3, 15, 0, 0, 0, time.UTC).Unix())

	msg := classify(tg, "alice")
	require.NotNil(t, msg.EditedAt)
	assert.Equal(t, 15, msg.EditedAt.UTC().Hour())
}
