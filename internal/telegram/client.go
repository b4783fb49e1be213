// Package telegram wraps the Bot API for the fetch phase: polling updates,
// classifying messages, and downloading attachments.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const updateBatchSize = 100

// BotInfo identifies the bot account a token belongs to.
type BotInfo struct {
	ID        int64
	Username  string
	FirstName string
}

// Client wraps tgbotapi.BotAPI with the small surface the fetcher needs.
type Client struct {
	bot  *tgbotapi.BotAPI
	http *http.Client
}

// NewClient authenticates the bot token against the API.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authenticate bot: %w", err)
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("authenticated with Telegram")

	return &Client{
		bot:  bot,
		http: &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// Me returns the authenticated bot account.
func (c *Client) Me() BotInfo {
	return BotInfo{
		ID:        c.bot.Self.ID,
		Username:  c.bot.Self.UserName,
		FirstName: c.bot.Self.FirstName,
	}
}

// Updates fetches one batch of updates starting at offset.
func (c *Client) Updates(offset int) ([]tgbotapi.Update, error) {
	updates, err := c.bot.GetUpdates(tgbotapi.UpdateConfig{
		Offset:  offset,
		Limit:   updateBatchSize,
		Timeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return updates, nil
}

// FileURL resolves a file_id to its download URL.
func (c *Client) FileURL(fileID string) (string, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("get file %s: %w", fileID, err)
	}
	return file.Link(c.bot.Token), nil
}

// DownloadFile streams a file URL to a local path.
func (c *Client) DownloadFile(ctx context.Context, url, destination string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(destination)
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
