// Package conf holds the application configuration, loaded from a YAML
// file with environment variable overrides.
package conf

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/tagger"
)

// TelegramConfig holds Bot API credentials and tuning.
type TelegramConfig struct {
	BotToken       string `mapstructure:"bot_token" json:"bot_token"`
	TimeoutSeconds int    `mapstructure:"timeout" json:"timeout"`
	RetryAttempts  int    `mapstructure:"retry_attempts" json:"retry_attempts"`
}

func (c *TelegramConfig) Normalize() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	c.BotToken = strings.TrimSpace(c.BotToken)
}

// StorageConfig lays out the on-disk tree:
//
//	<base>/staging/<user>/YYYY-MM-DD.md
//	<base>/processed/<user>/YYYY-MM-DD.md
//	<base>/media/<user>/<files>
//	<base>/state.json
type StorageConfig struct {
	BaseDir       string `mapstructure:"base_dir" json:"base_dir"`
	StagingName   string `mapstructure:"staging_dir" json:"staging_dir"`
	ProcessedName string `mapstructure:"processed_dir" json:"processed_dir"`
	MediaName     string `mapstructure:"media_dir" json:"media_dir"`
}

func (c *StorageConfig) Normalize() {
	if c.BaseDir == "" {
		c.BaseDir = "./data"
	}
	if c.StagingName == "" {
		c.StagingName = "staging"
	}
	if c.ProcessedName == "" {
		c.ProcessedName = "processed"
	}
	if c.MediaName == "" {
		c.MediaName = "media"
	}
}

func (c *StorageConfig) StagingDir(username string) string {
	return filepath.Join(c.BaseDir, c.StagingName, username)
}

func (c *StorageConfig) ProcessedDir(username string) string {
	return filepath.Join(c.BaseDir, c.ProcessedName, username)
}

func (c *StorageConfig) MediaDir(username string) string {
	return filepath.Join(c.BaseDir, c.MediaName, username)
}

func (c *StorageConfig) StatePath() string {
	return filepath.Join(c.BaseDir, "state.json")
}

// TranscriptionConfig controls the speech-to-text provider.
type TranscriptionConfig struct {
	Enabled               bool   `mapstructure:"enabled" json:"enabled"`
	Provider              string `mapstructure:"provider" json:"provider"`
	Model                 string `mapstructure:"model" json:"model"`
	APIKey                string `mapstructure:"api_key" json:"api_key"`
	BaseURL               string `mapstructure:"base_url" json:"base_url"`
	Organization          string `mapstructure:"organization" json:"organization"`
	Proxy                 string `mapstructure:"proxy" json:"proxy"`
	Language              string `mapstructure:"language" json:"language"`
	InitialPrompt         string `mapstructure:"initial_prompt" json:"initial_prompt"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" json:"request_timeout_seconds"`
}

func (c *TranscriptionConfig) Normalize() {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	switch provider {
	case "webservice", "local", "docker", "http", "whisper-asr":
		provider = "webservice"
		if c.BaseURL == "" {
			c.BaseURL = "http://127.0.0.1:9000"
		}
	default:
		provider = "openai"
	}
	c.Provider = provider
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.Model = strings.TrimSpace(c.Model)
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 300
	}
}

func (c *TranscriptionConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SummarizationPrompts holds the per-content-type prompts.
type SummarizationPrompts struct {
	Video   string `mapstructure:"video_summary" json:"video_summary"`
	Audio   string `mapstructure:"audio_summary" json:"audio_summary"`
	Article string `mapstructure:"article_summary" json:"article_summary"`
	YouTube string `mapstructure:"youtube_summary" json:"youtube_summary"`
}

func (p *SummarizationPrompts) Normalize() {
	if p.Video == "" {
		p.Video = "Summarize the key points of this video transcript:"
	}
	if p.Audio == "" {
		p.Audio = "Summarize the key points of this audio transcript:"
	}
	if p.Article == "" {
		p.Article = "Summarize this article in a few sentences:"
	}
	if p.YouTube == "" {
		p.YouTube = "Summarize the key points of this YouTube video transcript:"
	}
}

// SummarizationConfig controls the summarization provider.
type SummarizationConfig struct {
	Enabled               bool                 `mapstructure:"enabled" json:"enabled"`
	Provider              string               `mapstructure:"provider" json:"provider"`
	Model                 string               `mapstructure:"model" json:"model"`
	APIKey                string               `mapstructure:"api_key" json:"api_key"`
	BaseURL               string               `mapstructure:"base_url" json:"base_url"`
	Temperature           float64              `mapstructure:"temperature" json:"temperature"`
	MaxTokens             int                  `mapstructure:"max_tokens" json:"max_tokens"`
	RequestTimeoutSeconds int                  `mapstructure:"request_timeout_seconds" json:"request_timeout_seconds"`
	Prompts               SummarizationPrompts `mapstructure:"prompts" json:"prompts"`
}

func (c *SummarizationConfig) Normalize() {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider != "ollama" {
		provider = "openai"
	}
	c.Provider = provider
	if c.Temperature <= 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 300
	}
	c.Prompts.Normalize()
}

func (c *SummarizationConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// OCRConfig controls tesseract-based text extraction.
type OCRConfig struct {
	Enabled        bool     `mapstructure:"enabled" json:"enabled"`
	Languages      []string `mapstructure:"languages" json:"languages"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

func (c *OCRConfig) Normalize() {
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 120
	}
}

// LinksConfig controls link metadata extraction.
type LinksConfig struct {
	Enabled        bool `mapstructure:"enabled" json:"enabled"`
	TimeoutSeconds int  `mapstructure:"timeout" json:"timeout"`
}

func (c *LinksConfig) Normalize() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// ProcessingConfig controls error handling in the process phase.
type ProcessingConfig struct {
	SkipErrors bool `mapstructure:"skip_errors" json:"skip_errors"`
	Workers    int  `mapstructure:"workers" json:"workers"`
}

func (c *ProcessingConfig) Normalize() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
}

// MarkdownConfig controls the rendered output files.
type MarkdownConfig struct {
	Timezone         string `mapstructure:"timezone" json:"timezone"`
	WikilinkStyle    string `mapstructure:"wikilink_style" json:"wikilink_style"`
	IncludeMessageID bool   `mapstructure:"include_message_id" json:"include_message_id"`
}

func (c *MarkdownConfig) Normalize() {
	if c.WikilinkStyle == "" {
		c.WikilinkStyle = "obsidian"
	}
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
	File  string `mapstructure:"file" json:"file"`
}

func (c *LoggingConfig) Normalize() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Config is the root configuration document.
type Config struct {
	Telegram      TelegramConfig      `mapstructure:"telegram" json:"telegram"`
	Storage       StorageConfig       `mapstructure:"storage" json:"storage"`
	Transcription TranscriptionConfig `mapstructure:"transcription" json:"transcription"`
	Summarization SummarizationConfig `mapstructure:"summarization" json:"summarization"`
	OCR           OCRConfig           `mapstructure:"ocr" json:"ocr"`
	Links         LinksConfig         `mapstructure:"links" json:"links"`
	Tagging       tagger.Config       `mapstructure:"tagging" json:"tagging"`
	Processing    ProcessingConfig    `mapstructure:"processing" json:"processing"`
	Markdown      MarkdownConfig      `mapstructure:"markdown" json:"markdown"`
	Logging       LoggingConfig       `mapstructure:"logging" json:"logging"`
}

// Normalize applies defaults across every section.
func (c *Config) Normalize() {
	c.Telegram.Normalize()
	c.Storage.Normalize()
	c.Transcription.Normalize()
	c.Summarization.Normalize()
	c.OCR.Normalize()
	c.Links.Normalize()
	c.Processing.Normalize()
	c.Markdown.Normalize()
	c.Logging.Normalize()
}

// Load reads the config file at path and unmarshals it. Environment
// variables with the TRUDY_ prefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	filename := filepath.Base(path)
	v.AddConfigPath(filepath.Dir(path))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TRUDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("telegram.bot_token", "TRUDY_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("transcription.api_key", "TRUDY_TRANSCRIPTION_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("summarization.api_key", "TRUDY_SUMMARIZATION_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}
