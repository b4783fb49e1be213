// Package trudy wires configuration, state, the Telegram client, and the
// enrichment providers into the pipeline the CLI commands drive.
package trudy

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/article"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/markdown"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/ocr"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/pipeline"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/state"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/summarize"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/tagger"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/telegram"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/trudy/conf"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/whisper"
)

// Manager owns the application services for one invocation.
type Manager struct {
	cfg   *conf.Config
	state *state.Manager

	mdCfg markdown.Config

	transcriber whisper.Transcriber
	summarizer  summarize.Summarizer
	ocrEngine   *ocr.Engine
	articles    *article.Extractor
	tags        *tagger.Tagger

	client    *telegram.Client
	fetcher   *telegram.Fetcher
	processor *pipeline.Processor
}

// New builds a manager from configuration. Providers that fail to
// initialize are disabled with a warning rather than aborting startup; the
// Telegram client is only built by Fetcher().
func New(cfg *conf.Config) (*Manager, error) {
	m := &Manager{
		cfg:   cfg,
		state: state.NewManager(cfg.Storage.StatePath()),
	}

	loc := time.Local
	if cfg.Markdown.Timezone != "" {
		parsed, err := time.LoadLocation(cfg.Markdown.Timezone)
		if err != nil {
			log.Warn().Str("timezone", cfg.Markdown.Timezone).Err(err).
				Msg("invalid timezone, using local")
		} else {
			loc = parsed
		}
	}
	m.mdCfg = markdown.Config{
		Location:         loc,
		WikilinkStyle:    cfg.Markdown.WikilinkStyle,
		IncludeMessageID: cfg.Markdown.IncludeMessageID,
	}

	if cfg.Transcription.Enabled {
		tr, err := whisper.New(whisper.Config{
			Provider:       cfg.Transcription.Provider,
			Model:          cfg.Transcription.Model,
			APIKey:         cfg.Transcription.APIKey,
			BaseURL:        cfg.Transcription.BaseURL,
			Organization:   cfg.Transcription.Organization,
			ProxyURL:       cfg.Transcription.Proxy,
			Language:       cfg.Transcription.Language,
			Prompt:         cfg.Transcription.InitialPrompt,
			RequestTimeout: cfg.Transcription.RequestTimeout(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("transcription disabled")
		} else {
			m.transcriber = tr
		}
	}

	if cfg.Summarization.Enabled {
		sum, err := summarize.New(summarize.Config{
			Provider:       cfg.Summarization.Provider,
			Model:          cfg.Summarization.Model,
			APIKey:         cfg.Summarization.APIKey,
			BaseURL:        cfg.Summarization.BaseURL,
			Temperature:    cfg.Summarization.Temperature,
			MaxTokens:      cfg.Summarization.MaxTokens,
			RequestTimeout: cfg.Summarization.RequestTimeout(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("summarization disabled")
		} else {
			m.summarizer = sum
		}
	}

	if cfg.OCR.Enabled {
		engine, err := ocr.New(ocr.Config{
			Languages: cfg.OCR.Languages,
			Timeout:   time.Duration(cfg.OCR.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("OCR disabled")
		} else {
			m.ocrEngine = engine
		}
	}

	if cfg.Links.Enabled {
		m.articles = article.New(time.Duration(cfg.Links.TimeoutSeconds) * time.Second)
	}

	m.tags = tagger.New(cfg.Tagging)

	return m, nil
}

// Config returns the loaded configuration.
func (m *Manager) Config() *conf.Config { return m.cfg }

// State returns the state manager.
func (m *Manager) State() *state.Manager { return m.state }

// TranscriptionAvailable reports whether a transcription backend is wired.
func (m *Manager) TranscriptionAvailable() bool { return m.transcriber != nil }

// SummarizationAvailable reports whether a summarization backend is wired.
func (m *Manager) SummarizationAvailable() bool { return m.summarizer != nil }

// OCRAvailable reports whether tesseract was found.
func (m *Manager) OCRAvailable() bool { return m.ocrEngine != nil }

// TaggingAvailable reports whether tagging is enabled.
func (m *Manager) TaggingAvailable() bool { return m.tags.Available() }

// Fetcher lazily builds the Telegram client and fetch-phase services.
func (m *Manager) Fetcher() (*telegram.Fetcher, error) {
	if m.fetcher != nil {
		return m.fetcher, nil
	}
	if m.cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("telegram.bot_token is not configured")
	}

	client, err := telegram.NewClient(m.cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	m.client = client

	m.fetcher = telegram.NewFetcher(
		client,
		m.state,
		markdown.NewStagingWriter(m.mdCfg),
		telegram.NewDownloader(client),
		&m.cfg.Storage,
	)
	return m.fetcher, nil
}

// Processor builds the process-phase pipeline with every available
// provider wired in.
func (m *Manager) Processor() *pipeline.Processor {
	if m.processor != nil {
		return m.processor
	}

	prompts := pipeline.Prompts{
		Audio:   m.cfg.Summarization.Prompts.Audio,
		Video:   m.cfg.Summarization.Prompts.Video,
		Article: m.cfg.Summarization.Prompts.Article,
		YouTube: m.cfg.Summarization.Prompts.YouTube,
	}

	var (
		transcriber pipeline.Transcriber
		summarizer  pipeline.Summarizer
		ocrEngine   pipeline.OCREngine
		articles    pipeline.ArticleExtractor
		videos      pipeline.VideoResolver
	)
	if m.transcriber != nil {
		transcriber = m.transcriber
	}
	if m.summarizer != nil {
		summarizer = m.summarizer
	}
	if m.ocrEngine != nil {
		ocrEngine = m.ocrEngine
	}
	if m.articles != nil {
		articles = m.articles
		videos = m.articles
	}

	handlers := []pipeline.Handler{
		pipeline.NewTextHandler(),
		pipeline.NewMediaHandler(ocrEngine, m.mdCfg),
		pipeline.NewAudioVideoHandler(transcriber, summarizer, m.mdCfg, prompts),
		pipeline.NewYouTubeHandler(videos),
		pipeline.NewLinkHandler(articles, summarizer, prompts),
	}

	m.processor = pipeline.NewProcessor(
		m.state,
		&m.cfg.Storage,
		handlers,
		markdown.NewStagingReader(m.mdCfg),
		markdown.NewProcessedWriter(m.mdCfg),
		m.tags,
	)
	return m.processor
}

// ProcessOptions maps config plus per-run flags into pipeline options.
func (m *Manager) ProcessOptions(reprocess, dryRun bool, skip pipeline.SkipOptions) pipeline.Options {
	return pipeline.Options{
		Reprocess: reprocess,
		DryRun:    dryRun,
		FailFast:  !m.cfg.Processing.SkipErrors,
		Skip:      skip,
	}
}
