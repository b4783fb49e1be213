package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
telegram:
  bot_token: "123:abc"
storage:
  base_dir: "/var/lib/trudy"
transcription:
  enabled: true
  provider: "whisper-asr"
summarization:
  enabled: true
  provider: "ollama"
  model: "llama3"
tagging:
  enabled: true
  rules:
    - pattern: "recipe"
      tag: "#cooking"
markdown:
  timezone: "Europe/Berlin"
processing:
  skip_errors: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "/var/lib/trudy", cfg.Storage.BaseDir)
	assert.Equal(t, "ollama", cfg.Summarization.Provider)
	assert.Equal(t, "llama3", cfg.Summarization.Model)
	assert.True(t, cfg.Processing.SkipErrors)
	assert.Equal(t, "Europe/Berlin", cfg.Markdown.Timezone)
	require.Len(t, cfg.Tagging.Rules, 1)
	assert.Equal(t, "#cooking", cfg.Tagging.Rules[0].Tag)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: \"t\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Storage.BaseDir)
	assert.Equal(t, "staging", cfg.Storage.StagingName)
	assert.Equal(t, "processed", cfg.Storage.ProcessedName)
	assert.Equal(t, "media", cfg.Storage.MediaName)
	assert.Equal(t, 30, cfg.Telegram.TimeoutSeconds)
	assert.Equal(t, "openai", cfg.Transcription.Provider)
	assert.Equal(t, []string{"eng"}, cfg.OCR.Languages)
	assert.Equal(t, 1, cfg.Processing.Workers)
	assert.Equal(t, "obsidian", cfg.Markdown.WikilinkStyle)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Summarization.Prompts.Video)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRUDY_BOT_TOKEN", "env-token")

	cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: \"file-token\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
}

func TestTranscriptionProviderNormalization(t *testing.T) {
	cfg := TranscriptionConfig{Provider: "whisper-asr"}
	cfg.Normalize()
	assert.Equal(t, "webservice", cfg.Provider)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL)

	cfg = TranscriptionConfig{Provider: ""}
	cfg.Normalize()
	assert.Equal(t, "openai", cfg.Provider)
}

func TestStorageConfigPaths(t *testing.T) {
	cfg := StorageConfig{BaseDir: "/data"}
	cfg.Normalize()
	assert.Equal(t, filepath.Join("/data", "staging", "alice"), cfg.StagingDir("alice"))
	assert.Equal(t, filepath.Join("/data", "processed", "alice"), cfg.ProcessedDir("alice"))
	assert.Equal(t, filepath.Join("/data", "media", "alice"), cfg.MediaDir("alice"))
	assert.Equal(t, filepath.Join("/data", "state.json"), cfg.StatePath())
}
