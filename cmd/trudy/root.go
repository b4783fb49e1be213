package trudy

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/trudy"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/trudy/conf"
)

var configPath string

func init() {
	// windows only
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&Quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentPreRun = initLog
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "trudy",
	Short: "Telegram knowledge capture pipeline",
	Long: `Trudy captures Telegram messages into a markdown knowledge base.

Fetching stages raw messages per user and day; processing enriches them
with transcription, OCR, summaries, tags, and link metadata.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

// signalContext returns a context cancelled on SIGINT/SIGTERM so commands
// stop after the current unit of work.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadManager reads the config file and wires the application services.
func loadManager() (*trudy.Manager, error) {
	cfg, err := conf.Load(configPath)
	if err != nil {
		return nil, err
	}
	m, err := trudy.New(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("config", configPath).Msg("configuration loaded")
	return m, nil
}
