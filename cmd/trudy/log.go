package trudy

import (
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Verbose bool
	Quiet   bool
)

func initLog(cmd *cobra.Command, args []string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logrus.SetLevel(logrus.InfoLevel)

	if Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logrus.SetLevel(logrus.DebugLevel)
	}
	if Quiet && !Verbose {
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		logrus.SetLevel(logrus.ErrorLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logrus.SetOutput(os.Stderr)
	stdlog.SetOutput(os.Stderr)
}
