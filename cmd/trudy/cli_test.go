package trudy

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFlagShorthand(t *testing.T) {
	for _, cmd := range []*cobra.Command{fetchCmd, processCmd, syncCmd} {
		flag := cmd.Flags().ShorthandLookup("u")
		require.NotNil(t, flag, "%s must register -u", cmd.Name())
		assert.Equal(t, "user", flag.Name, cmd.Name())
	}
}

func TestQuietSetsErrorLevel(t *testing.T) {
	old := zerolog.GlobalLevel()
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(old)
		Quiet = false
		Verbose = false
	})

	Quiet = true
	initLog(rootCmd, nil)
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
	assert.Equal(t, logrus.ErrorLevel, logrus.GetLevel())
}
