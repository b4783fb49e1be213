package trudy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/telegram"
)

var syncFullSync bool

func init() {
	addProcessFlags(syncCmd)
	syncCmd.Flags().BoolVar(&syncFullSync, "full-sync", false, "ignore the last message watermark when fetching")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch then process in one run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := loadManager()
		if err != nil {
			return err
		}
		fetcher, err := m.Fetcher()
		if err != nil {
			return err
		}

		fetchReport, err := fetcher.Fetch(ctx, telegram.FetchOptions{
			Users:    processUsers,
			FullSync: syncFullSync,
			DryRun:   processDryRun,
		})
		printFetchReport(fetchReport)
		if err != nil {
			return err
		}

		opts := m.ProcessOptions(processReprocess, processDryRun, skipOptions())
		report, err := m.Processor().ProcessAll(ctx, processUsers, opts)
		fmt.Println(report)
		return err
	},
}
