package trudy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/telegram"
)

var (
	fetchUsers    []string
	fetchFullSync bool
	fetchDryRun   bool
)

func init() {
	fetchCmd.Flags().StringArrayVarP(&fetchUsers, "user", "u", nil, "fetch only these users (repeatable)")
	fetchCmd.Flags().BoolVar(&fetchFullSync, "full-sync", false, "ignore the last message watermark")
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "poll and classify without writing anything")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch new messages into the staging area",
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

		report, err := fetcher.Fetch(ctx, telegram.FetchOptions{
			Users:    fetchUsers,
			FullSync: fetchFullSync,
			DryRun:   fetchDryRun,
		})
		printFetchReport(report)
		return err
	},
}

func printFetchReport(report *telegram.FetchReport) {
	fmt.Printf("Fetched %d message(s), %d media file(s), %d new user(s)\n",
		report.MessagesFetched, report.MediaDownloaded, report.UsersDiscovered)
	for _, detail := range report.Errors {
		fmt.Printf("  error: %s\n", detail)
	}
}
