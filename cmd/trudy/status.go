package trudy

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-user fetch and process state",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}

		users, err := m.State().GetAllUsers()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No users tracked yet. Run 'trudy fetch' or 'trudy discover' first.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tCHAT ID\tFETCHED\tPROCESSED\tPENDING\tLAST FETCH\tLAST PROCESSED DATE")
		for _, username := range users {
			us, ok := m.State().GetUserState(username)
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
				username,
				us.ChatID,
				us.FetchState.TotalMessagesFetched,
				us.ProcessState.TotalMessagesProcessed,
				len(us.ProcessState.PendingFiles),
				formatTimePtr(us.FetchState.LastFetchTime),
				formatStringPtr(us.ProcessState.LastProcessedDate),
			)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		stats, err := m.State().GetStatistics()
		if err != nil {
			return err
		}
		fmt.Printf("\nTotals: %d users, %d fetched, %d processed, %d media, %d transcripts, %d summaries, %d OCR, %d tags, %d links\n",
			stats.TotalUsers,
			stats.TotalMessagesFetched,
			stats.TotalMessagesProcessed,
			stats.TotalMedia,
			stats.TotalTranscriptions,
			stats.TotalSummaries,
			stats.TotalOCR,
			stats.TotalTags,
			stats.TotalLinksExtracted,
		)
		return nil
	},
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatStringPtr(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
