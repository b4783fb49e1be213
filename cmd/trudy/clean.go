package trudy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/checksum"
	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/util"
)

var cleanDryRun bool

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "report stale entries without removing them")
	rootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Prune state entries for staged files no longer on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}

		users, err := m.State().GetAllUsers()
		if err != nil {
			return err
		}

		var totalPending, totalChecksums int
		for _, username := range users {
			pending, checksums, err := m.State().PruneStale(username, util.FileExists, cleanDryRun)
			if err != nil {
				return fmt.Errorf("prune %s: %w", username, err)
			}
			if pending > 0 || checksums > 0 {
				fmt.Printf("%s: %d stale pending files, %d stale checksums\n", username, pending, checksums)
			}
			totalPending += pending
			totalChecksums += checksums

			if drifted := countDrifted(m.State(), m.Config().Storage.StagingDir(username), username); drifted > 0 {
				fmt.Printf("%s: %d staged file(s) changed since last processing (run `trudy process`)\n",
					username, drifted)
			}
		}

		if totalPending == 0 && totalChecksums == 0 {
			fmt.Println("State is clean.")
			return nil
		}
		if cleanDryRun {
			fmt.Printf("Would remove %d pending entries and %d checksums.\n", totalPending, totalChecksums)
		} else {
			fmt.Printf("Removed %d pending entries and %d checksums.\n", totalPending, totalChecksums)
		}
		return nil
	},
}

// countDrifted hashes the user's staging directory and counts files whose
// content no longer matches the checksum recorded at processing time.
func countDrifted(st stateReader, stagingDir, username string) int {
	sums, err := checksum.Directory(stagingDir, "*.md")
	if err != nil {
		return 0
	}
	drifted := 0
	for path, sum := range sums {
		stored := st.GetFileChecksum(username, path)
		if stored != "" && stored != sum {
			drifted++
		}
	}
	return drifted
}

type stateReader interface {
	GetFileChecksum(username, path string) string
}
