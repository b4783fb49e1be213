package trudy

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/spf13/cobra"

	"github.com/itsabhinavjain/project-trudy-km-telegram/pkg/util"
)

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show configuration, provider availability and storage usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadManager()
		if err != nil {
			return err
		}
		cfg := m.Config()

		fmt.Printf("Config file:    %s\n", configPath)
		fmt.Printf("Base directory: %s\n", cfg.Storage.BaseDir)
		fmt.Printf("State file:     %s\n", cfg.Storage.StatePath())
		fmt.Printf("Staging:        %s\n", filepath.Join(cfg.Storage.BaseDir, cfg.Storage.StagingName))
		fmt.Printf("Processed:      %s\n", filepath.Join(cfg.Storage.BaseDir, cfg.Storage.ProcessedName))
		fmt.Printf("Media:          %s\n", filepath.Join(cfg.Storage.BaseDir, cfg.Storage.MediaName))

		fmt.Println("\nProviders:")
		fmt.Printf("  transcription: %s\n", availability(m.TranscriptionAvailable(), cfg.Transcription.Provider))
		fmt.Printf("  summarization: %s\n", availability(m.SummarizationAvailable(), cfg.Summarization.Provider))
		fmt.Printf("  ocr:           %s\n", availability(m.OCRAvailable(), "tesseract"))
		fmt.Printf("  tagging:       %s\n", availability(m.TaggingAvailable(), fmt.Sprintf("%d rules", len(cfg.Tagging.Rules))))
		fmt.Printf("  links:         %s\n", availability(cfg.Links.Enabled, "article extraction"))

		stats, err := m.State().GetStatistics()
		if err != nil {
			return err
		}
		fmt.Println("\nState:")
		fmt.Printf("  users:       %d\n", stats.TotalUsers)
		fmt.Printf("  fetched:     %d\n", stats.TotalMessagesFetched)
		fmt.Printf("  processed:   %d\n", stats.TotalMessagesProcessed)
		fmt.Printf("  media:       %d\n", stats.TotalMedia)
		fmt.Printf("  transcripts: %d\n", stats.TotalTranscriptions)
		fmt.Printf("  summaries:   %d\n", stats.TotalSummaries)
		fmt.Printf("  ocr:         %d\n", stats.TotalOCR)
		fmt.Printf("  tags:        %d\n", stats.TotalTags)
		fmt.Printf("  links:       %d\n", stats.TotalLinksExtracted)

		usage, err := disk.Usage(cfg.Storage.BaseDir)
		if err != nil {
			// base dir may not exist until the first fetch
			log.Debug().Err(err).Str("path", cfg.Storage.BaseDir).Msg("disk usage unavailable")
			return nil
		}
		fmt.Println("\nDisk:")
		fmt.Printf("  total: %s\n", util.HumanBytes(usage.Total))
		fmt.Printf("  free:  %s\n", util.HumanBytes(usage.Free))
		fmt.Printf("  used:  %s (%.1f%%)\n", util.HumanBytes(usage.Used), usage.UsedPercent)
		return nil
	},
}

func availability(ok bool, detail string) string {
	if ok {
		return fmt.Sprintf("available (%s)", detail)
	}
	return "disabled"
}
