package trudy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/pipeline"
)

var (
	processUsers     []string
	processReprocess bool
	processDryRun    bool
	processWorkers   int

	skipTranscription bool
	skipOCR           bool
	skipSummarization bool
	skipTags          bool
	skipLinks         bool
)

func init() {
	addProcessFlags(processCmd)
	rootCmd.AddCommand(processCmd)
}

func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&processUsers, "user", "u", nil, "process only these users (repeatable)")
	cmd.Flags().BoolVar(&processReprocess, "reprocess", false, "reprocess files even when unchanged")
	cmd.Flags().BoolVar(&processDryRun, "dry-run", false, "run the pipeline without writing anything")
	cmd.Flags().IntVar(&processWorkers, "workers", 1, "worker count (processing is currently sequential)")
	cmd.Flags().BoolVar(&skipTranscription, "skip-transcription", false, "skip audio/video transcription")
	cmd.Flags().BoolVar(&skipOCR, "skip-ocr", false, "skip OCR on images")
	cmd.Flags().BoolVar(&skipSummarization, "skip-summarization", false, "skip summaries")
	cmd.Flags().BoolVar(&skipTags, "skip-tags", false, "skip tagging")
	cmd.Flags().BoolVar(&skipLinks, "skip-links", false, "skip link metadata extraction")
}

func skipOptions() pipeline.SkipOptions {
	return pipeline.SkipOptions{
		Transcription: skipTranscription,
		OCR:           skipOCR,
		Summarization: skipSummarization,
		Tags:          skipTags,
		Links:         skipLinks,
	}
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Enrich staged messages into the processed area",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := loadManager()
		if err != nil {
			return err
		}

		opts := m.ProcessOptions(processReprocess, processDryRun, skipOptions())
		report, err := m.Processor().ProcessAll(ctx, processUsers, opts)
		fmt.Println(report)
		return err
	},
}
