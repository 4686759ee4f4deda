package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tubeqa/internal/transcript"
)

var flagCached bool

var indexCmd = &cobra.Command{
	Use:   "index <video_id>...",
	Short: "Fetch and index the transcripts of one or more videos",
	Args: func(cmd *cobra.Command, args []string) error {
		if flagCached {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := cmd.Context()

		ids := make([]string, 0, len(args))
		for _, arg := range args {
			id, err := transcript.ParseVideoID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if flagCached {
			cached, err := transcript.NewCache(cfg.TranscriptDir, 0).List()
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}
			if len(cached) == 0 {
				fmt.Printf("No cached transcripts in %s\n", cfg.TranscriptDir)
				return nil
			}
			ids = cached
		}

		a, err := newApp(ctx, cfg, cfg.Summarize)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range ids {
			fmt.Printf("Indexing %s...\n", id)
			stats, err := a.indexer.Index(ctx, id, nil)
			if err != nil {
				return fmt.Errorf("index %s: %w", id, err)
			}
			fmt.Printf("  Done in %s\n", stats.Duration.Round(time.Millisecond))
			fmt.Printf("  Cues:    %d\n", stats.Snippets)
			fmt.Printf("  Chars:   %d\n", stats.Characters)
			fmt.Printf("  Chunks:  %d\n", stats.Chunks)
			if stats.ModelReset {
				fmt.Println("  Embedding model changed: previously indexed videos were dropped")
			}
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&flagCached, "cached", false, "re-index every video in the transcript cache")
	rootCmd.AddCommand(indexCmd)
}
