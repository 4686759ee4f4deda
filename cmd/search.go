package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubeqa/internal/transcript"
)

var flagVideo string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed transcripts without generating an answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		videoID := ""
		if flagVideo != "" {
			id, err := transcript.ParseVideoID(flagVideo)
			if err != nil {
				return err
			}
			videoID = id
		}

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.indexer.Search(ctx, query, cfg.K, videoID)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		rule := strings.Repeat("-", 60)
		for i, r := range results {
			fmt.Printf("[%d] %s chunk %d (distance %.4f)\n%s\n%s\n",
				i+1, r.Document.VideoID, r.Document.ChunkID, r.Distance,
				firstChars(r.Document.Text, 500), rule)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&flagVideo, "video", "", "restrict results to one video")
	rootCmd.AddCommand(searchCmd)
}
