package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tubeqa/internal/index"
	"tubeqa/internal/store"
	"tubeqa/internal/transcript"
)

var videosCmd = &cobra.Command{
	Use:   "videos",
	Short: "List indexed videos and cached transcripts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := cmd.Context()

		cached, err := transcript.NewCache(cfg.TranscriptDir, cfg.CacheMaxAge).List()
		if err != nil {
			return fmt.Errorf("list cache: %w", err)
		}

		var indexed []index.Video
		if _, statErr := os.Stat(cfg.DBPath); statErr == nil {
			idx, err := openExisting()
			if err != nil {
				return err
			}
			defer idx.Close()
			if indexed, err = idx.Videos(ctx); err != nil {
				return err
			}
		}

		seen := make(map[string]bool, len(indexed))
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VIDEO\tCHUNKS\tINDEXED AT\tSUMMARY")
		for _, v := range indexed {
			seen[v.VideoID] = true
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", v.VideoID, v.Chunks, v.IndexedAt, firstLine(v.Summary, 60))
		}
		for _, id := range cached {
			if !seen[id] {
				fmt.Fprintf(tw, "%s\t-\tcached only\t\n", id)
			}
		}
		return tw.Flush()
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <video_id>",
	Short: "Remove a video from the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		id, err := transcript.ParseVideoID(args[0])
		if err != nil {
			return err
		}
		idx, err := openExisting()
		if err != nil {
			return err
		}
		defer idx.Close()
		if err := idx.Forget(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Removed %s from the index\n", id)
		return nil
	},
}

// openExisting opens the index without an embedder, for commands that only
// read or delete stored videos.
func openExisting() (*index.Indexer, error) {
	st, err := store.Open(cfg.DBPath, 0)
	if err != nil {
		return nil, err
	}
	return index.New(index.Config{}, index.Components{Store: st}), nil
}

func firstLine(s string, n int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len([]rune(s)) > n {
		return firstChars(s, n) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(videosCmd)
	rootCmd.AddCommand(forgetCmd)
}
