package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tubeqa/internal/config"
	"tubeqa/internal/index"
	"tubeqa/internal/transcript"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "tubeqa <video_id> <question>",
	Short: "Ask questions about YouTube videos using their transcripts",
	Long: `tubeqa fetches a video's captions, indexes them into a local vector store
and answers questions with a local model.`,
	Args: cobra.ExactArgs(2),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		setupLogging(cfg.LogLevel)
		return nil
	},
	RunE: runAsk,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
}

func runAsk(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	videoID, err := transcript.ParseVideoID(args[0])
	if err != nil {
		return err
	}
	question := args[1]
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Fetching transcript for video ID: %s\n", videoID)
	stats, err := a.indexer.Index(ctx, videoID, nil)
	if err != nil {
		return err
	}
	fmt.Printf("Transcript Length: %d characters\n", stats.Characters)
	fmt.Printf("Indexed %d chunks for video ID %s\n\n", stats.Chunks, videoID)

	fmt.Printf("Question: %s\n", question)
	ans, err := a.indexer.Ask(ctx, videoID, question, cfg.K)
	if err != nil {
		return err
	}

	printChunks(ans)
	fmt.Printf("Answer:\n%s\n", ans.Text)
	return nil
}

func printChunks(ans *index.Answer) {
	fmt.Println("Top Retrieved Transcript Chunks:")
	fmt.Println()
	rule := strings.Repeat("-", 60)
	for i, r := range ans.Chunks {
		fmt.Printf("[Chunk %d]\n%s\n%s\n", i+1, firstChars(r.Document.Text, 500), rule)
	}
	fmt.Println()
}
