package cmd

import (
	"github.com/spf13/cobra"

	"tubeqa/internal/config"
	"tubeqa/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal UI: load a video, then ask about it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runTUI(cmd)
	},
}

func runTUI(cmd *cobra.Command) error {
	a, err := newApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	models := []string{cfg.ChatModel}
	if cfg.EmbedBackend == config.BackendOllama {
		models = append(models, cfg.EmbedModel)
	}

	return tui.Run(tui.Config{
		Indexer:   a.indexer,
		OllamaURL: cfg.OllamaURL,
		Models:    models,
		K:         cfg.K,
	})
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
