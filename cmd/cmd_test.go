package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubeqa/internal/config"
	"tubeqa/internal/index"
	"tubeqa/internal/store"
)

func TestRootRequiresTwoArgs(t *testing.T) {
	for _, args := range [][]string{nil, {"dQw4w9WgXcQ"}, {"a", "b", "c"}} {
		assert.Error(t, rootCmd.Args(rootCmd, args), "args %v", args)
	}
	assert.NoError(t, rootCmd.Args(rootCmd, []string{"dQw4w9WgXcQ", "what is this?"}))
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"index", "search", "videos", "forget", "tui", "mcp"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestNewChunkerFromConfig(t *testing.T) {
	cfg := config.Default()
	ch, err := newChunker(cfg)
	require.NoError(t, err)
	assert.NotNil(t, ch)

	cfg.Chunker = "sentence"
	_, err = newChunker(cfg)
	require.Error(t, err)
}

func TestFormatSearchResults(t *testing.T) {
	assert.Equal(t, `No results found for query: "x"`, formatSearchResults("x", nil))

	out := formatSearchResults("cats", []store.SearchResult{
		{Document: store.Document{VideoID: "vid", ChunkID: 4, Text: "cats purr"}, Distance: 0.25},
	})
	assert.Contains(t, out, "video `vid`, chunk 4")
	assert.Contains(t, out, "0.2500")
	assert.Contains(t, out, "cats purr")
}

func TestFormatVideos(t *testing.T) {
	assert.Contains(t, formatVideos(nil), "No videos indexed")

	out := formatVideos([]index.Video{
		{VideoSummary: store.VideoSummary{VideoID: "vid", Chunks: 3}, Summary: "A talk.\nMore detail."},
		{VideoSummary: store.VideoSummary{VideoID: "other", Chunks: 1}},
	})
	assert.Contains(t, out, "**vid** (3 chunks")
	assert.Contains(t, out, "A talk.")
	assert.NotContains(t, out, "More detail")
	assert.Contains(t, out, "(no summary)")
}

func TestFormatAnswer(t *testing.T) {
	out := formatAnswer(&index.Answer{
		Text:   "Forty-two.",
		Chunks: []store.SearchResult{{Document: store.Document{ChunkID: 1, Text: strings.Repeat("w ", 100)}}},
	})
	assert.True(t, strings.HasPrefix(out, "Forty-two."))
	assert.Contains(t, out, "## Sources")
	assert.Contains(t, out, "1. chunk 1:")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine("one\ntwo", 10))
	assert.Equal(t, "abc...", firstLine("abcdef", 3))
	assert.Equal(t, "", firstLine("", 3))
}
