package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"tubeqa/internal/index"
	"tubeqa/internal/store"
	"tubeqa/internal/transcript"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing video question-answering tools",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcpserver.ServeStdio(newMCPServer(a.indexer, cfg.K))
}

func newMCPServer(idx *index.Indexer, defaultK int) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("tubeqa", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(indexVideoTool(), makeIndexHandler(idx))
	s.AddTool(askVideoTool(), makeAskHandler(idx, defaultK))
	s.AddTool(searchTranscriptsTool(), makeSearchHandler(idx, defaultK))
	s.AddTool(listVideosTool(), makeListVideosHandler(idx))
	return s
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func indexVideoTool() mcp.Tool {
	return mcp.NewTool("index_video",
		mcp.WithDescription("Fetch a YouTube video's captions and index them for question answering. Re-indexing replaces the previous chunks."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(false),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(true),
			OpenWorldHint:   mcp.ToBoolPtr(true),
		}),
		mcp.WithString("video_id",
			mcp.Required(),
			mcp.Description("YouTube video ID or URL"),
		),
	)
}

func askVideoTool() mcp.Tool {
	return mcp.NewTool("ask_video",
		mcp.WithDescription("Answer a question about a YouTube video from its transcript. Indexes the video first if needed."),
		mcp.WithString("video_id",
			mcp.Required(),
			mcp.Description("YouTube video ID or URL"),
		),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about the video's content"),
		),
		mcp.WithNumber("k",
			mcp.Description("Number of transcript chunks to retrieve (default 3)"),
		),
	)
}

func searchTranscriptsTool() mcp.Tool {
	return mcp.NewTool("search_transcripts",
		mcp.WithDescription("Semantically search indexed transcripts. Returns matching chunks with their video IDs."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query"),
		),
		mcp.WithString("video_id",
			mcp.Description("Optional video ID to restrict the search to"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of chunks to return (default 3)"),
		),
	)
}

func listVideosTool() mcp.Tool {
	return mcp.NewTool("list_videos",
		mcp.WithDescription("List indexed videos with their chunk counts and summaries."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func videoArg(req mcp.CallToolRequest) (string, *mcp.CallToolResult) {
	raw := req.GetString("video_id", "")
	if raw == "" {
		return "", mcp.NewToolResultError("video_id is required")
	}
	id, err := transcript.ParseVideoID(raw)
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	return id, nil
}

func indexFailure(videoID string, err error) *mcp.CallToolResult {
	if errors.Is(err, transcript.ErrTranscriptUnavailable) {
		return mcp.NewToolResultError(fmt.Sprintf("no transcript available for %s: %v", videoID, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("indexing %s failed: %v", videoID, err))
}

func makeIndexHandler(idx *index.Indexer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		videoID, bad := videoArg(req)
		if bad != nil {
			return bad, nil
		}
		stats, err := idx.Index(ctx, videoID, nil)
		if err != nil {
			return indexFailure(videoID, err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Indexed %d chunks (%d characters) for video %s.",
			stats.Chunks, stats.Characters, videoID)), nil
	}
}

func makeAskHandler(idx *index.Indexer, defaultK int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		videoID, bad := videoArg(req)
		if bad != nil {
			return bad, nil
		}
		question := strings.TrimSpace(req.GetString("question", ""))
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}
		k := req.GetInt("k", defaultK)
		if k <= 0 {
			k = defaultK
		}

		ok, err := idx.Indexed(ctx, videoID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("check index failed: %v", err)), nil
		}
		if !ok {
			if _, err := idx.Index(ctx, videoID, nil); err != nil {
				return indexFailure(videoID, err), nil
			}
		}

		ans, err := idx.Ask(ctx, videoID, question, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatAnswer(ans)), nil
	}
}

func makeSearchHandler(idx *index.Indexer, defaultK int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		videoID := ""
		if req.GetString("video_id", "") != "" {
			id, bad := videoArg(req)
			if bad != nil {
				return bad, nil
			}
			videoID = id
		}
		k := req.GetInt("k", defaultK)
		if k <= 0 {
			k = defaultK
		}

		results, err := idx.Search(ctx, query, k, videoID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeListVideosHandler(idx *index.Indexer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		videos, err := idx.Videos(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list videos failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatVideos(videos)), nil
	}
}

// --- Formatting helpers ---

func formatAnswer(ans *index.Answer) string {
	var sb strings.Builder
	sb.WriteString(ans.Text)
	if len(ans.Chunks) > 0 {
		sb.WriteString("\n\n## Sources\n\n")
		for i, c := range ans.Chunks {
			fmt.Fprintf(&sb, "%d. chunk %d: %s\n", i+1, c.Document.ChunkID, firstLine(c.Document.Text, 120))
		}
	}
	return sb.String()
}

func formatSearchResults(query string, results []store.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "### Result %d: video `%s`, chunk %d\n\n", i+1, r.Document.VideoID, r.Document.ChunkID)
		fmt.Fprintf(&sb, "**Distance:** %.4f\n\n", r.Distance)
		fmt.Fprintf(&sb, "%s\n\n", r.Document.Text)
	}
	return sb.String()
}

func formatVideos(videos []index.Video) string {
	if len(videos) == 0 {
		return "No videos indexed yet. Call index_video first."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Indexed videos (%d)\n\n", len(videos))
	for _, v := range videos {
		summary := firstLine(v.Summary, 120)
		if summary == "" {
			summary = "(no summary)"
		}
		fmt.Fprintf(&sb, "- **%s** (%d chunks, indexed %s): %s\n", v.VideoID, v.Chunks, v.IndexedAt, summary)
	}
	return sb.String()
}
