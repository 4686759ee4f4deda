package index

import (
	"context"
	"fmt"
	"strings"

	"tubeqa/internal/embedder"
	"tubeqa/internal/llm"
	"tubeqa/internal/rag"
)

const summaryPrompt = `Summarize this video transcript in 2-3 sentences. Say what the video is about and the main points it makes. Do not speculate about things not said in the transcript.

Transcript:
%s`

// summaryChars bounds the transcript text placed in the summary prompt.
const summaryChars = 4000

func summaryKey(videoID string) string { return "summary:" + videoID }

// summarizeVideo asks the generator for a short summary of the opening of
// the transcript.
func summarizeVideo(ctx context.Context, gen rag.Generator, texts []string) (string, error) {
	body := embedder.Truncate(strings.Join(texts, "\n"), summaryChars)
	msgs := []llm.Message{
		{Role: "user", Content: fmt.Sprintf(summaryPrompt, body)},
	}
	out, err := gen.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty summary")
	}
	return out, nil
}
