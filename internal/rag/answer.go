package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tubeqa/internal/embedder"
	"tubeqa/internal/llm"
)

// Fixed replies for the two soft-failure paths.
const (
	NoContextAnswer = "No relevant context found."
	FailedAnswer    = "Sorry, I couldn't generate an answer for that question."
)

// Answer defaults.
const (
	DefaultMaxChunks    = 3
	DefaultContextChars = 2000
	DefaultMaxTokens    = 128
)

const instructions = "Answer the question based on the given video transcript."

// Generator produces a reply for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Answerer builds a prompt from retrieved chunks and asks the generator once.
type Answerer struct {
	gen          Generator
	MaxChunks    int
	ContextChars int
}

// NewAnswerer returns an Answerer with the default chunk and context limits.
func NewAnswerer(gen Generator) *Answerer {
	return &Answerer{
		gen:          gen,
		MaxChunks:    DefaultMaxChunks,
		ContextChars: DefaultContextChars,
	}
}

// Answer never returns an error. Without chunks it replies NoContextAnswer
// without calling the model; a generation failure is logged and replaced by
// FailedAnswer.
func (a *Answerer) Answer(ctx context.Context, question string, chunks []string) string {
	if len(chunks) == 0 {
		return NoContextAnswer
	}

	prompt := BuildPrompt(question, chunks, a.MaxChunks, a.ContextChars)
	out, err := a.gen.Generate(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		log.Error().Err(err).Msg("answer generation failed")
		return FailedAnswer
	}

	return strings.TrimSpace(out)
}

// BuildPrompt joins the first maxChunks chunks with newlines, cuts the result
// to budget characters and wraps it with instructions and the question.
func BuildPrompt(question string, chunks []string, maxChunks, budget int) string {
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	joined := strings.Join(chunks, "\n")
	if budget > 0 {
		joined = embedder.Truncate(joined, budget)
	}

	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Context:\n%s\n\n", joined)
	fmt.Fprintf(&b, "Question: %s\n\n", question)
	b.WriteString("Answer clearly and concisely:")
	return b.String()
}
