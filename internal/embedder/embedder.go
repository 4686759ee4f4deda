// Package embedder turns text into fixed-length vectors.
package embedder

import (
	"context"
	"fmt"
	"unicode/utf8"

	"tubeqa/internal/chunker"
)

// MaxChunkChars bounds the text sent to the model per chunk so inputs stay
// within the token limit of small sentence-embedding models.
const MaxChunkChars = 480

// Embedder produces embeddings for batches of text.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedSingle embeds one text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	// Model names the embedding model.
	Model() string
}

// Record pairs a chunk with its embedding.
type Record struct {
	ChunkID   int
	Embedding []float32
}

// EmbedChunks embeds all chunks in a single batch call. Each text is cut to
// MaxChunkChars characters first.
func EmbedChunks(ctx context.Context, e Embedder, chunks []chunker.Chunk) ([]Record, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = Truncate(c.Text, MaxChunkChars)
	}

	vecs, err := e.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(vecs))
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{ChunkID: c.ChunkID, Embedding: vecs[i]}
	}
	return records, nil
}

// Vectors returns the embeddings of records in order.
func Vectors(records []Record) [][]float32 {
	out := make([][]float32, len(records))
	for i, r := range records {
		out[i] = r.Embedding
	}
	return out
}

// Dimensions embeds a probe string and reports the vector length.
func Dimensions(ctx context.Context, e Embedder) (int, error) {
	v, err := e.EmbedSingle(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("probe embedding dimension: %w", err)
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("model %s returned an empty embedding", e.Model())
	}
	return len(v), nil
}

// Truncate returns at most n characters of s without splitting a rune.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
