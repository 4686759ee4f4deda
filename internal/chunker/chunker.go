// Package chunker splits cleaned transcript text into overlapping chunks.
package chunker

import "strings"

// Chunk is a contiguous span of transcript text. ChunkID is its 0-based
// position in the output sequence.
type Chunk struct {
	ChunkID int
	Text    string
}

// Chunker splits text into ordered chunks. Empty input yields no chunks.
type Chunker interface {
	Chunk(text string) ([]Chunk, error)
}

func number(pieces []string) []Chunk {
	chunks := make([]Chunk, 0, len(pieces))
	for _, p := range pieces {
		chunks = append(chunks, Chunk{ChunkID: len(chunks), Text: p})
	}
	return chunks
}

// Texts returns the chunk texts in order.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
