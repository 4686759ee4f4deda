package index

import (
	"context"
	"fmt"
	"time"

	"tubeqa/internal/chunker"
	"tubeqa/internal/embedder"
	"tubeqa/internal/store"
	"tubeqa/internal/transcript"
)

// Pipeline phases reported to a ProgressFunc.
const (
	PhaseLoad      = "Fetching transcript..."
	PhaseChunk     = "Chunking transcript..."
	PhaseEmbed     = "Embedding chunks..."
	PhaseStore     = "Storing chunks..."
	PhaseSummarize = "Summarizing video..."
)

// ProgressFunc receives the current phase and how far along it is.
type ProgressFunc func(phase string, done, total int)

// Stats reports indexing results.
type Stats struct {
	VideoID    string
	Snippets   int
	Characters int
	Chunks     int
	Stored     int
	ModelReset bool
	Duration   time.Duration
}

type stages struct {
	loader   *transcript.Loader
	chunker  chunker.Chunker
	embedder embedder.Embedder
	store    store.Store
}

func report(fn ProgressFunc, phase string, done, total int) {
	if fn != nil {
		fn(phase, done, total)
	}
}

// runPipeline runs load, clean, chunk, embed and store in order. Each stage
// finishes before the next starts.
func runPipeline(ctx context.Context, videoID string, langs []string, s stages, onProgress ProgressFunc) (*Stats, []chunker.Chunk, error) {
	stats := &Stats{VideoID: videoID}

	report(onProgress, PhaseLoad, 0, 1)
	snippets, err := s.loader.Load(ctx, videoID, langs)
	if err != nil {
		return nil, nil, err
	}
	clean := transcript.Clean(transcript.Join(snippets))
	stats.Snippets = len(snippets)
	stats.Characters = len([]rune(clean))
	report(onProgress, PhaseLoad, 1, 1)

	report(onProgress, PhaseChunk, 0, 1)
	chunks, err := s.chunker.Chunk(clean)
	if err != nil {
		return stats, nil, fmt.Errorf("chunk transcript: %w", err)
	}
	stats.Chunks = len(chunks)
	report(onProgress, PhaseChunk, 1, 1)

	report(onProgress, PhaseEmbed, 0, len(chunks))
	records, err := embedder.EmbedChunks(ctx, s.embedder, chunks)
	if err != nil {
		return stats, nil, fmt.Errorf("embedding failed: %w", err)
	}
	report(onProgress, PhaseEmbed, len(records), len(chunks))

	report(onProgress, PhaseStore, 0, len(chunks))
	docs := make([]store.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = store.Document{VideoID: videoID, ChunkID: c.ChunkID, Text: c.Text}
	}
	stored, err := s.store.Upsert(ctx, videoID, docs, embedder.Vectors(records))
	if err != nil {
		return stats, nil, fmt.Errorf("storage failed: %w", err)
	}
	stats.Stored = stored
	report(onProgress, PhaseStore, stored, len(chunks))

	return stats, chunks, nil
}
