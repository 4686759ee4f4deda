// Package index ties the transcript pipeline together: it indexes videos
// into the vector store and answers questions against them.
package index

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tubeqa/internal/chunker"
	"tubeqa/internal/embedder"
	"tubeqa/internal/rag"
	"tubeqa/internal/store"
	"tubeqa/internal/transcript"
)

// Config holds the indexer configuration.
type Config struct {
	// Languages is the caption language preference, most preferred first.
	Languages []string
	// K is the number of chunks retrieved per question.
	K int
	// Summarize generates a short summary of each video after indexing.
	Summarize bool
}

// Components are the collaborators an Indexer drives. Generator may be nil
// when only indexing and search are needed.
type Components struct {
	Loader    *transcript.Loader
	Chunker   chunker.Chunker
	Embedder  embedder.Embedder
	Store     store.Store
	Generator rag.Generator
}

// Indexer is the public API for indexing videos and asking questions.
type Indexer struct {
	loader    *transcript.Loader
	chunker   chunker.Chunker
	embedder  embedder.Embedder
	store     store.Store
	gen       rag.Generator
	retriever *rag.Retriever
	answerer  *rag.Answerer
	config    Config
}

// Answer is a generated reply with the chunks it was based on.
type Answer struct {
	Text   string
	Chunks []store.SearchResult
}

// New creates an Indexer over the given components.
func New(cfg Config, c Components) *Indexer {
	if cfg.K <= 0 {
		cfg.K = rag.DefaultK
	}
	idx := &Indexer{
		loader:    c.Loader,
		chunker:   c.Chunker,
		embedder:  c.Embedder,
		store:     c.Store,
		gen:       c.Generator,
		retriever: rag.NewRetriever(c.Store, c.Embedder),
		config:    cfg,
	}
	if c.Generator != nil {
		idx.answerer = rag.NewAnswerer(c.Generator)
	}
	return idx
}

// Index fetches, cleans, chunks and embeds the transcript of videoID and
// replaces whatever the store held for it.
func (idx *Indexer) Index(ctx context.Context, videoID string, onProgress ProgressFunc) (*Stats, error) {
	start := time.Now()

	// Vectors from different models are not comparable.
	lastModel, err := idx.store.GetMeta(store.MetaEmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	model := idx.embedder.Model()
	reindexed := false
	if lastModel != "" && lastModel != model {
		log.Warn().Str("from", lastModel).Str("to", model).Msg("embedding model changed, dropping all indexed videos")
		if err := idx.store.DeleteAll(); err != nil {
			return nil, fmt.Errorf("delete all documents: %w", err)
		}
		reindexed = true
	}

	stats, chunks, err := runPipeline(ctx, videoID, idx.config.Languages, stages{
		loader:   idx.loader,
		chunker:  idx.chunker,
		embedder: idx.embedder,
		store:    idx.store,
	}, onProgress)
	if err != nil {
		return stats, err
	}
	stats.ModelReset = reindexed

	if err := idx.store.SetMeta(store.MetaEmbeddingModel, model); err != nil {
		return nil, fmt.Errorf("set meta: %w", err)
	}

	if idx.config.Summarize && idx.gen != nil && len(chunks) > 0 {
		report(onProgress, PhaseSummarize, 0, 1)
		summary, err := summarizeVideo(ctx, idx.gen, chunker.Texts(chunks))
		if err != nil {
			log.Warn().Err(err).Str("video_id", videoID).Msg("video summary failed")
		} else if err := idx.store.SetMeta(summaryKey(videoID), summary); err != nil {
			log.Warn().Err(err).Str("video_id", videoID).Msg("failed to save video summary")
		}
		report(onProgress, PhaseSummarize, 1, 1)
	}

	stats.Duration = time.Since(start)
	log.Info().
		Str("video_id", videoID).
		Int("chunks", stats.Chunks).
		Dur("took", stats.Duration).
		Msg("indexed video")
	return stats, nil
}

// Search finds the k chunks closest to query, within videoID when set.
func (idx *Indexer) Search(ctx context.Context, query string, k int, videoID string) ([]store.SearchResult, error) {
	if k <= 0 {
		k = idx.config.K
	}
	return idx.retriever.Retrieve(ctx, query, k, videoID)
}

// Ask retrieves the chunks of videoID closest to question and generates an
// answer from them.
func (idx *Indexer) Ask(ctx context.Context, videoID, question string, k int) (*Answer, error) {
	if idx.answerer == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	results, err := idx.Search(ctx, question, k, videoID)
	if err != nil {
		return nil, err
	}
	return &Answer{
		Text:   idx.answerer.Answer(ctx, question, rag.Texts(results)),
		Chunks: results,
	}, nil
}

// Video describes an indexed video.
type Video struct {
	store.VideoSummary
	Summary string
}

// Videos lists indexed videos with their stored summaries.
func (idx *Indexer) Videos(ctx context.Context) ([]Video, error) {
	list, err := idx.store.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	out := make([]Video, len(list))
	for i, v := range list {
		out[i] = Video{VideoSummary: v}
		if s, err := idx.store.GetMeta(summaryKey(v.VideoID)); err == nil {
			out[i].Summary = s
		}
	}
	return out, nil
}

// Indexed reports whether videoID has documents in the store.
func (idx *Indexer) Indexed(ctx context.Context, videoID string) (bool, error) {
	n, err := idx.store.Count(ctx, videoID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Forget removes a video and its summary from the store.
func (idx *Indexer) Forget(ctx context.Context, videoID string) error {
	if err := idx.store.DeleteVideo(ctx, videoID); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return idx.store.SetMeta(summaryKey(videoID), "")
}

// Close releases resources.
func (idx *Indexer) Close() error {
	return idx.store.Close()
}
