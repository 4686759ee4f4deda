package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"tubeqa/internal/chunker"
	"tubeqa/internal/config"
	"tubeqa/internal/embedder"
	"tubeqa/internal/index"
	"tubeqa/internal/llm"
	"tubeqa/internal/rag"
	"tubeqa/internal/store"
	"tubeqa/internal/transcript"
)

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// app owns the long-lived components of one invocation.
type app struct {
	cfg     config.Config
	indexer *index.Indexer
	cache   *transcript.Cache
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// newApp wires every component from cfg. The generator is only built when
// withGenerator is set so indexing works without a chat model.
func newApp(ctx context.Context, cfg config.Config, withGenerator bool) (*app, error) {
	a := &app{cfg: cfg}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := emb.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	st, err := openStore(ctx, cfg, emb)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, st.Close)

	ch, err := newChunker(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.cache = transcript.NewCache(cfg.TranscriptDir, cfg.CacheMaxAge)
	fetcher := transcript.NewYouTubeFetcher(transcript.WithRateLimit(rate.Limit(cfg.RateLimit), 1))

	var gen rag.Generator
	if withGenerator {
		gen = llm.NewOllamaChat(cfg.OllamaURL, cfg.ChatModel, llm.Greedy(rag.DefaultMaxTokens))
	}

	a.indexer = index.New(index.Config{
		Languages: cfg.Languages,
		K:         cfg.K,
		Summarize: cfg.Summarize,
	}, index.Components{
		Loader:    transcript.NewLoader(fetcher, a.cache),
		Chunker:   ch,
		Embedder:  emb,
		Store:     st,
		Generator: gen,
	})
	return a, nil
}

func newEmbedder(cfg config.Config) (embedder.Embedder, error) {
	switch cfg.EmbedBackend {
	case config.BackendONNX:
		e, err := embedder.NewONNXEmbedder(embedder.ONNXConfig{
			ModelDir:    cfg.ONNXModelDir,
			LibraryPath: cfg.ONNXLibrary,
		})
		if err != nil {
			return nil, fmt.Errorf("load onnx embedder: %w", err)
		}
		return e, nil
	default:
		return embedder.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbedModel), nil
	}
}

func openStore(ctx context.Context, cfg config.Config, emb embedder.Embedder) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dims, err := embedder.Dimensions(ctx, emb)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DBPath, dims)
	if err != nil {
		return nil, fmt.Errorf("open index: %w\nDelete %s to rebuild it for the current embedding model", err, cfg.DBPath)
	}
	return st, nil
}

func newChunker(cfg config.Config) (chunker.Chunker, error) {
	reg, err := chunker.DefaultRegistry(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return reg.Lookup(cfg.Chunker)
}

// firstChars returns at most n characters of s.
func firstChars(s string, n int) string {
	return embedder.Truncate(s, n)
}
