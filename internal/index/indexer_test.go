package index

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tubeqa/internal/chunker"
	"tubeqa/internal/llm"
	"tubeqa/internal/rag"
	"tubeqa/internal/store"
	"tubeqa/internal/transcript"
)

type stubFetcher struct {
	snippets map[string][]transcript.Snippet
}

func (f *stubFetcher) ListTracks(_ context.Context, videoID string) ([]transcript.Track, error) {
	if _, ok := f.snippets[videoID]; !ok {
		return nil, &transcript.UnavailableError{VideoID: videoID, Reason: "captions are disabled"}
	}
	return []transcript.Track{{LanguageCode: "en", BaseURL: videoID}}, nil
}

func (f *stubFetcher) FetchTrack(_ context.Context, track transcript.Track) ([]transcript.Snippet, error) {
	return f.snippets[track.BaseURL], nil
}

// bagEmbedder hashes words into a small vector so texts sharing words land
// close together.
type bagEmbedder struct{ model string }

func (b bagEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, 8)
		for _, w := range strings.Fields(strings.ToLower(t)) {
			h := 0
			for _, r := range w {
				h = h*31 + int(r)
			}
			v[(h%8+8)%8]++
		}
		out[i] = v
	}
	return out, nil
}

func (b bagEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	v, err := b.Embed(ctx, []string{text})
	return v[0], err
}

func (b bagEmbedder) Model() string { return b.model }

type memStore struct {
	docs    map[string][]store.Document
	vecs    map[string][][]float32
	meta    map[string]string
	cleared int
}

func newMemStore() *memStore {
	return &memStore{
		docs: map[string][]store.Document{},
		vecs: map[string][][]float32{},
		meta: map[string]string{},
	}
}

func (m *memStore) Upsert(_ context.Context, videoID string, docs []store.Document, embs [][]float32) (int, error) {
	if len(docs) != len(embs) {
		return 0, errors.New("mismatch")
	}
	m.docs[videoID] = docs
	m.vecs[videoID] = embs
	return len(docs), nil
}

func (m *memStore) Search(_ context.Context, q []float32, k int, videoID string) ([]store.SearchResult, error) {
	var results []store.SearchResult
	for vid, docs := range m.docs {
		if videoID != "" && vid != videoID {
			continue
		}
		for i, d := range docs {
			results = append(results, store.SearchResult{Document: d, Distance: cosineDistance(q, m.vecs[vid][i])})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *memStore) DeleteVideo(_ context.Context, videoID string) error {
	delete(m.docs, videoID)
	delete(m.vecs, videoID)
	return nil
}

func (m *memStore) Count(_ context.Context, videoID string) (int, error) {
	if videoID != "" {
		return len(m.docs[videoID]), nil
	}
	n := 0
	for _, d := range m.docs {
		n += len(d)
	}
	return n, nil
}

func (m *memStore) ListVideos(_ context.Context) ([]store.VideoSummary, error) {
	var out []store.VideoSummary
	for vid, d := range m.docs {
		out = append(out, store.VideoSummary{VideoID: vid, Chunks: len(d)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VideoID < out[j].VideoID })
	return out, nil
}

func (m *memStore) GetMeta(key string) (string, error) { return m.meta[key], nil }

func (m *memStore) SetMeta(key, value string) error {
	m.meta[key] = value
	return nil
}

func (m *memStore) DeleteAll() error {
	m.docs = map[string][]store.Document{}
	m.vecs = map[string][][]float32{}
	m.cleared++
	return nil
}

func (m *memStore) Close() error { return nil }

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(_ context.Context, _ []llm.Message) (string, error) {
	g.calls++
	return g.reply, g.err
}

func newTestIndexer(t *testing.T, f *stubFetcher, st *memStore, gen rag.Generator, cfg Config) *Indexer {
	t.Helper()
	ch, err := chunker.NewWindowChunker(chunker.DefaultWindowSize, chunker.DefaultWindowOverlap)
	require.NoError(t, err)
	return New(cfg, Components{
		Loader:    transcript.NewLoader(f, transcript.NewCache(t.TempDir(), 0)),
		Chunker:   ch,
		Embedder:  bagEmbedder{model: "bag"},
		Store:     st,
		Generator: gen,
	})
}

func TestIndexAndAskShortTranscript(t *testing.T) {
	f := &stubFetcher{snippets: map[string][]transcript.Snippet{
		"vid": {{Text: "Hi [music] there"}, {Text: "(laughs) 00:05 ok"}, {Text: "bye"}},
	}}
	st := newMemStore()
	gen := &stubGenerator{reply: "They say hello."}
	idx := newTestIndexer(t, f, st, gen, Config{Languages: []string{"en"}})
	ctx := context.Background()

	var phases []string
	stats, err := idx.Index(ctx, "vid", func(phase string, done, total int) {
		if done == 0 {
			phases = append(phases, phase)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Stored)
	assert.Equal(t, 3, stats.Snippets)
	assert.Equal(t, []string{PhaseLoad, PhaseChunk, PhaseEmbed, PhaseStore}, phases)

	require.Len(t, st.docs["vid"], 1)
	assert.Equal(t, "Hi there ok bye", st.docs["vid"][0].Text)
	assert.Equal(t, 0, st.docs["vid"][0].ChunkID)
	assert.Equal(t, "bag", st.meta[store.MetaEmbeddingModel])

	ans, err := idx.Ask(ctx, "vid", "What do they say?", 3)
	require.NoError(t, err)
	assert.Equal(t, "They say hello.", ans.Text)
	require.Len(t, ans.Chunks, 1)
	assert.Equal(t, 1, gen.calls)
}

func TestReindexReplacesChunks(t *testing.T) {
	long := strings.Repeat("alpha beta gamma delta ", 300)
	f := &stubFetcher{snippets: map[string][]transcript.Snippet{
		"vid":   {{Text: long}},
		"other": {{Text: "unrelated words here"}},
	}}
	st := newMemStore()
	idx := newTestIndexer(t, f, st, nil, Config{})
	ctx := context.Background()

	_, err := idx.Index(ctx, "other", nil)
	require.NoError(t, err)
	first, err := idx.Index(ctx, "vid", nil)
	require.NoError(t, err)
	second, err := idx.Index(ctx, "vid", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Chunks, second.Chunks)
	n, err := st.Count(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, second.Chunks, n)
	assert.Len(t, st.docs["other"], 1)

	for i, d := range st.docs["vid"] {
		assert.Equal(t, i, d.ChunkID)
	}
}

func TestIndexUnavailableTranscript(t *testing.T) {
	st := newMemStore()
	idx := newTestIndexer(t, &stubFetcher{}, st, nil, Config{})

	_, err := idx.Index(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, transcript.ErrTranscriptUnavailable)
	assert.Empty(t, st.docs)
}

func TestIndexModelChangeDropsEverything(t *testing.T) {
	f := &stubFetcher{snippets: map[string][]transcript.Snippet{
		"a": {{Text: "first video"}},
		"b": {{Text: "second video"}},
	}}
	st := newMemStore()
	idx := newTestIndexer(t, f, st, nil, Config{})
	ctx := context.Background()

	_, err := idx.Index(ctx, "a", nil)
	require.NoError(t, err)

	st.meta[store.MetaEmbeddingModel] = "older-model"
	stats, err := idx.Index(ctx, "b", nil)
	require.NoError(t, err)
	assert.True(t, stats.ModelReset)
	assert.Equal(t, 1, st.cleared)

	_, hasA := st.docs["a"]
	assert.False(t, hasA)
	assert.Len(t, st.docs["b"], 1)
}

func TestAskNoContext(t *testing.T) {
	st := newMemStore()
	gen := &stubGenerator{reply: "should not be used"}
	idx := newTestIndexer(t, &stubFetcher{}, st, gen, Config{})

	ans, err := idx.Ask(context.Background(), "nothing", "anything?", 3)
	require.NoError(t, err)
	assert.Equal(t, rag.NoContextAnswer, ans.Text)
	assert.Zero(t, gen.calls)
}

func TestAskGenerationFailureIsSoft(t *testing.T) {
	f := &stubFetcher{snippets: map[string][]transcript.Snippet{"vid": {{Text: "some words"}}}}
	gen := &stubGenerator{err: errors.New("out of memory")}
	idx := newTestIndexer(t, f, newMemStore(), gen, Config{})
	ctx := context.Background()

	_, err := idx.Index(ctx, "vid", nil)
	require.NoError(t, err)

	ans, err := idx.Ask(ctx, "vid", "q", 3)
	require.NoError(t, err)
	assert.Equal(t, rag.FailedAnswer, ans.Text)
}

func TestAskFiltersByVideo(t *testing.T) {
	f := &stubFetcher{snippets: map[string][]transcript.Snippet{
		"cats": {{Text: "cats purr and sleep all day"}},
		"cars": {{Text: "cars need fuel and tyres"}},
	}}
	st := newMemStore()
	idx := newTestIndexer(t, f, st, &stubGenerator{reply: "ok"}, Config{})
	ctx := context.Background()

	for _, v := range []string{"cats", "cars"} {
		_, err := idx.Index(ctx, v, nil)
		require.NoError(t, err)
	}

	ans, err := idx.Ask(ctx, "cars", "do cats purr", 3)
	require.NoError(t, err)
	require.Len(t, ans.Chunks, 1)
	assert.Equal(t, "cars", ans.Chunks[0].Document.VideoID)
}

func TestSummarizeAfterIndex(t *testing.T) {
	f := &stubFetcher{snippets: map[string][]transcript.Snippet{"vid": {{Text: "a talk about gardening"}}}}
	st := newMemStore()
	gen := &stubGenerator{reply: "  A gardening talk.  "}
	idx := newTestIndexer(t, f, st, gen, Config{Summarize: true})
	ctx := context.Background()

	_, err := idx.Index(ctx, "vid", nil)
	require.NoError(t, err)

	videos, err := idx.Videos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "vid", videos[0].VideoID)
	assert.Equal(t, "A gardening talk.", videos[0].Summary)

	require.NoError(t, idx.Forget(ctx, "vid"))
	ok, err := idx.Indexed(ctx, "vid")
	require.NoError(t, err)
	assert.False(t, ok)
}
