package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "index.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func docs(texts ...string) []Document {
	out := make([]Document, len(texts))
	for i, t := range texts {
		out[i] = Document{ChunkID: i, Text: t}
	}
	return out
}

func TestUpsert_ReplacesPreviousChunks(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Upsert(ctx, "vid1", docs("a", "b", "c"), [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)

	n, err := s.Upsert(ctx, "vid1", docs("x", "y"), [][]float32{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx, "vid1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 10, "vid1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	var texts []string
	for _, r := range results {
		texts = append(texts, r.Document.Text)
	}
	assert.ElementsMatch(t, []string{"x", "y"}, texts)
}

func TestUpsert_LeavesOtherVideosAlone(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Upsert(ctx, "vid1", docs("a"), [][]float32{{1, 0, 0}})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "vid2", docs("b", "c"), [][]float32{{0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "vid1", docs("d"), [][]float32{{1, 0, 0}})
	require.NoError(t, err)

	total, err := s.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	videos, err := s.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 2)
}

func TestUpsert_RejectsMismatchedInput(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Upsert(context.Background(), "vid1", docs("a", "b"), [][]float32{{1, 0, 0}})
	assert.Error(t, err)

	_, err = s.Upsert(context.Background(), "vid1", docs("a"), [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestSearch_RanksByDistanceAndFilters(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Upsert(ctx, "vid1", docs("east", "north", "up", "northeast"), [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{1, 1, 0},
	})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "vid2", docs("other east"), [][]float32{{1, 0, 0}})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0.1, 0}, 3, "vid1")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "east", results[0].Document.Text)
	assert.Equal(t, "northeast", results[1].Document.Text)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
	for _, r := range results {
		assert.Equal(t, "vid1", r.Document.VideoID)
		assert.NotEmpty(t, r.Document.ID)
	}

	all, err := s.Search(ctx, []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.ElementsMatch(t, []string{"east", "other east"}, []string{all[0].Document.Text, all[1].Document.Text})
}

func TestDeleteVideo(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Upsert(ctx, "vid1", docs("a", "b"), [][]float32{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	require.NoError(t, s.DeleteVideo(ctx, "vid1"))

	n, err := s.Count(ctx, "vid1")
	require.NoError(t, err)
	assert.Zero(t, n)

	results, err := s.Search(ctx, []float32{1, 0, 0}, 3, "vid1")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestOpen_DimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(path, 3)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestOpen_RecordedDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	_, err := Open(path, 0)
	require.Error(t, err, "a fresh database has no recorded dimension")

	s, err := Open(path, 3)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, 0)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 3, s.Dimensions())
}

func TestMeta(t *testing.T) {
	s := openTestStore(t)

	v, err := s.GetMeta(MetaEmbeddingModel)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMeta(MetaEmbeddingModel, "all-minilm"))
	require.NoError(t, s.SetMeta(MetaEmbeddingModel, "nomic-embed-text"))
	v, err = s.GetMeta(MetaEmbeddingModel)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", v)
}
