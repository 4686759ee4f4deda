package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveChunker_ShortText(t *testing.T) {
	chunks, err := NewRecursiveChunker().Chunk("  Hi there ok bye  ")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hi there ok bye", chunks[0].Text)
}

func TestRecursiveChunker_Empty(t *testing.T) {
	chunks, err := NewRecursiveChunker().Chunk(" \n ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRecursiveChunker_RespectsSize(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200)
	c := &RecursiveChunker{Sizing: FixedSizing(120, 20)}

	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkID)
		assert.NotEmpty(t, ch.Text)
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 120)
	}
}

func TestRecursiveChunker_PrefersParagraphs(t *testing.T) {
	para := strings.Repeat("word ", 15)
	text := para + "\n\n" + para + "\n\n" + para
	c := &RecursiveChunker{Sizing: FixedSizing(100, 0)}

	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.Equal(t, strings.TrimSpace(para), ch.Text)
	}
}

func TestRecursiveChunker_Overlap(t *testing.T) {
	text := "aaaa bbbb cccc dddd eeee ffff gggg hhhh"
	c := &RecursiveChunker{Sizing: FixedSizing(15, 5)}

	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1].Text)
		cur := strings.Fields(chunks[i].Text)
		assert.Equal(t, prev[len(prev)-1], cur[0], "chunk %d should start with the last word of chunk %d", i, i-1)
	}
}

func TestRecursiveChunker_UnbreakableRun(t *testing.T) {
	text := strings.Repeat("x", 25)
	c := &RecursiveChunker{Sizing: FixedSizing(10, 0)}

	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, text, chunks[0].Text+chunks[1].Text+chunks[2].Text)
}

func TestDefaultSizing(t *testing.T) {
	size, overlap := DefaultSizing(LongTranscriptChars + 1)
	assert.Equal(t, 1000, size)
	assert.Equal(t, 150, overlap)

	size, overlap = DefaultSizing(1000)
	assert.Equal(t, 500, size)
	assert.Equal(t, 75, overlap)
}

func TestRecursiveChunker_InvalidSizing(t *testing.T) {
	_, err := (&RecursiveChunker{Sizing: FixedSizing(10, 10)}).Chunk("some text")
	assert.Error(t, err)
}
