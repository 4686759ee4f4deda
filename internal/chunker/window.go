package chunker

import (
	"fmt"
	"strings"
)

// Default word window parameters.
const (
	DefaultWindowSize    = 500
	DefaultWindowOverlap = 50
)

// WindowChunker cuts text into windows of Size whitespace-separated words.
// Each window starts Size-Overlap words after the previous one, so
// neighbouring chunks share exactly Overlap words. The last window may be
// shorter.
type WindowChunker struct {
	Size    int
	Overlap int
}

// NewWindowChunker validates the window parameters.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("window overlap must be in [0, %d), got %d", size, overlap)
	}
	return &WindowChunker{Size: size, Overlap: overlap}, nil
}

func (w *WindowChunker) Chunk(text string) ([]Chunk, error) {
	if w.Size <= 0 || w.Overlap < 0 || w.Overlap >= w.Size {
		return nil, fmt.Errorf("invalid window %d/%d", w.Size, w.Overlap)
	}
	words := strings.Fields(text)
	var pieces []string
	for start := 0; start < len(words); start += w.Size - w.Overlap {
		end := start + w.Size
		if end > len(words) {
			end = len(words)
		}
		pieces = append(pieces, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}
	}
	return number(pieces), nil
}
