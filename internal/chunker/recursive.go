package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in priority order: paragraph break, line
// break, sentence end, word boundary, and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

// LongTranscriptChars is the length above which DefaultSizing switches to
// larger chunks.
const LongTranscriptChars = 20000

// DefaultSizing returns 1000/150 character chunks for long transcripts and
// 500/75 for shorter ones.
func DefaultSizing(textLen int) (size, overlap int) {
	if textLen > LongTranscriptChars {
		return 1000, 150
	}
	return 500, 75
}

// RecursiveChunker splits on the highest-priority separator present in the
// text and recurses into pieces that are still too long, then merges small
// pieces back up to the chunk size with a character overlap. Separators are
// kept at the start of the piece that follows them. Lengths are counted in
// characters.
type RecursiveChunker struct {
	Separators []string
	Sizing     func(textLen int) (size, overlap int)
}

// NewRecursiveChunker returns a chunker with DefaultSeparators and
// DefaultSizing.
func NewRecursiveChunker() *RecursiveChunker {
	return &RecursiveChunker{Separators: DefaultSeparators, Sizing: DefaultSizing}
}

// FixedSizing returns a sizing function that ignores the text length.
func FixedSizing(size, overlap int) func(int) (int, int) {
	return func(int) (int, int) { return size, overlap }
}

func (r *RecursiveChunker) Chunk(text string) ([]Chunk, error) {
	if isBlank(text) {
		return nil, nil
	}
	sizing := r.Sizing
	if sizing == nil {
		sizing = DefaultSizing
	}
	seps := r.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}

	size, overlap := sizing(utf8.RuneCountInString(text))
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}

	s := splitter{size: size, overlap: overlap}
	return number(s.split(text, seps)), nil
}

type splitter struct {
	size    int
	overlap int
}

func (s splitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, c := range seps {
		if c == "" {
			sep = c
			break
		}
		if strings.Contains(text, c) {
			sep = c
			rest = seps[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitKeepingSeparator(text, sep) {
		if utf8.RuneCountInString(piece) < s.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge joins consecutive pieces into chunks of at most size characters,
// carrying up to overlap characters of trailing pieces into the next chunk.
func (s splitter) merge(pieces []string) []string {
	var docs, current []string
	total := 0
	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
			docs = append(docs, doc)
		}
	}
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > s.size && len(current) > 0 {
			flush()
			for len(current) > 0 && (total > s.overlap || total+n > s.size) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	flush()
	return docs
}

func splitKeepingSeparator(text, sep string) []string {
	var parts []string
	if sep == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for i, p := range strings.Split(text, sep) {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
