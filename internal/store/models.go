package store

// Document is one stored transcript chunk.
type Document struct {
	ID      string
	VideoID string
	ChunkID int
	Text    string
}

// SearchResult is a document with its distance to the query vector.
// Lower distance means more similar.
type SearchResult struct {
	Document Document
	Distance float64
}

// VideoSummary describes one indexed video.
type VideoSummary struct {
	VideoID   string
	Chunks    int
	IndexedAt string
}
