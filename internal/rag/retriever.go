// Package rag retrieves transcript chunks for a question and turns them into
// an answer.
package rag

import (
	"context"
	"fmt"

	"tubeqa/internal/embedder"
	"tubeqa/internal/store"
)

// DefaultK is the number of chunks retrieved per question.
const DefaultK = 3

// Retriever embeds queries and searches the vector store with them.
type Retriever struct {
	store store.Store
	emb   embedder.Embedder
}

// NewRetriever pairs a store with the embedder its vectors were built with.
func NewRetriever(st store.Store, emb embedder.Embedder) *Retriever {
	return &Retriever{store: st, emb: emb}
}

// Retrieve returns up to k chunks nearest to query, best first. An empty
// videoID searches every indexed video.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, videoID string) ([]store.SearchResult, error) {
	if k <= 0 {
		k = DefaultK
	}

	vec, err := r.emb.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.store.Search(ctx, vec, k, videoID)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// Texts returns the document text of each result in rank order.
func Texts(results []store.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.Text
	}
	return out
}
