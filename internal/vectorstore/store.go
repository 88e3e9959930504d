package vectorstore

import "context"

// Document is the unit of storage in the vector database: the text subject
// to embedding plus an arbitrary metadata map. Retrieved documents also
// carry the store-assigned ID and relevance score.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
	Score    float64
}

// VectorStore is the narrow boundary to the external vector database.
// Embedding computation, index structure and distance metrics are owned by
// the implementation behind it. Implementations must be safe for concurrent
// add/search calls.
type VectorStore interface {
	// Add stores the documents. Existing documents with the same ID are
	// overwritten.
	Add(ctx context.Context, documents []Document) error

	// SimilaritySearch returns up to topK documents whose text is most
	// similar to the query, most similar first, keeping only results with
	// score >= threshold.
	SimilaritySearch(ctx context.Context, query string, topK int, threshold float64) ([]Document, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
