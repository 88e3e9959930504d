package vectorstore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process VectorStore for development and tests. It scores
// documents by token overlap between query and text, which preserves the
// interface contract (ranked, thresholded, capped results) without a real
// embedding model.
type Memory struct {
	mu        sync.RWMutex
	documents map[string]Document
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{documents: make(map[string]Document)}
}

// Add stores the documents, overwriting entries with the same ID.
func (m *Memory) Add(ctx context.Context, documents []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range documents {
		m.documents[doc.ID] = doc
	}
	return nil
}

// SimilaritySearch ranks stored documents by token overlap with the query.
func (m *Memory) SimilaritySearch(ctx context.Context, query string, topK int, threshold float64) ([]Document, error) {
	queryTokens := tokenize(query)

	m.mu.RLock()
	scored := make([]Document, 0, len(m.documents))
	for _, doc := range m.documents {
		score := overlapScore(queryTokens, tokenize(doc.Text))
		if score >= threshold {
			doc.Score = score
			scored = append(scored, doc)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Ping always succeeds.
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(token, ".,;:!?\"'()")] = struct{}{}
	}
	delete(tokens, "")
	return tokens
}

func overlapScore(query, text map[string]struct{}) float64 {
	if len(query) == 0 || len(text) == 0 {
		return 0
	}
	shared := 0
	for token := range query {
		if _, ok := text[token]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(query))
}
