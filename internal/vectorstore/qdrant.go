package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/config"
)

// Qdrant talks to a Qdrant collection over its REST API, using server-side
// inference so that callers submit raw text and the store owns embedding.
type Qdrant struct {
	baseURL    string
	apiKey     string
	collection string
	model      string
	client     *http.Client
	logger     *zap.Logger
}

// NewQdrant builds a store client from configuration.
func NewQdrant(cfg config.QdrantConfig, logger *zap.Logger) *Qdrant {
	return &Qdrant{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		model:      cfg.EmbeddingModel,
		client:     &http.Client{Timeout: cfg.Timeout()},
		logger:     logger,
	}
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  inferenceText  `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type inferenceText struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type upsertRequest struct {
	Points []qdrantPoint `json:"points"`
}

type queryRequest struct {
	Query          inferenceText `json:"query"`
	Limit          int           `json:"limit"`
	ScoreThreshold float64       `json:"score_threshold"`
	WithPayload    bool          `json:"with_payload"`
}

type queryResponse struct {
	Result struct {
		Points []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	} `json:"result"`
}

// Add upserts the documents into the collection.
func (q *Qdrant) Add(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}

	points := make([]qdrantPoint, 0, len(documents))
	for _, doc := range documents {
		points = append(points, qdrantPoint{
			ID:      doc.ID,
			Vector:  inferenceText{Text: doc.Text, Model: q.model},
			Payload: doc.Metadata,
		})
	}

	endpoint := fmt.Sprintf("%s/collections/%s/points?wait=true", q.baseURL, q.collection)
	if err := q.do(ctx, http.MethodPut, endpoint, upsertRequest{Points: points}, nil); err != nil {
		return err
	}

	q.logger.Debug("upserted points", zap.Int("count", len(points)), zap.String("collection", q.collection))
	return nil
}

// SimilaritySearch queries the collection and returns scored documents in
// store relevance order.
func (q *Qdrant) SimilaritySearch(ctx context.Context, query string, topK int, threshold float64) ([]Document, error) {
	req := queryRequest{
		Query:          inferenceText{Text: query, Model: q.model},
		Limit:          topK,
		ScoreThreshold: threshold,
		WithPayload:    true,
	}

	endpoint := fmt.Sprintf("%s/collections/%s/points/query", q.baseURL, q.collection)
	var resp queryResponse
	if err := q.do(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(resp.Result.Points))
	for _, point := range resp.Result.Points {
		documents = append(documents, Document{
			ID:       fmt.Sprint(point.ID),
			Metadata: point.Payload,
			Score:    point.Score,
		})
	}
	return documents, nil
}

// Ping checks that the collection exists and the store is reachable.
func (q *Qdrant) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/collections/%s", q.baseURL, q.collection)
	return q.do(ctx, http.MethodGet, endpoint, nil, nil)
}

func (q *Qdrant) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("qdrant response decode: %w", err)
		}
	}
	return nil
}
