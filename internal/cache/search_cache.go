package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/config"
	"github.com/spec-kit/ticket-knowledge-service/internal/domain"
)

const keyPrefix = "search:"

// SearchCache keeps similarity-search results in Redis, keyed by the query
// parameters. Entries expire after the configured TTL and are purged when
// new tickets are ingested so stale rankings do not outlive fresh data.
// A nil SearchCache is a no-op.
type SearchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSearchCache connects to Redis using the provided configuration. A zero
// TTL disables caching entirely and returns nil.
func NewSearchCache(cfg config.RedisConfig, ttl time.Duration, logger *zap.Logger) *SearchCache {
	if ttl <= 0 {
		logger.Info("search result cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &SearchCache{client: client, ttl: ttl, logger: logger}
}

// cachedTicket mirrors domain.Ticket for cache serialization.
type cachedTicket struct {
	TicketKey   string    `json:"ticketKey"`
	ChunkID     string    `json:"chunkId"`
	SourceField string    `json:"sourceField"`
	Created     time.Time `json:"created"`
	Project     string    `json:"project"`
	Status      string    `json:"status"`
	LlmCause    string    `json:"llmCause"`
	LlmSolution string    `json:"llmSolution"`
	Score       float64   `json:"score"`
}

// Get returns cached results for the query parameters, if present.
func (c *SearchCache) Get(ctx context.Context, query string, topK int, threshold float64) ([]domain.ScoredTicket, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, cacheKey(query, topK, threshold)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("search cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var entries []cachedTicket
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warn("search cache entry corrupt, dropping", zap.Error(err))
		return nil, false
	}

	results := make([]domain.ScoredTicket, 0, len(entries))
	for _, entry := range entries {
		results = append(results, domain.ScoredTicket{
			Ticket: domain.Ticket{
				TicketKey:   entry.TicketKey,
				ChunkID:     entry.ChunkID,
				SourceField: entry.SourceField,
				Created:     entry.Created,
				Project:     entry.Project,
				Status:      entry.Status,
				LlmCause:    entry.LlmCause,
				LlmSolution: entry.LlmSolution,
			},
			Score: entry.Score,
		})
	}
	return results, true
}

// Set stores results for the query parameters with the configured TTL.
func (c *SearchCache) Set(ctx context.Context, query string, topK int, threshold float64, results []domain.ScoredTicket) {
	if c == nil {
		return
	}

	entries := make([]cachedTicket, 0, len(results))
	for _, result := range results {
		entries = append(entries, cachedTicket{
			TicketKey:   result.Ticket.TicketKey,
			ChunkID:     result.Ticket.ChunkID,
			SourceField: result.Ticket.SourceField,
			Created:     result.Ticket.Created,
			Project:     result.Ticket.Project,
			Status:      result.Ticket.Status,
			LlmCause:    result.Ticket.LlmCause,
			LlmSolution: result.Ticket.LlmSolution,
			Score:       result.Score,
		})
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("search cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(query, topK, threshold), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("search cache set failed", zap.Error(err))
	}
}

// Purge removes every cached search result.
func (c *SearchCache) Purge(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}

	purged := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, iter.Err()
}

// Ping verifies Redis connectivity.
func (c *SearchCache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("search cache not configured")
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *SearchCache) Close() {
	if c != nil && c.client != nil {
		_ = c.client.Close()
	}
}

func cacheKey(query string, topK int, threshold float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%g", query, topK, threshold)))
	return keyPrefix + hex.EncodeToString(sum[:])
}
