package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-knowledge-service/internal/cache"
	"github.com/spec-kit/ticket-knowledge-service/internal/events"
)

// StartCacheWorker subscribes the search cache to ingest events so cached
// rankings are purged whenever new tickets enter the knowledge base.
func StartCacheWorker(dispatcher events.Dispatcher, searchCache *cache.SearchCache, logger *zap.Logger) {
	if dispatcher == nil || searchCache == nil {
		return
	}

	dispatcher.Subscribe(events.EventTicketsIngested, func(ctx context.Context, event events.Event) error {
		purged, err := searchCache.Purge(ctx)
		if err != nil {
			logger.Warn("search cache purge failed", zap.String("event_id", event.ID), zap.Error(err))
			return err
		}
		logger.Info("purged cached search results after ingest",
			zap.String("event_id", event.ID), zap.Int("purged", purged))
		return nil
	})
}
