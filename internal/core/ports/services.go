package ports

import (
	"context"
	"image"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

// MapRenderer fetches map tiles and draws markers on them.
type MapRenderer interface {
	RenderMap(ctx context.Context, req domain.MapRequest) (image.Image, error)
}

// TableRepository loads tabular rows from a query source.
type TableRepository interface {
	Query(ctx context.Context, sql string, args ...any) (domain.Records, error)
}

// JobPublisher queues render jobs and announces finished ones.
type JobPublisher interface {
	PublishJob(ctx context.Context, job *domain.RenderJob) error
	PublishRendered(ctx context.Context, event *domain.RenderEvent) error
}

// JobSubscriber delivers queued render jobs to a handler.
type JobSubscriber interface {
	SubscribeJobs(ctx context.Context, handler func(ctx context.Context, job *domain.RenderJob) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
