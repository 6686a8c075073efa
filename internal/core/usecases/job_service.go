package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/ports"
	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
	"github.com/samirrijal/geoscatter/internal/pkg/figure"
	"github.com/samirrijal/geoscatter/internal/pkg/metrics"
	"github.com/samirrijal/geoscatter/internal/pkg/telemetry"
)

// JobService renders figures to PNG, caches them and runs queued jobs.
type JobService struct {
	maps      *MapService
	cache     ports.CacheService
	publisher ports.JobPublisher
	ttl       int
}

// NewJobService creates a new JobService. cache and publisher may be nil
// when caching or queueing is not configured.
func NewJobService(maps *MapService, cache ports.CacheService, publisher ports.JobPublisher, ttlSeconds int) *JobService {
	return &JobService{maps: maps, cache: cache, publisher: publisher, ttl: ttlSeconds}
}

// JobKey is the cache key holding the PNG of a finished job.
func JobKey(id string) string { return "maps:job:" + id }

// JobErrorKey is the cache key holding the failure message of a job.
func JobErrorKey(id string) string { return JobKey(id) + ":error" }

// Render returns the PNG of job, serving identical requests from the cache.
// Cache failures are logged and the figure is rendered anyway.
func (s *JobService) Render(ctx context.Context, job *domain.RenderJob) ([]byte, error) {
	if err := validateJob(job); err != nil {
		return nil, err
	}

	key, err := job.CacheKey()
	if err != nil {
		return nil, fmt.Errorf("cache key: %w", err)
	}
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil && len(data) > 0:
			metrics.CacheHits.WithLabelValues("figure").Inc()
			return data, nil
		case err != nil && !errors.Is(err, domain.ErrCacheMiss):
			slog.WarnContext(ctx, "figure cache read failed", "key", key, "error", err)
		}
		metrics.CacheMisses.WithLabelValues("figure").Inc()
	}

	_, data, err := s.render(ctx, job)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			slog.WarnContext(ctx, "figure cache write failed", "key", key, "error", err)
		}
	}
	return data, nil
}

// Submit assigns the job an ID and queues it for the worker.
func (s *JobService) Submit(ctx context.Context, job *domain.RenderJob) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanJobSubmit)
	defer span.End()

	if s.publisher == nil {
		return "", fmt.Errorf("job queue: %w", domain.ErrNotConfigured)
	}
	if err := validateJob(job); err != nil {
		return "", err
	}
	job.ID = uuid.NewString()
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.String("job.kind", string(job.Kind)))

	if err := s.publisher.PublishJob(ctx, job); err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("publish job: %w", err)
	}
	slog.InfoContext(ctx, "render job queued", "job_id", job.ID, "kind", job.Kind, "rows", len(job.Rows))
	return job.ID, nil
}

// Process renders a queued job and stores its outcome. Failures caused by
// the job itself, and any failure on the final attempt, are recorded and
// acknowledged. Other failures are returned so the job is redelivered, and
// Result keeps reporting the job as pending meanwhile.
func (s *JobService) Process(ctx context.Context, job *domain.RenderJob) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanJobProcess)
	defer span.End()
	span.SetAttributes(attribute.String("job.id", job.ID), attribute.String("job.kind", string(job.Kind)))

	if s.cache == nil {
		return fmt.Errorf("result store: %w", domain.ErrNotConfigured)
	}
	if job.ID == "" {
		metrics.JobsProcessed.WithLabelValues(string(job.Kind), "rejected").Inc()
		slog.WarnContext(ctx, "dropping render job without id", "kind", job.Kind)
		return nil
	}

	start := time.Now()
	event := &domain.RenderEvent{JobID: job.ID, Kind: job.Kind}

	fig, data, err := s.render(ctx, job)
	event.Duration = time.Since(start)
	event.Time = time.Now()
	if err != nil {
		telemetry.RecordError(span, err)
		if !Permanent(err) && !job.FinalAttempt {
			metrics.JobsProcessed.WithLabelValues(string(job.Kind), "retry").Inc()
			return err
		}
		event.Error = err.Error()
		if serr := s.cache.Set(ctx, JobErrorKey(job.ID), []byte(err.Error()), s.ttl); serr != nil {
			slog.ErrorContext(ctx, "store job error failed", "job_id", job.ID, "error", serr)
		}
		s.announce(ctx, event)
		metrics.JobsProcessed.WithLabelValues(string(job.Kind), "failed").Inc()
		slog.WarnContext(ctx, "render job failed", "job_id", job.ID, "final_attempt", job.FinalAttempt, "error", err)
		return nil
	}

	if err := s.cache.Set(ctx, JobKey(job.ID), data, s.ttl); err != nil {
		return fmt.Errorf("store job result: %w", err)
	}
	// Clear a failure recorded by an earlier run of the same job.
	if err := s.cache.Delete(ctx, JobErrorKey(job.ID)); err != nil {
		slog.WarnContext(ctx, "clear job error failed", "job_id", job.ID, "error", err)
	}

	event.Markers = fig.Markers
	event.Bytes = len(data)
	s.announce(ctx, event)
	metrics.JobsProcessed.WithLabelValues(string(job.Kind), "ok").Inc()
	slog.InfoContext(ctx, "render job done",
		"job_id", job.ID, "kind", job.Kind, "markers", fig.Markers, "bytes", len(data), "duration", event.Duration)
	return nil
}

// Result returns the PNG of a finished job, ErrJobPending while it runs, or
// ErrJobFailed with the recorded reason.
func (s *JobService) Result(ctx context.Context, id string) ([]byte, error) {
	if s.cache == nil {
		return nil, fmt.Errorf("result store: %w", domain.ErrNotConfigured)
	}
	data, err := s.cache.Get(ctx, JobKey(id))
	if err == nil && len(data) > 0 {
		return data, nil
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		return nil, fmt.Errorf("read job result: %w", err)
	}

	msg, err := s.cache.Get(ctx, JobErrorKey(id))
	if err == nil && len(msg) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobFailed, msg)
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		return nil, fmt.Errorf("read job error: %w", err)
	}
	return nil, domain.ErrJobPending
}

func (s *JobService) render(ctx context.Context, job *domain.RenderJob) (*figure.Figure, []byte, error) {
	var (
		fig *figure.Figure
		err error
	)
	switch job.Kind {
	case domain.JobCategories:
		fig, err = s.maps.RenderCategories(ctx, job.Rows, job.Categories, job.Category)
	case domain.JobScale:
		fig, err = s.maps.RenderScale(ctx, job.Rows, job.Column, job.Scale)
	default:
		err = fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidJob, job.Kind)
	}
	if err != nil {
		return nil, nil, err
	}

	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanFigureEncode)
	defer span.End()
	data, err := fig.PNG()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, nil, fmt.Errorf("encode figure: %w", err)
	}
	return fig, data, nil
}

func (s *JobService) announce(ctx context.Context, event *domain.RenderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRendered(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish render event failed", "job_id", event.JobID, "error", err)
	}
}

func validateJob(job *domain.RenderJob) error {
	switch job.Kind {
	case domain.JobCategories:
	case domain.JobScale:
		if job.Column == "" {
			return fmt.Errorf("%w: scale job without column", domain.ErrInvalidJob)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidJob, job.Kind)
	}
	return nil
}

// Permanent reports whether err is caused by the request itself, so that
// retrying cannot succeed.
func Permanent(err error) bool {
	for _, target := range []error{
		domain.ErrTooManyCategories,
		domain.ErrColumnNotFound,
		domain.ErrColumnType,
		domain.ErrInvalidCoordinate,
		domain.ErrInvalidJob,
		colormap.ErrUnknownColorMap,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
