package usecases_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func categoryJob() *domain.RenderJob {
	return &domain.RenderJob{
		Kind:       domain.JobCategories,
		Rows:       shops(),
		Categories: []string{"cafe", "bar"},
		Category:   domain.CategoryOptions{Title: "Shops"},
	}
}

func TestJobService_RenderCached(t *testing.T) {
	r := &mockRenderer{}
	cache := newMockCache()
	svc := usecases.NewJobService(usecases.NewMapService(r, testDefaults()), cache, nil, 60)

	first, err := svc.Render(context.Background(), categoryJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(first, pngMagic) {
		t.Fatal("expected PNG output")
	}

	// Same parameters under a different ID share the cache entry.
	job := categoryJob()
	job.ID = "other"
	second, err := svc.Render(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.calls != 1 {
		t.Errorf("expected 1 render, got %d", r.calls)
	}
	if !bytes.Equal(first, second) {
		t.Error("expected cached bytes on second render")
	}
}

func TestJobService_RenderCacheOutage(t *testing.T) {
	r := &mockRenderer{}
	cache := &mockCache{
		getFn: func(ctx context.Context, key string) ([]byte, error) { return nil, errors.New("connection refused") },
		setFn: func(ctx context.Context, key string, value []byte, ttl int) error { return errors.New("connection refused") },
	}
	svc := usecases.NewJobService(usecases.NewMapService(r, testDefaults()), cache, nil, 60)

	data, err := svc.Render(context.Background(), categoryJob())
	if err != nil {
		t.Fatalf("cache outage must not fail the render: %v", err)
	}
	if len(data) == 0 || r.calls != 1 {
		t.Errorf("expected a fresh render, got %d bytes and %d calls", len(data), r.calls)
	}
}

func TestJobService_RenderInvalid(t *testing.T) {
	svc := usecases.NewJobService(usecases.NewMapService(&mockRenderer{}, testDefaults()), nil, nil, 60)

	_, err := svc.Render(context.Background(), &domain.RenderJob{Kind: "heatmap"})
	if !errors.Is(err, domain.ErrInvalidJob) {
		t.Errorf("expected ErrInvalidJob, got %v", err)
	}
	_, err = svc.Render(context.Background(), &domain.RenderJob{Kind: domain.JobScale})
	if !errors.Is(err, domain.ErrInvalidJob) {
		t.Errorf("expected ErrInvalidJob for scale job without column, got %v", err)
	}
}

func TestJobService_Submit(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewJobService(usecases.NewMapService(&mockRenderer{}, testDefaults()), newMockCache(), pub, 60)

	id, err := svc.Submit(context.Background(), categoryJob())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}
	if len(pub.jobs) != 1 || pub.jobs[0].ID != id {
		t.Fatalf("expected the job to be published with id %s", id)
	}

	pub.jobFn = func(ctx context.Context, job *domain.RenderJob) error { return errors.New("no responders") }
	if _, err := svc.Submit(context.Background(), categoryJob()); err == nil {
		t.Error("expected publish error")
	}

	noQueue := usecases.NewJobService(usecases.NewMapService(&mockRenderer{}, testDefaults()), nil, nil, 60)
	if _, err := noQueue.Submit(context.Background(), categoryJob()); err == nil {
		t.Error("expected error without a publisher")
	}
}

func TestJobService_ProcessAndResult(t *testing.T) {
	pub := &mockPublisher{}
	cache := newMockCache()
	svc := usecases.NewJobService(usecases.NewMapService(&mockRenderer{}, testDefaults()), cache, pub, 60)
	ctx := context.Background()

	job := categoryJob()
	job.ID = "job-1"

	if _, err := svc.Result(ctx, job.ID); !errors.Is(err, domain.ErrJobPending) {
		t.Fatalf("expected ErrJobPending before processing, got %v", err)
	}

	if err := svc.Process(ctx, job); err != nil {
		t.Fatalf("process: %v", err)
	}
	data, err := svc.Result(ctx, job.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Error("expected PNG result")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected 1 render event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.JobID != "job-1" || ev.Kind != domain.JobCategories || ev.Markers != 4 || ev.Bytes != len(data) || ev.Error != "" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestJobService_ProcessPermanentFailure(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewJobService(usecases.NewMapService(&mockRenderer{}, testDefaults()), newMockCache(), pub, 60)
	ctx := context.Background()

	job := &domain.RenderJob{
		ID:         "job-2",
		Kind:       domain.JobCategories,
		Categories: []string{"a", "b", "c", "d", "e", "f", "g"},
	}
	if err := svc.Process(ctx, job); err != nil {
		t.Fatalf("permanent failures are acknowledged, got %v", err)
	}
	_, err := svc.Result(ctx, job.ID)
	if !errors.Is(err, domain.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Error == "" {
		t.Error("expected a failure event")
	}
}

func TestJobService_ProcessTransientFailure(t *testing.T) {
	calls := 0
	r := &mockRenderer{}
	r.renderFn = func(ctx context.Context, req domain.MapRequest) (image.Image, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("tile fetch timeout")
		}
		return image.NewRGBA(image.Rect(0, 0, req.Width, req.Height)), nil
	}
	cache := newMockCache()
	svc := usecases.NewJobService(usecases.NewMapService(r, testDefaults()), cache, nil, 60)
	ctx := context.Background()

	job := categoryJob()
	job.ID = "job-3"
	if err := svc.Process(ctx, job); err == nil {
		t.Fatal("expected transient error to be returned for redelivery")
	}

	// Still pending while the job waits for redelivery.
	if _, err := svc.Result(ctx, job.ID); !errors.Is(err, domain.ErrJobPending) {
		t.Fatalf("expected ErrJobPending between attempts, got %v", err)
	}
	if _, ok := cache.data[usecases.JobErrorKey(job.ID)]; ok {
		t.Error("expected no failure record before the final attempt")
	}

	if err := svc.Process(ctx, job); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if _, err := svc.Result(ctx, job.ID); err != nil {
		t.Fatalf("expected result after redelivery, got %v", err)
	}
}

func TestJobService_ProcessFinalAttemptFailure(t *testing.T) {
	r := &mockRenderer{renderFn: func(ctx context.Context, req domain.MapRequest) (image.Image, error) {
		return nil, errors.New("tile fetch timeout")
	}}
	pub := &mockPublisher{}
	svc := usecases.NewJobService(usecases.NewMapService(r, testDefaults()), newMockCache(), pub, 60)
	ctx := context.Background()

	job := categoryJob()
	job.ID = "job-4"
	job.FinalAttempt = true
	if err := svc.Process(ctx, job); err != nil {
		t.Fatalf("the final attempt is acknowledged, got %v", err)
	}
	if _, err := svc.Result(ctx, job.ID); !errors.Is(err, domain.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].Error == "" {
		t.Error("expected a failure event")
	}
}

func TestJobService_ProcessClearErrorFails(t *testing.T) {
	cache := newMockCache()
	cache.delFn = func(ctx context.Context, key string) error {
		return errors.New("connection reset")
	}
	svc := usecases.NewJobService(usecases.NewMapService(&mockRenderer{}, testDefaults()), cache, nil, 60)
	ctx := context.Background()

	job := categoryJob()
	job.ID = "job-5"
	if err := svc.Process(ctx, job); err != nil {
		t.Fatalf("a failed cleanup must not fail the job, got %v", err)
	}
	if _, err := svc.Result(ctx, job.ID); err != nil {
		t.Fatalf("expected result, got %v", err)
	}
}

func TestPermanent(t *testing.T) {
	if !usecases.Permanent(colormap.ErrUnknownColorMap) {
		t.Error("unknown colormap is permanent")
	}
	if !usecases.Permanent(errors.Join(errors.New("row 3"), domain.ErrInvalidCoordinate)) {
		t.Error("wrapped invalid coordinate is permanent")
	}
	if usecases.Permanent(errors.New("dial tcp: timeout")) {
		t.Error("network errors are not permanent")
	}
}
