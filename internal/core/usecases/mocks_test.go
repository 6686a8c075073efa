package usecases_test

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"gonum.org/v1/plot/vg"

	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/figure"
)

// --- Mock MapRenderer ---

type mockRenderer struct {
	renderFn func(ctx context.Context, req domain.MapRequest) (image.Image, error)
	calls    int
	last     domain.MapRequest
}

func (m *mockRenderer) RenderMap(ctx context.Context, req domain.MapRequest) (image.Image, error) {
	m.calls++
	m.last = req
	if m.renderFn != nil {
		return m.renderFn(ctx, req)
	}
	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl int) error
	delFn func(ctx context.Context, key string) error
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock JobPublisher ---

type mockPublisher struct {
	jobs   []*domain.RenderJob
	events []*domain.RenderEvent
	jobFn  func(ctx context.Context, job *domain.RenderJob) error
}

func (m *mockPublisher) PublishJob(ctx context.Context, job *domain.RenderJob) error {
	if m.jobFn != nil {
		return m.jobFn(ctx, job)
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockPublisher) PublishRendered(ctx context.Context, event *domain.RenderEvent) error {
	m.events = append(m.events, event)
	return nil
}

var prague = domain.GeoPoint{Lat: 50.0859818, Lon: 14.4399466}

func testDefaults() usecases.MapDefaults {
	center := prague
	return usecases.MapDefaults{
		Categories: domain.View{
			Width: 160, Height: 100, Zoom: 12, Center: &center,
			LatColumn: "lat", LonColumn: "lng", MarkerDiameter: 10,
		},
		Scale: domain.View{
			Width: 160, Height: 106, Zoom: 12,
			LatColumn: "locality_gps_lat", LonColumn: "locality_gps_lon", MarkerDiameter: 10,
		},
		Center:   prague,
		ColorMap: "inferno",
		Figure:   figure.Size{Width: 3 * vg.Inch, Height: 2 * vg.Inch, DPI: 40},
	}
}
