// Package app builds the services shared by the api, worker and mapctl
// binaries from configuration.
package app

import (
	"context"
	"log/slog"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/samirrijal/geoscatter/internal/adapters/staticmaps"
	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/config"
	"github.com/samirrijal/geoscatter/internal/pkg/figure"
	"github.com/samirrijal/geoscatter/internal/pkg/telemetry"
)

// MapDefaults converts the render section into renderer defaults.
func MapDefaults(r config.RenderConfig) usecases.MapDefaults {
	center := domain.GeoPoint{Lat: r.CenterLat, Lon: r.CenterLon}
	view := func(v config.ViewConfig) domain.View {
		out := domain.View{
			Width:          v.Width,
			Height:         v.Height,
			Zoom:           r.Zoom,
			LatColumn:      v.LatColumn,
			LonColumn:      v.LonColumn,
			MarkerDiameter: r.MarkerDiameter,
		}
		if v.FixedCenter {
			c := center
			out.Center = &c
		}
		return out
	}
	return usecases.MapDefaults{
		Categories: view(r.Categories),
		Scale:      view(r.Scale),
		Center:     center,
		ColorMap:   r.ColorMap,
		Figure:     figureSize(r),
	}
}

// TileOptions converts the tiles section into renderer options.
func TileOptions(t config.TilesConfig) staticmaps.Options {
	return staticmaps.Options{
		Provider:     t.Provider,
		URLPattern:   t.URLPattern,
		Attribution:  t.Attribution,
		APIKey:       t.APIKey,
		CacheDir:     t.CacheDir,
		DisableCache: t.DisableCache,
		Offline:      t.Offline,
		UserAgent:    t.UserAgent,
	}
}

// ProviderName is the tile source the renderer resolves for t.
func ProviderName(t config.TilesConfig) string {
	if t.URLPattern != "" {
		return "custom"
	}
	return t.Provider
}

// NewMapService wires the tile renderer into a MapService.
func NewMapService(cfg *config.Config) (*usecases.MapService, error) {
	renderer, err := staticmaps.New(TileOptions(cfg.Tiles))
	if err != nil {
		return nil, err
	}
	slog.Info("tile renderer ready", "provider", renderer.Provider(), "offline", cfg.Tiles.Offline)
	return usecases.NewMapService(renderer, MapDefaults(cfg.Render)), nil
}

// InitTelemetry starts tracing when enabled. The returned function flushes
// pending spans and is always safe to call.
func InitTelemetry(ctx context.Context, cfg config.TelemetryConfig) func() {
	if !cfg.Enabled {
		return func() {}
	}
	shutdown, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.TempoAddr)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
		return func() {}
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}
}

func figureSize(r config.RenderConfig) figure.Size {
	return figure.Size{
		Width:  vg.Length(r.FigureWidth) * vg.Inch,
		Height: vg.Length(r.FigureHeight) * vg.Inch,
		DPI:    r.DPI,
	}
}
