package usecases

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/ports"
	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
	"github.com/samirrijal/geoscatter/internal/pkg/figure"
	"github.com/samirrijal/geoscatter/internal/pkg/metrics"
	"github.com/samirrijal/geoscatter/internal/pkg/telemetry"
)

// CategoryColors is the fixed category palette, in assignment order.
var CategoryColors = []color.RGBA{
	{R: 255, G: 255, B: 0, A: 255}, // yellow
	{R: 0, G: 0, B: 255, A: 255},   // blue
	{R: 165, G: 42, B: 42, A: 255}, // brown
	{R: 0, G: 128, B: 0, A: 255},   // green
	{R: 255, G: 0, B: 0, A: 255},   // red
	{R: 0, G: 0, B: 0, A: 255},     // black
}

// MapDefaults holds the configured view of each renderer.
type MapDefaults struct {
	Categories domain.View
	Scale      domain.View
	// Center is used when a view has no center and there is nothing to fit.
	Center   domain.GeoPoint
	ColorMap string
	Figure   figure.Size
}

// MapService renders category and scale maps into figures.
type MapService struct {
	renderer ports.MapRenderer
	defaults MapDefaults
}

// NewMapService creates a new MapService.
func NewMapService(renderer ports.MapRenderer, defaults MapDefaults) *MapService {
	return &MapService{renderer: renderer, defaults: defaults}
}

// RenderCategories draws one marker per row and category whose boolean
// column is true, colored by the category's position in the list.
func (s *MapService) RenderCategories(ctx context.Context, table domain.Table, categories []string, opts domain.CategoryOptions) (fig *figure.Figure, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRenderCategories)
	defer span.End()
	start := time.Now()
	defer func() {
		telemetry.RecordError(span, err)
		metrics.ObserveRender(string(domain.JobCategories), start, markerCount(fig), err)
	}()

	if len(categories) > len(CategoryColors) {
		return nil, fmt.Errorf("%w: %d categories, only %d colors", domain.ErrTooManyCategories, len(categories), len(CategoryColors))
	}

	view := opts.View.Merge(s.defaults.Categories)
	var markers []domain.Marker
	legend := make([]figure.LegendEntry, 0, len(categories))
	for i, category := range categories {
		c := CategoryColors[i]
		for row := 0; row < table.Len(); row++ {
			in, err := table.Bool(category, row)
			if err != nil {
				return nil, err
			}
			if !in {
				continue
			}
			p, err := position(table, view, row)
			if err != nil {
				return nil, err
			}
			markers = append(markers, domain.Marker{Position: p, Color: c, Diameter: view.MarkerDiameter})
		}
		legend = append(legend, figure.LegendEntry{Label: capitalize(category), Color: c})
	}

	span.SetAttributes(attribute.Int("maps.categories", len(categories)), attribute.Int("maps.markers", len(markers)))
	img, err := s.render(ctx, view, markers)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "rendered category map", "categories", len(categories), "markers", len(markers))

	return &figure.Figure{
		Title:   opts.Title,
		Map:     img,
		Legend:  legend,
		Size:    s.defaults.Figure,
		Markers: len(markers),
	}, nil
}

// MissingColor marks scale rows whose value is missing.
var MissingColor = color.RGBA{A: 255}

// RenderScale colors each row by its value of column, normalized between the
// column's minimum and maximum. Rows with a missing value are drawn in
// MissingColor and do not affect the range.
func (s *MapService) RenderScale(ctx context.Context, table domain.Table, column string, opts domain.ScaleOptions) (fig *figure.Figure, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRenderScale)
	defer span.End()
	start := time.Now()
	defer func() {
		telemetry.RecordError(span, err)
		metrics.ObserveRender(string(domain.JobScale), start, markerCount(fig), err)
	}()

	name := opts.ColorMap
	if name == "" {
		name = s.defaults.ColorMap
	}
	cm, err := colormap.ByName(name)
	if err != nil {
		return nil, err
	}

	values := make([]float64, table.Len())
	for row := range values {
		v, err := table.Float(column, row)
		if err != nil {
			return nil, err
		}
		values[row] = v
	}
	lo, hi := colormap.Normalize(cm, values)
	if lo == hi {
		// Every value gets the lowest color.
		cm.SetMax(lo + 1)
	}

	view := opts.View.Merge(s.defaults.Scale)
	var markers []domain.Marker
	for row, v := range values {
		p, err := position(table, view, row)
		if err != nil {
			return nil, err
		}
		rgb := MissingColor
		if !math.IsNaN(v) {
			c, err := cm.At(v)
			if err != nil {
				return nil, fmt.Errorf("color row %d: %w", row, err)
			}
			rgb = colormap.RGB8(c)
		}
		markers = append(markers, domain.Marker{Position: p, Color: rgb, Diameter: view.MarkerDiameter})
	}
	if lo == hi {
		cm.SetMin(lo - 0.5)
		cm.SetMax(hi + 0.5)
	}

	span.SetAttributes(
		attribute.String("maps.column", column),
		attribute.Float64("maps.min", lo),
		attribute.Float64("maps.max", hi),
		attribute.Int("maps.markers", len(markers)),
	)
	img, err := s.render(ctx, view, markers)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "rendered scale map", "column", column, "min", lo, "max", hi, "markers", len(markers))

	return &figure.Figure{
		Title:    opts.Title,
		Map:      img,
		ColorBar: &figure.ColorBar{Label: opts.ScaleLabel, ColorMap: cm},
		Size:     s.defaults.Figure,
		Markers:  len(markers),
	}, nil
}

func (s *MapService) render(ctx context.Context, view domain.View, markers []domain.Marker) (img image.Image, err error) {
	center := view.Center
	if center == nil && len(markers) == 0 {
		c := s.defaults.Center
		center = &c
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTileRender)
	defer span.End()
	img, err = s.renderer.RenderMap(ctx, domain.MapRequest{
		Width:   view.Width,
		Height:  view.Height,
		Zoom:    view.Zoom,
		Center:  center,
		Markers: markers,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("render tiles: %w", err)
	}
	return img, nil
}

// position reads and validates the coordinates of a row.
func position(table domain.Table, view domain.View, row int) (domain.GeoPoint, error) {
	lat, err := table.Float(view.LatColumn, row)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	lon, err := table.Float(view.LonColumn, row)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("row %d: %w", row, err)
	}
	return p, nil
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func markerCount(fig *figure.Figure) int {
	if fig == nil {
		return 0
	}
	return fig.Markers
}
