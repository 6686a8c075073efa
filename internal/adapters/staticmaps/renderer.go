// Package staticmaps renders markers over raster map tiles with
// flopp/go-staticmaps.
package staticmaps

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	sm "github.com/flopp/go-staticmaps"
	"github.com/golang/geo/s2"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

// ErrUnknownProvider is returned for tile provider names go-staticmaps does not know.
var ErrUnknownProvider = errors.New("unknown tile provider")

// Options configures tile fetching. Zero values select the library defaults:
// OpenStreetMap tiles cached under the user cache directory.
type Options struct {
	// Provider is a go-staticmaps provider name such as "osm" or "carto-light".
	Provider string
	// URLPattern overrides Provider with a custom tile server. It uses the
	// go-staticmaps verbs: %[1]s shard, %[2]d zoom, %[3]d x, %[4]d y, %[5]s key.
	URLPattern  string
	Attribution string
	APIKey      string
	TileSize    int

	CacheDir     string
	DisableCache bool
	// Offline serves tiles from the cache only.
	Offline   bool
	UserAgent string

	Background color.Color
}

// Renderer implements ports.MapRenderer.
type Renderer struct {
	opts     Options
	provider *sm.TileProvider
	cache    sm.TileCache
}

// New validates opts and resolves the tile provider.
func New(opts Options) (*Renderer, error) {
	provider, err := resolveProvider(opts)
	if err != nil {
		return nil, err
	}

	var cache sm.TileCache
	switch {
	case opts.DisableCache:
	case opts.CacheDir != "":
		cache = sm.NewTileCache(opts.CacheDir, 0o755)
	default:
		cache = sm.NewTileCacheFromUserCache(0o755)
	}

	return &Renderer{opts: opts, provider: provider, cache: cache}, nil
}

func resolveProvider(opts Options) (*sm.TileProvider, error) {
	if opts.URLPattern != "" {
		size := opts.TileSize
		if size <= 0 {
			size = 256
		}
		return &sm.TileProvider{
			Name:        "custom",
			Attribution: opts.Attribution,
			TileSize:    size,
			URLPattern:  opts.URLPattern,
			APIKey:      opts.APIKey,
		}, nil
	}

	name := strings.ToLower(opts.Provider)
	if name == "" {
		name = "osm"
	}
	providers := sm.GetTileProviders(opts.APIKey)
	p, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownProvider, name, strings.Join(ProviderNames(), ", "))
	}
	if opts.Attribution != "" {
		p.Attribution = opts.Attribution
	}
	return p, nil
}

// ProviderNames lists the built-in tile providers.
func ProviderNames() []string {
	providers := sm.GetTileProviders("")
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Provider returns the name of the resolved tile provider.
func (r *Renderer) Provider() string { return r.provider.Name }

// RenderMap fetches the tiles covering req and draws its markers in order.
// Tiles that fail to download are left blank.
func (r *Renderer) RenderMap(ctx context.Context, req domain.MapRequest) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("invalid map size %dx%d", req.Width, req.Height)
	}

	m := sm.NewContext()
	m.SetTileProvider(r.provider)
	m.SetCache(r.cache)
	m.SetOnline(!r.opts.Offline)
	if r.opts.UserAgent != "" {
		m.SetUserAgent(r.opts.UserAgent)
	}
	if r.opts.Background != nil {
		m.SetBackground(r.opts.Background)
	}
	m.SetSize(req.Width, req.Height)
	if req.Zoom > 0 {
		m.SetZoom(req.Zoom)
	}
	if req.Center != nil {
		m.SetCenter(s2.LatLngFromDegrees(req.Center.Lat, req.Center.Lon))
	}
	for _, mk := range req.Markers {
		m.AddObject(newDot(mk.Position.Lat, mk.Position.Lon, mk.Color, mk.Diameter))
	}

	img, err := m.Render()
	if err != nil {
		return nil, fmt.Errorf("staticmaps: %w", err)
	}
	return img, nil
}
