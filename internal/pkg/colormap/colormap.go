// Package colormap provides the continuous color gradients used by scale
// maps. Every map satisfies gonum's palette.ColorMap so it can drive both
// marker colors and the plotter.ColorBar legend.
package colormap

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// ErrUnknownColorMap is returned by ByName for unregistered names.
var ErrUnknownColorMap = errors.New("unknown colormap")

// DefaultName is the gradient used when none is requested.
const DefaultName = "inferno"

// stop is an sRGB color with components in [0, 1].
type stop struct{ r, g, b float64 }

// Gradient maps the normalization range [Min, Max] onto a table of evenly
// spaced colors. A value picks entry floor(t*N), clamped to the last entry,
// with t its position in the range.
type Gradient struct {
	stops    []stop
	min, max float64
	alpha    float64
}

func newGradient(stops []stop) *Gradient {
	return &Gradient{stops: stops, min: 0, max: 1, alpha: 1}
}

// At maps v to a color. With Min == Max every value in range maps to the
// lowest entry.
func (g *Gradient) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < g.min:
		return nil, palette.ErrUnderflow
	case v > g.max:
		return nil, palette.ErrOverflow
	}
	var t float64
	if g.max > g.min {
		t = (v - g.min) / (g.max - g.min)
	}
	return g.sample(t), nil
}

func (g *Gradient) sample(t float64) color.NRGBA {
	n := len(g.stops)
	i := int(math.Floor(t * float64(n)))
	switch {
	case i < 0:
		i = 0
	case i >= n:
		i = n - 1
	}
	return g.nrgba(g.stops[i])
}

// nrgba truncates each component to 8 bits, matching the floor(x*255)
// conversion used when coloring markers.
func (g *Gradient) nrgba(s stop) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Floor(s.r * 255)),
		G: uint8(math.Floor(s.g * 255)),
		B: uint8(math.Floor(s.b * 255)),
		A: uint8(math.Floor(g.alpha * 255)),
	}
}

func (g *Gradient) Max() float64     { return g.max }
func (g *Gradient) SetMax(v float64) { g.max = v }
func (g *Gradient) Min() float64     { return g.min }
func (g *Gradient) SetMin(v float64) { g.min = v }
func (g *Gradient) Alpha() float64   { return g.alpha }

// SetAlpha panics outside [0, 1], as palette.ColorMap requires.
func (g *Gradient) SetAlpha(a float64) {
	if a < 0 || a > 1 {
		panic("colormap: alpha out of range")
	}
	g.alpha = a
}

// Palette samples n evenly spaced colors from the gradient.
func (g *Gradient) Palette(n int) palette.Palette {
	if n <= 0 {
		return plain{}
	}
	colors := make(plain, n)
	for i := range colors {
		var t float64
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		colors[i] = g.sample(t)
	}
	return colors
}

type plain []color.Color

func (p plain) Colors() []color.Color { return p }

// Normalize sets the range of cm from a slice of values, ignoring NaN.
// It returns the applied range; an all-NaN or empty slice yields [0, 1].
func Normalize(cm palette.ColorMap, values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		lo, hi = 0, 1
	}
	// Set max first so moreland maps never see min > max.
	cm.SetMax(hi)
	cm.SetMin(lo)
	return lo, hi
}

// RGB8 drops alpha and returns the 8-bit sRGB components of c.
func RGB8(c color.Color) color.RGBA {
	if n, ok := c.(color.NRGBA); ok {
		return color.RGBA{R: n.R, G: n.G, B: n.B, A: 255}
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 255}
}

var registry = map[string]func() palette.ColorMap{
	"inferno":         func() palette.ColorMap { return Inferno() },
	"magma":           func() palette.ColorMap { return Magma() },
	"plasma":          func() palette.ColorMap { return Plasma() },
	"viridis":         func() palette.ColorMap { return Viridis() },
	"blackbody":       moreland.BlackBody,
	"kindlmann":       moreland.Kindlmann,
	"smooth-blue-red": func() palette.ColorMap { return moreland.SmoothBlueRed() },
}

// ByName returns a fresh colormap. Names are case-insensitive; "" selects
// DefaultName.
func ByName(name string) (palette.ColorMap, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownColorMap, name, strings.Join(Names(), ", "))
	}
	return f(), nil
}

// Names lists the registered colormaps in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
