// Package figure composes a rendered map image with its title and its legend
// or color bar into a single page, drawn with gonum/plot.
package figure

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Page fractions of the axes rectangle and title baseline.
const (
	axesLeft   = 0.125
	axesRight  = 0.9
	axesBottom = 0.11
	axesTop    = 0.88
	titleY     = 0.9

	titleSize  = 16
	legendSize = 10
)

// DefaultSize is a 15 x 10 inch page at 100 dpi.
var DefaultSize = Size{Width: 15 * vg.Inch, Height: 10 * vg.Inch, DPI: 100}

// Size is the physical page size and resolution of a figure.
type Size struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// LegendEntry is a labelled color patch.
type LegendEntry struct {
	Label string
	Color color.Color
}

// ColorBar describes the continuous scale legend. The range of ColorMap is
// the normalization range used for the markers.
type ColorBar struct {
	Label    string
	ColorMap palette.ColorMap
}

// Figure is a composed map page. It is cheap to build; pixels are produced
// on Image, WritePNG or SavePNG.
type Figure struct {
	Title    string
	Map      image.Image
	Legend   []LegendEntry
	ColorBar *ColorBar
	Size     Size

	// Markers is the number of markers drawn on Map.
	Markers int
}

func (f *Figure) size() Size {
	s := f.Size
	if s.Width <= 0 || s.Height <= 0 {
		s.Width, s.Height = DefaultSize.Width, DefaultSize.Height
	}
	if s.DPI <= 0 {
		s.DPI = DefaultSize.DPI
	}
	return s
}

// Image draws the figure and returns the page raster.
func (f *Figure) Image() (image.Image, error) {
	c, err := f.draw()
	if err != nil {
		return nil, err
	}
	return c.Image(), nil
}

// WritePNG encodes the page as PNG.
func (f *Figure) WritePNG(w io.Writer) error {
	c, err := f.draw()
	if err != nil {
		return err
	}
	_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}

// PNG returns the PNG-encoded page.
func (f *Figure) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := f.WritePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SavePNG writes the page to path.
func (f *Figure) SavePNG(path string) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	return f.WritePNG(out)
}

func (f *Figure) draw() (c *vgimg.Canvas, err error) {
	if f.Map == nil {
		return nil, errors.New("figure: no map image")
	}
	// gonum/plot reports layout problems by panicking.
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("figure: %v", r)
		}
	}()

	s := f.size()
	c = vgimg.NewWith(vgimg.UseWH(s.Width, s.Height), vgimg.UseDPI(s.DPI))
	dc := draw.New(c)
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())

	if f.Title != "" {
		sty := textStyle(titleSize)
		sty.XAlign = draw.XCenter
		sty.YAlign = draw.YBottom
		dc.FillText(sty, vg.Point{X: dc.X(0.5), Y: dc.Y(titleY)}, f.Title)
	}

	axes := draw.Canvas{Canvas: dc.Canvas, Rectangle: vg.Rectangle{
		Min: vg.Point{X: dc.X(axesLeft), Y: dc.Y(axesBottom)},
		Max: vg.Point{X: dc.X(axesRight), Y: dc.Y(axesTop)},
	}}
	img := fitImage(axes, f.Map)
	dc.DrawImage(img, f.Map)

	if len(f.Legend) > 0 {
		drawLegend(dc, f.Legend)
	}
	if f.ColorBar != nil {
		if err := drawColorBar(dc, img, f.ColorBar); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// fitImage returns the largest rectangle with the aspect ratio of img that
// fits centered in c.
func fitImage(c draw.Canvas, img image.Image) vg.Rectangle {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return c.Rectangle
	}
	aspect := float64(b.Dx()) / float64(b.Dy())
	size := c.Size()
	w, h := size.X, size.Y
	if float64(w)/float64(h) > aspect {
		w = vg.Length(float64(h) * aspect)
	} else {
		h = vg.Length(float64(w) / aspect)
	}
	center := c.Center()
	return vg.Rectangle{
		Min: vg.Point{X: center.X - w/2, Y: center.Y - h/2},
		Max: vg.Point{X: center.X + w/2, Y: center.Y + h/2},
	}
}

func textStyle(size vg.Length) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(font.Font{Typeface: "Liberation", Variant: "Sans"}, size),
		Handler: plot.DefaultTextHandler,
	}
}

// patch is a legend thumbnail filled with a single color.
type patch struct{ color color.Color }

func (p patch) Thumbnail(c *draw.Canvas) {
	c.SetColor(p.color)
	c.Fill(c.Rectangle.Path())
}

// drawLegend places a framed legend against the right page edge, centered
// vertically.
func drawLegend(dc draw.Canvas, entries []LegendEntry) {
	l := plot.NewLegend()
	l.TextStyle = textStyle(legendSize)
	l.Left = true
	l.Top = true
	l.Padding = vg.Points(4)
	l.ThumbnailWidth = vg.Points(20)
	for _, e := range entries {
		l.Add(e.Label, patch{color: e.Color})
	}

	size := l.Rectangle(dc).Size()
	pad := vg.Points(6)
	right := dc.Max.X - pad
	mid := dc.Center().Y
	box := vg.Rectangle{
		Min: vg.Point{X: right - size.X - 2*pad, Y: mid - size.Y/2 - pad},
		Max: vg.Point{X: right, Y: mid + size.Y/2 + pad},
	}
	dc.StrokeLines(draw.LineStyle{Color: color.Gray{Y: 204}, Width: vg.Points(0.8)}, []vg.Point{
		box.Min, {X: box.Max.X, Y: box.Min.Y}, box.Max, {X: box.Min.X, Y: box.Max.Y}, box.Min,
	})

	inner := draw.Canvas{Canvas: dc.Canvas, Rectangle: vg.Rectangle{
		Min: vg.Point{X: box.Min.X + pad, Y: box.Min.Y + pad},
		Max: vg.Point{X: box.Max.X - pad, Y: box.Max.Y - pad},
	}}
	l.Draw(inner)
}

// drawColorBar draws a vertical color bar right of the map, as tall as the
// map, with ticks and a label on its own axis.
func drawColorBar(dc draw.Canvas, mapRect vg.Rectangle, cb *ColorBar) error {
	if cb.ColorMap == nil {
		return errors.New("figure: color bar without colormap")
	}
	cm := cb.ColorMap
	if cm.Max() == cm.Min() {
		// Widen a degenerate range so the bar has extent.
		v := cm.Min()
		cm = rangedCopy{ColorMap: cm, min: v - 0.5, max: v + 0.5}
	}

	p := plot.New()
	p.BackgroundColor = nil
	p.HideX()
	p.Y.Label.Text = cb.Label
	p.Y.Label.TextStyle.Font = font.From(font.Font{Typeface: "Liberation", Variant: "Sans"}, legendSize)
	p.Y.Tick.Label.Font = font.From(font.Font{Typeface: "Liberation", Variant: "Sans"}, legendSize)
	p.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})

	width := dc.Size().X * 0.03
	gap := dc.Size().X * 0.02
	axis := vg.Points(60)
	area := draw.Canvas{Canvas: dc.Canvas, Rectangle: vg.Rectangle{
		Min: vg.Point{X: mapRect.Max.X + gap, Y: mapRect.Min.Y},
		Max: vg.Point{X: mapRect.Max.X + gap + axis + width, Y: mapRect.Max.Y},
	}}
	p.Draw(area)
	return nil
}

// rangedCopy presents a colormap over a different range, mapping the
// widened range back onto the original single value.
type rangedCopy struct {
	palette.ColorMap
	min, max float64
}

func (r rangedCopy) Min() float64 { return r.min }
func (r rangedCopy) Max() float64 { return r.max }

func (r rangedCopy) At(float64) (color.Color, error) {
	return r.ColorMap.At(r.ColorMap.Min())
}
