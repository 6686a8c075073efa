package staticmaps

import (
	"image/color"

	"github.com/fogleman/gg"
	sm "github.com/flopp/go-staticmaps"
	"github.com/golang/geo/s2"
)

// dot is a filled circle with a fixed pixel diameter, independent of zoom.
type dot struct {
	pos      s2.LatLng
	color    color.Color
	diameter float64
}

func newDot(lat, lon float64, c color.Color, diameter float64) *dot {
	return &dot{pos: s2.LatLngFromDegrees(lat, lon), color: c, diameter: diameter}
}

func (d *dot) Bounds() s2.Rect {
	return s2.RectFromLatLng(d.pos)
}

func (d *dot) ExtraMarginPixels() (float64, float64, float64, float64) {
	m := d.diameter/2 + 1
	return m, m, m, m
}

func (d *dot) Draw(gc *gg.Context, trans *sm.Transformer) {
	if !sm.CanDisplay(d.pos) {
		return
	}
	x, y := trans.LatLngToXY(d.pos)
	gc.ClearPath()
	gc.DrawCircle(x, y, d.diameter/2)
	gc.SetColor(d.color)
	gc.Fill()
}
