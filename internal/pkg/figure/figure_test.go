package figure_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
	"github.com/samirrijal/geoscatter/internal/pkg/figure"
)

var small = figure.Size{Width: 4 * vg.Inch, Height: 3 * vg.Inch, DPI: 50}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func TestFigure_MapInsideAxes(t *testing.T) {
	f := &figure.Figure{
		Title: "Shops",
		Map:   solid(160, 100, color.RGBA{255, 0, 0, 255}),
		Size:  small,
	}
	img, err := f.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 200 || b.Dy() != 150 {
		t.Fatalf("expected 200x150 page, got %dx%d", b.Dx(), b.Dy())
	}
	if c := img.At(102, 75); !isRed(c) {
		t.Errorf("expected map pixels at axes center, got %v", c)
	}
	if c := img.At(1, 1); isRed(c) {
		t.Errorf("map bled into the page margin at (1,1)")
	}
}

func TestFigure_Legend(t *testing.T) {
	f := &figure.Figure{
		Map:  solid(160, 100, color.White),
		Size: small,
		Legend: []figure.LegendEntry{
			{Label: "Cafe", Color: color.RGBA{255, 0, 0, 255}},
			{Label: "Bar", Color: color.RGBA{0, 0, 255, 255}},
		},
	}
	img, err := f.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	// The map is white, so any red pixel right of center belongs to the legend.
	found := false
	b := img.Bounds()
	for x := b.Dx() / 2; x < b.Dx() && !found; x++ {
		for y := 0; y < b.Dy(); y++ {
			if isRed(img.At(x, y)) {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("expected a red legend patch on the right")
	}
}

func TestFigure_ColorBar(t *testing.T) {
	cm := colormap.Inferno()
	colormap.Normalize(cm, []float64{1, 2, 3})

	f := &figure.Figure{
		Map:      solid(160, 100, color.White),
		Size:     small,
		ColorBar: &figure.ColorBar{Label: "Price", ColorMap: cm},
	}
	var buf bytes.Buffer
	if err := f.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
}

func TestFigure_ColorBarDegenerateRange(t *testing.T) {
	cm := colormap.Inferno()
	colormap.Normalize(cm, []float64{4, 4})

	f := &figure.Figure{
		Map:      solid(10, 10, color.White),
		Size:     small,
		ColorBar: &figure.ColorBar{ColorMap: cm},
	}
	if _, err := f.Image(); err != nil {
		t.Fatalf("Image with min == max: %v", err)
	}
}

func TestFigure_Errors(t *testing.T) {
	if _, err := (&figure.Figure{}).Image(); err == nil {
		t.Error("expected error without a map image")
	}
	f := &figure.Figure{Map: solid(4, 4, color.White), ColorBar: &figure.ColorBar{}}
	if _, err := f.Image(); err == nil {
		t.Error("expected error for a color bar without colormap")
	}
}

func TestFigure_SavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	f := &figure.Figure{Map: solid(8, 8, color.White), Size: small}
	if err := f.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	data, err := f.PNG()
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty PNG")
	}
}
