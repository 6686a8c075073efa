package colormap_test

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/plot/palette"

	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
)

func TestInferno_EndPoints(t *testing.T) {
	g := colormap.Inferno()
	g.SetMax(250)
	g.SetMin(-10)

	lo, err := g.At(-10)
	if err != nil {
		t.Fatalf("At(min): %v", err)
	}
	if got, want := colormap.RGB8(lo), (color.RGBA{0, 0, 3, 255}); got != want {
		t.Errorf("lowest color: got %v, want %v", got, want)
	}

	hi, err := g.At(250)
	if err != nil {
		t.Fatalf("At(max): %v", err)
	}
	if got, want := colormap.RGB8(hi), (color.RGBA{252, 254, 164, 255}); got != want {
		t.Errorf("highest color: got %v, want %v", got, want)
	}
}

func TestGradient_RangeErrors(t *testing.T) {
	g := colormap.Inferno()
	tests := []struct {
		v    float64
		want error
	}{
		{math.NaN(), palette.ErrNaN},
		{-0.1, palette.ErrUnderflow},
		{1.1, palette.ErrOverflow},
	}
	for _, tt := range tests {
		if _, err := g.At(tt.v); !errors.Is(err, tt.want) {
			t.Errorf("At(%v): got %v, want %v", tt.v, err, tt.want)
		}
	}
}

func TestGradient_DegenerateRange(t *testing.T) {
	g := colormap.Inferno()
	g.SetMax(5)
	g.SetMin(5)
	c, err := g.At(5)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if got := colormap.RGB8(c); got != (color.RGBA{0, 0, 3, 255}) {
		t.Errorf("expected lowest color for min==max, got %v", got)
	}
}

func TestGradient_Monotonic(t *testing.T) {
	// Inferno brightens from end to end; red never decreases across the low half.
	g := colormap.Inferno()
	prev := -1
	for i := 0; i <= 10; i++ {
		c, err := g.At(float64(i) / 20)
		if err != nil {
			t.Fatal(err)
		}
		r := int(colormap.RGB8(c).R)
		if r < prev {
			t.Fatalf("red decreased at step %d: %d < %d", i, r, prev)
		}
		prev = r
	}
}

func TestGradient_Palette(t *testing.T) {
	p := colormap.Viridis().Palette(5).Colors()
	if len(p) != 5 {
		t.Fatalf("expected 5 colors, got %d", len(p))
	}
	if got := colormap.RGB8(p[0]); got != (color.RGBA{68, 1, 84, 255}) {
		t.Errorf("first viridis color: got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	g := colormap.Inferno()
	lo, hi := colormap.Normalize(g, []float64{3, math.NaN(), -2, 7})
	if lo != -2 || hi != 7 {
		t.Fatalf("expected [-2,7], got [%v,%v]", lo, hi)
	}
	if g.Min() != -2 || g.Max() != 7 {
		t.Errorf("colormap range not applied: [%v,%v]", g.Min(), g.Max())
	}

	lo, hi = colormap.Normalize(colormap.Inferno(), nil)
	if lo != 0 || hi != 1 {
		t.Errorf("expected [0,1] for empty input, got [%v,%v]", lo, hi)
	}
}

func TestByName(t *testing.T) {
	for _, name := range colormap.Names() {
		cm, err := colormap.ByName(name)
		if err != nil {
			t.Errorf("ByName(%q): %v", name, err)
			continue
		}
		cm.SetMax(1)
		cm.SetMin(0)
		if _, err := cm.At(0.5); err != nil {
			t.Errorf("%s.At(0.5): %v", name, err)
		}
	}

	if _, err := colormap.ByName(""); err != nil {
		t.Errorf("default colormap: %v", err)
	}
	if _, err := colormap.ByName("jet"); !errors.Is(err, colormap.ErrUnknownColorMap) {
		t.Errorf("expected ErrUnknownColorMap, got %v", err)
	}
}

func TestListedMaps_ReferenceColors(t *testing.T) {
	tests := []struct {
		name string
		cm   *colormap.Gradient
		v    float64
		want color.RGBA
	}{
		{"inferno", colormap.Inferno(), 0.25, color.RGBA{87, 15, 109, 255}},
		{"inferno", colormap.Inferno(), 0.5, color.RGBA{187, 55, 84, 255}},
		{"inferno", colormap.Inferno(), 0.75, color.RGBA{249, 142, 8, 255}},
		{"magma", colormap.Magma(), 0.5, color.RGBA{182, 54, 121, 255}},
		{"plasma", colormap.Plasma(), 0.5, color.RGBA{203, 71, 119, 255}},
		{"viridis", colormap.Viridis(), 0.5, color.RGBA{32, 144, 140, 255}},
	}
	for _, tt := range tests {
		c, err := tt.cm.At(tt.v)
		if err != nil {
			t.Fatalf("%s.At(%v): %v", tt.name, tt.v, err)
		}
		if got := colormap.RGB8(c); got != tt.want {
			t.Errorf("%s.At(%v) = %v, want %v", tt.name, tt.v, got, tt.want)
		}
	}
}

func TestListedMaps_LastEntry(t *testing.T) {
	g := colormap.Inferno()
	// Values just below the top land in the last entry, as does the top itself.
	for _, v := range []float64{1 - 1e-9, 1} {
		c, err := g.At(v)
		if err != nil {
			t.Fatal(err)
		}
		if got := colormap.RGB8(c); got != (color.RGBA{252, 254, 164, 255}) {
			t.Errorf("At(%v) = %v, want the last entry", v, got)
		}
	}
}
