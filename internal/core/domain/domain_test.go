package domain_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/geoscatter/internal/core/domain"
)

func TestRecords_Float(t *testing.T) {
	rows := domain.Records{
		{"v": 1.5},
		{"v": "2.25"},
		{"v": json.Number("3")},
		{"v": int64(4)},
		{"v": ""},
		{"v": nil},
	}
	want := []float64{1.5, 2.25, 3, 4}
	for i, w := range want {
		got, err := rows.Float("v", i)
		if err != nil {
			t.Fatalf("row %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("row %d: expected %v, got %v", i, w, got)
		}
	}
	for i := 4; i < 6; i++ {
		got, err := rows.Float("v", i)
		if err != nil {
			t.Fatalf("row %d: unexpected error: %v", i, err)
		}
		if !math.IsNaN(got) {
			t.Errorf("row %d: expected NaN for a missing value, got %v", i, got)
		}
	}
}

func TestRecords_FloatErrors(t *testing.T) {
	rows := domain.Records{{"v": "abc"}}

	if _, err := rows.Float("v", 0); !errors.Is(err, domain.ErrColumnType) {
		t.Errorf("expected ErrColumnType, got %v", err)
	}
	if _, err := rows.Float("missing", 0); !errors.Is(err, domain.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
	if _, err := rows.Float("v", 1); err == nil {
		t.Error("expected an out of range error")
	}
}

func TestRecords_Bool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{"Yes", true},
		{"n", false},
		{"0", false},
		{"", false},
		{nil, false},
		{1.0, true},
		{0, false},
	}
	for _, tt := range tests {
		rows := domain.Records{{"c": tt.in}}
		got, err := rows.Bool("c", 0)
		if err != nil {
			t.Errorf("%v: unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%v: expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := (domain.Records{{"c": "maybe"}}).Bool("c", 0); !errors.Is(err, domain.ErrColumnType) {
		t.Errorf("expected ErrColumnType, got %v", err)
	}
}

func TestGeoPoint_Validate(t *testing.T) {
	valid := []domain.GeoPoint{{Lat: 50.08, Lon: 14.44}, {Lat: -90, Lon: 180}, {}}
	for _, p := range valid {
		if err := p.Validate(); err != nil {
			t.Errorf("%+v: unexpected error: %v", p, err)
		}
	}
	invalid := []domain.GeoPoint{{Lat: 91}, {Lon: -181}, {Lat: math.NaN()}}
	for _, p := range invalid {
		if err := p.Validate(); !errors.Is(err, domain.ErrInvalidCoordinate) {
			t.Errorf("%+v: expected ErrInvalidCoordinate, got %v", p, err)
		}
	}
}

func TestBoundsOf(t *testing.T) {
	if _, ok := domain.BoundsOf(nil); ok {
		t.Error("expected ok=false for no markers")
	}

	b, ok := domain.BoundsOf([]domain.Marker{
		{Position: domain.GeoPoint{Lat: 50.1, Lon: 14.3}},
		{Position: domain.GeoPoint{Lat: 49.9, Lon: 14.6}},
		{Position: domain.GeoPoint{Lat: 50.0, Lon: 14.4}},
	})
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := domain.Bounds{MinLat: 49.9, MinLon: 14.3, MaxLat: 50.1, MaxLon: 14.6}
	if b != want {
		t.Errorf("expected %+v, got %+v", want, b)
	}
}

func TestView_Merge(t *testing.T) {
	center := &domain.GeoPoint{Lat: 50.08, Lon: 14.44}
	defaults := domain.View{
		Width: 1600, Height: 1000, Zoom: 12, Center: center,
		LatColumn: "lat", LonColumn: "lon", MarkerDiameter: 10,
	}

	got := domain.View{Width: 800, LatColumn: "y"}.Merge(defaults)
	if got.Width != 800 || got.LatColumn != "y" {
		t.Errorf("overrides lost: %+v", got)
	}
	if got.Height != 1000 || got.Zoom != 12 || got.LonColumn != "lon" || got.MarkerDiameter != 10 {
		t.Errorf("defaults not applied: %+v", got)
	}
	if got.Center != center {
		t.Error("expected default center")
	}

	if got := (domain.View{Zoom: 0}).Merge(defaults); got.Zoom != 12 {
		t.Errorf("zoom 0 selects the default, got %d", got.Zoom)
	}
}

func TestRenderJob_CacheKey(t *testing.T) {
	a := &domain.RenderJob{
		ID:         "one",
		Kind:       domain.JobCategories,
		Rows:       domain.Records{{"lat": 50.0, "lon": 14.0, "cafe": true}},
		Categories: []string{"cafe"},
	}
	b := *a
	b.ID = "two"

	ka, err := a.CacheKey()
	if err != nil {
		t.Fatal(err)
	}
	kb, err := b.CacheKey()
	if err != nil {
		t.Fatal(err)
	}
	if ka != kb {
		t.Errorf("expected the ID to be ignored: %s != %s", ka, kb)
	}
	if a.ID != "one" {
		t.Error("CacheKey must not modify the job")
	}

	b.FinalAttempt = true
	if kf, err := b.CacheKey(); err != nil || kf != ka {
		t.Errorf("delivery state must not change the key: %s, %v", kf, err)
	}

	b.Categories = []string{"bar"}
	kc, err := b.CacheKey()
	if err != nil {
		t.Fatal(err)
	}
	if kc == ka {
		t.Error("expected different parameters to give different keys")
	}
}
