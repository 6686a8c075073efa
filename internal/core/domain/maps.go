package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"image/color"
	"time"
)

// Marker is a single filled circle drawn on top of the map tiles.
type Marker struct {
	Position GeoPoint
	Color    color.RGBA
	Diameter float64 // pixels
}

// MapRequest describes one tile-map rendering.
// A nil Center lets the renderer center on the marker extent.
type MapRequest struct {
	Width   int
	Height  int
	Zoom    int
	Center  *GeoPoint
	Markers []Marker
}

// View carries per-call overrides of the map defaults. Zero values mean
// "use the configured default", so world-level zoom 0 cannot be requested.
type View struct {
	Width          int       `json:"width,omitempty"`
	Height         int       `json:"height,omitempty"`
	Zoom           int       `json:"zoom,omitempty"`
	Center         *GeoPoint `json:"center,omitempty"`
	LatColumn      string    `json:"lat_column,omitempty"`
	LonColumn      string    `json:"lon_column,omitempty"`
	MarkerDiameter float64   `json:"marker_diameter,omitempty"`
}

// Merge returns v with every zero field taken from defaults.
func (v View) Merge(defaults View) View {
	if v.Width <= 0 {
		v.Width = defaults.Width
	}
	if v.Height <= 0 {
		v.Height = defaults.Height
	}
	if v.Zoom <= 0 {
		v.Zoom = defaults.Zoom
	}
	if v.Center == nil {
		v.Center = defaults.Center
	}
	if v.LatColumn == "" {
		v.LatColumn = defaults.LatColumn
	}
	if v.LonColumn == "" {
		v.LonColumn = defaults.LonColumn
	}
	if v.MarkerDiameter <= 0 {
		v.MarkerDiameter = defaults.MarkerDiameter
	}
	return v
}

// CategoryOptions parameterise a category map.
type CategoryOptions struct {
	Title string `json:"title,omitempty"`
	View  View   `json:"view"`
}

// ScaleOptions parameterise a scale map.
type ScaleOptions struct {
	Title      string `json:"title,omitempty"`
	ScaleLabel string `json:"scale_label,omitempty"`
	ColorMap   string `json:"colormap,omitempty"`
	View       View   `json:"view"`
}

// JobKind selects the renderer a job runs through.
type JobKind string

const (
	JobCategories JobKind = "categories"
	JobScale      JobKind = "scale"
)

// RenderJob is a self-contained render request, used both for synchronous
// cached renders and for jobs queued to the worker.
type RenderJob struct {
	ID         string          `json:"id,omitempty"`
	Kind       JobKind         `json:"kind"`
	Rows       Records         `json:"rows"`
	Categories []string        `json:"categories,omitempty"`
	Column     string          `json:"column,omitempty"`
	Category   CategoryOptions `json:"category_options"`
	Scale      ScaleOptions    `json:"scale_options"`

	// FinalAttempt is set by the queue on the last delivery of a job, after
	// which a failure is recorded even when retrying could succeed.
	FinalAttempt bool `json:"-"`
}

// CacheKey derives a stable key from everything but the job ID, so that
// identical requests share one cached figure.
func (j *RenderJob) CacheKey() (string, error) {
	c := *j
	c.ID = ""
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return "maps:figure:" + hex.EncodeToString(sum[:]), nil
}

// RenderEvent is published after the worker finishes a job.
type RenderEvent struct {
	JobID    string        `json:"job_id"`
	Kind     JobKind       `json:"kind"`
	Markers  int           `json:"markers"`
	Bytes    int           `json:"bytes"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
}
