package http

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/geoscatter/internal/adapters/csvtable"
	"github.com/samirrijal/geoscatter/internal/core/domain"
	"github.com/samirrijal/geoscatter/internal/core/usecases"
	"github.com/samirrijal/geoscatter/internal/pkg/colormap"
)

const (
	maxDimension = 4096
	maxZoom      = 19
	mimePNG      = "image/png"
)

// CategoriesMapHandler renders a category map and responds with the PNG.
func CategoriesMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderPNG(c, deps, domain.JobCategories)
	}
}

// ScaleMapHandler renders a scale map and responds with the PNG.
func ScaleMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderPNG(c, deps, domain.JobScale)
	}
}

func renderPNG(c *fiber.Ctx, deps *Dependencies, kind domain.JobKind) error {
	job, err := parseJob(c, kind)
	if err != nil {
		return errBadRequest(c, err.Error())
	}

	data, err := deps.Jobs.Render(c.UserContext(), job)
	if err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, mimePNG)
	return c.Send(data)
}

// SubmitJobHandler queues a render job. The kind comes from the body or the
// kind query parameter.
func SubmitJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		job, err := parseJob(c, domain.JobKind(c.Query("kind")))
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		id, err := deps.Jobs.Submit(c.UserContext(), job)
		if err != nil {
			return writeError(c, err)
		}

		result := "/v1/maps/jobs/" + id
		c.Location(result)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"id":     id,
			"kind":   job.Kind,
			"status": "queued",
			"result": result,
		})
	}
}

// JobResultHandler returns the PNG of a finished job, 202 while it is
// pending and 422 when it failed.
func JobResultHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errBadRequest(c, "job id must be a UUID")
		}

		data, err := deps.Jobs.Result(c.UserContext(), id)
		switch {
		case errors.Is(err, domain.ErrJobPending):
			c.Set(fiber.HeaderCacheControl, "no-store")
			c.Set(fiber.HeaderRetryAfter, "2")
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": id, "status": "pending"})
		case err != nil:
			return writeError(c, err)
		}

		c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
		c.Set(fiber.HeaderContentType, mimePNG)
		return c.Send(data)
	}
}

// OptionsHandler lists the colormaps and category capacity the renderers offer.
func OptionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"colormaps":        colormap.Names(),
			"default_colormap": colormap.DefaultName,
			"max_categories":   len(usecases.CategoryColors),
			"tile_provider":    deps.TileProvider,
		})
	}
}

// renderBody is the request shape shared by the render and job routes. CSV
// requests fill it from query parameters.
type renderBody struct {
	Kind       domain.JobKind `json:"kind"`
	Rows       domain.Records `json:"rows"`
	Categories []string       `json:"categories"`
	Column     string         `json:"column"`
	Title      string         `json:"title"`
	ScaleLabel string         `json:"scale_label"`
	ColorMap   string         `json:"colormap"`
	View       domain.View    `json:"view"`
}

func (b *renderBody) job() *domain.RenderJob {
	return &domain.RenderJob{
		Kind:       b.Kind,
		Rows:       b.Rows,
		Categories: b.Categories,
		Column:     b.Column,
		Category:   domain.CategoryOptions{Title: b.Title, View: b.View},
		Scale: domain.ScaleOptions{
			Title:      b.Title,
			ScaleLabel: b.ScaleLabel,
			ColorMap:   b.ColorMap,
			View:       b.View,
		},
	}
}

// parseJob reads a render job from a JSON body or from a CSV body plus
// query parameters. kind, when set, overrides the body.
func parseJob(c *fiber.Ctx, kind domain.JobKind) (*domain.RenderJob, error) {
	var body renderBody
	if isCSV(c) {
		rows, err := csvtable.Read(bytes.NewReader(c.Body()))
		if err != nil {
			return nil, fmt.Errorf("invalid csv body: %w", err)
		}
		if body.View, err = viewFromQuery(c); err != nil {
			return nil, err
		}
		body.Rows = rows
		body.Categories = splitList(c.Query("categories"))
		body.Column = c.Query("column")
		body.Title = c.Query("title")
		body.ScaleLabel = c.Query("label")
		body.ColorMap = c.Query("colormap")
	} else if err := c.BodyParser(&body); err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}

	if kind != "" {
		body.Kind = kind
	}
	if body.Kind == "" {
		return nil, errors.New("job kind is required")
	}
	if err := checkView(body.View); err != nil {
		return nil, err
	}
	return body.job(), nil
}

func isCSV(c *fiber.Ctx) bool {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	return strings.HasPrefix(ct, "text/csv")
}

// viewFromQuery reads map overrides from query parameters. Absent parameters
// stay zero and fall back to the configured defaults.
func viewFromQuery(c *fiber.Ctx) (domain.View, error) {
	var (
		v   domain.View
		err error
	)
	ints := []struct {
		key string
		dst *int
	}{{"width", &v.Width}, {"height", &v.Height}, {"zoom", &v.Zoom}}
	for _, q := range ints {
		if s := c.Query(q.key); s != "" {
			if *q.dst, err = strconv.Atoi(s); err != nil {
				return v, fmt.Errorf("%s must be an integer", q.key)
			}
		}
	}
	if s := c.Query("marker_diameter"); s != "" {
		if v.MarkerDiameter, err = strconv.ParseFloat(s, 64); err != nil {
			return v, errors.New("marker_diameter must be a number")
		}
	}
	v.LatColumn = c.Query("lat_column")
	v.LonColumn = c.Query("lon_column")

	lat, lon := c.Query("center_lat"), c.Query("center_lon")
	if lat == "" && lon == "" {
		return v, nil
	}
	if lat == "" || lon == "" {
		return v, errors.New("center_lat and center_lon must be given together")
	}
	var p domain.GeoPoint
	if p.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return v, errors.New("center_lat must be a number")
	}
	if p.Lon, err = strconv.ParseFloat(lon, 64); err != nil {
		return v, errors.New("center_lon must be a number")
	}
	v.Center = &p
	return v, nil
}

func checkView(v domain.View) error {
	if v.Width < 0 || v.Width > maxDimension || v.Height < 0 || v.Height > maxDimension {
		return fmt.Errorf("width and height must be 1-%d", maxDimension)
	}
	if v.Zoom < 0 || v.Zoom > maxZoom {
		return fmt.Errorf("zoom must be 1-%d, or 0 for the default", maxZoom)
	}
	if v.MarkerDiameter < 0 {
		return errors.New("marker_diameter must be positive")
	}
	if v.Center != nil {
		if err := v.Center.Validate(); err != nil {
			return fmt.Errorf("center: %w", err)
		}
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
