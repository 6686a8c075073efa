package http_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/geoscatter/internal/adapters/http"
)

// findOpenAPIDoc locates api/openapi.yaml by walking up from the test directory.
func findOpenAPIDoc(t *testing.T) string {
	t.Helper()
	dir, _ := os.Getwd()

	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	data, err := os.ReadFile(findOpenAPIDoc(t))
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI document: %v", err)
	}
	return doc
}

func TestOpenAPIDocument(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI validation failed: %v", err)
	}

	if doc.Info.Title != "GeoScatter Maps API" {
		t.Errorf("expected title 'GeoScatter Maps API', got %q", doc.Info.Title)
	}
	if doc.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", doc.Info.Version)
	}

	for _, path := range []string{
		"/v1/health",
		"/v1/ready",
		"/v1/maps/options",
		"/v1/maps/categories",
		"/v1/maps/scale",
		"/v1/maps/jobs",
		"/v1/maps/jobs/{id}",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("missing path %s", path)
		}
	}

	schemas := doc.Components.Schemas
	for _, name := range []string{"APIError", "RenderRequest", "View", "GeoPoint", "JobAccepted"} {
		if _, ok := schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
}

// Every documented operation must be served by the router.
func TestOpenAPIRoutesRegistered(t *testing.T) {
	doc := loadOpenAPIDoc(t)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, newFixture().deps(), handler.Options{})

	registered := map[string]bool{}
	for _, r := range app.GetRoutes(true) {
		registered[r.Method+" "+r.Path] = true
	}

	for path, item := range doc.Paths.Map() {
		route := strings.NewReplacer("{", ":", "}", "").Replace(path)
		for method := range item.Operations() {
			if !registered[method+" "+route] {
				t.Errorf("%s %s is documented but not routed", method, path)
			}
		}
	}
}
