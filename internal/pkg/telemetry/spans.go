package telemetry

// Span names used for instrumentation.
const (
	// Rendering
	SpanRenderCategories = "maps.render_categories"
	SpanRenderScale      = "maps.render_scale"
	SpanTileRender       = "maps.tiles"
	SpanFigureEncode     = "maps.figure_encode"

	// Jobs
	SpanJobSubmit  = "jobs.submit"
	SpanJobProcess = "jobs.process"
)
