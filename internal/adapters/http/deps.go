package http

import (
	"context"

	"github.com/samirrijal/geoscatter/internal/core/usecases"
)

// Pinger is a backend the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Jobs *usecases.JobService

	// TileProvider names the active tile source, reported by /v1/maps/options.
	TileProvider string

	NATS  Pinger
	Cache Pinger
}
