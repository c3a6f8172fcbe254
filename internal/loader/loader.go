package loader

import (
	"context"
	"time"

	"github.com/aovlift/aovlift/internal/models"
)

// OrderSource supplies the normalized order snapshot for an analysis run. The
// engine does not care how the orders were obtained; implementations cover
// NDJSON snapshot files and a Postgres orders schema.
type OrderSource interface {
	LoadOrders(ctx context.Context, start, end time.Time) ([]models.Order, error)
	Close() error
}

// inRange filters by creation time. Zero bounds are open-ended.
func inRange(created, start, end time.Time) bool {
	if !start.IsZero() && created.Before(start) {
		return false
	}
	if !end.IsZero() && created.After(end) {
		return false
	}
	return true
}
