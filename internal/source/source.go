// Package source supplies the ordered bus record snapshot a dashboard
// session loads once at start.
package source

import (
	"context"
	"time"

	"github.com/amana-transportation/fleetview/models"
)

// Source yields the fleet snapshot in display order
type Source interface {
	GetAllBuses(ctx context.Context) ([]models.BusRecord, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) ([]models.BusRecord, error)

func (f SourceFunc) GetAllBuses(ctx context.Context) ([]models.BusRecord, error) {
	return f(ctx)
}

// WithDelay holds every load for d before delegating, the way the
// dashboard simulates a slow upstream while running on mock data.
func WithDelay(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return SourceFunc(func(ctx context.Context) ([]models.BusRecord, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
		return src.GetAllBuses(ctx)
	})
}
