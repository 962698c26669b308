// Package routing plans sea routes between two coordinates using an
// external route planner.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// DefaultPace is the display pace used to derive a leg duration from its
// distance: every meter of route takes 36ms.
const DefaultPace = 36 * time.Millisecond

// ErrNoRoute is used when the planner returns no usable route
var ErrNoRoute = errors.New("no route found")

// Service provides access to an external routing service.
type Service interface {
	// PlanRoute finds a sea route from one coordinate to another. The
	// returned leg has no kind; callers set it.
	PlanRoute(ctx context.Context, from, to geo.Coordinate) (voyage.RouteLeg, error)
}

// EstimateDuration derives the duration of a route of the given length at
// the given pace per meter.
func EstimateDuration(meters float64, pace time.Duration) time.Duration {
	return time.Duration(meters * float64(pace))
}
