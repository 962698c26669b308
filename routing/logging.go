package routing

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type loggingService struct {
	logger log.Logger
	Service
}

// NewLoggingService returns a new instance of a logging Service.
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{logger, s}
}

func (s *loggingService) PlanRoute(ctx context.Context, from, to geo.Coordinate) (leg voyage.RouteLeg, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "plan_route",
			"from", from,
			"to", to,
			"points", len(leg.Path),
			"meters", leg.DistanceMeters,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.PlanRoute(ctx, from, to)
}
