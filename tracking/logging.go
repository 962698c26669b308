package tracking

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/voyage-tracker/cargo"
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

func (s *loggingService) Track(ctx context.Context, id cargo.TrackingID) (j voyage.Journey, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "track",
			"tracking_id", id,
			"completed", j.Completed,
			"legs", len(j.Routes),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Track(ctx, id)
}

func (s *loggingService) Journey(ctx context.Context, id cargo.TrackingID) (j voyage.Journey, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "journey",
			"tracking_id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Journey(ctx, id)
}
