package tracker

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

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

func (s *loggingService) CreateTracking(ctx context.Context, req Request) (id string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "create_tracking",
			"reference", req.Reference,
			"carrier", req.Carrier,
			"tracking_type", req.Method,
			"id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.CreateTracking(ctx, req)
}

func (s *loggingService) Tracking(ctx context.Context, id string) (snap voyage.Snapshot, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "tracking",
			"id", id,
			"status", snap.Status,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Tracking(ctx, id)
}
