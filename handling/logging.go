package handling

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/location"
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

func (s *loggingService) RegisterHandlingEvent(ctx context.Context, completed time.Time, id cargo.TrackingID, voyageNumber voyage.Number,
	unLocode location.UNLcode, eventType cargo.HandlingEventType, description string) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "register_incident",
			"tracking_id", id,
			"location", unLocode,
			"voyage", voyageNumber,
			"event_type", eventType,
			"completion_time", completed,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.RegisterHandlingEvent(ctx, completed, id, voyageNumber, unLocode, eventType, description)
}

func (s *loggingService) HandlingHistory(ctx context.Context, id cargo.TrackingID) (events []cargo.HandlingEvent, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "handling_history",
			"tracking_id", id,
			"events", len(events),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.HandlingHistory(ctx, id)
}
