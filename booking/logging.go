package booking

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

func (s *loggingService) RegisterCargo(ctx context.Context, reference, carrier string, method voyage.TrackingMethod) (id cargo.TrackingID, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "register",
			"reference", reference,
			"carrier", carrier,
			"tracking_type", method,
			"tracking_id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.RegisterCargo(ctx, reference, carrier, method)
}

func (s *loggingService) LoadCargo(ctx context.Context, id cargo.TrackingID) (c Cargo, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "load",
			"tracking_id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.LoadCargo(ctx, id)
}

func (s *loggingService) Cargos(ctx context.Context) (cargos []Cargo, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "list_cargos",
			"count", len(cargos),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Cargos(ctx)
}

func (s *loggingService) Locations(ctx context.Context) []Location {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "list_locations",
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.Service.Locations(ctx)
}
