// Package handling provides the use-case for registering incidents. Used by
// the tracking service to record carrier movements, and by operators
// reporting movements the carrier does not publish.
package handling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// ErrInvalidArgument is returned when one or more arguments are invalid.
var ErrInvalidArgument = errors.New("invalid argument")

// Service provides handling operations.
type Service interface {
	// RegisterHandlingEvent registers a handling event in the system, and
	// notifies interested parties that a cargo has been handled.
	RegisterHandlingEvent(ctx context.Context, completed time.Time, id cargo.TrackingID, voyageNumber voyage.Number,
		unLocode location.UNLcode, eventType cargo.HandlingEventType, description string) error

	// HandlingHistory returns the events registered for a cargo, oldest
	// completion first.
	HandlingHistory(ctx context.Context, id cargo.TrackingID) ([]cargo.HandlingEvent, error)
}

type service struct {
	handlingEventRepository cargo.HandlingEventRepository
	handlingEventFactory    cargo.HandlingEventFactory
	logger                  log.Logger
	now                     func() time.Time
}

func (s *service) RegisterHandlingEvent(_ context.Context, completed time.Time, id cargo.TrackingID, voyageNumber voyage.Number,
	unLocode location.UNLcode, eventType cargo.HandlingEventType, description string) error {
	if completed.IsZero() || id == "" {
		return ErrInvalidArgument
	}
	if eventType == cargo.NotHandled && strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: event needs a type or a description", ErrInvalidArgument)
	}

	e, err := s.handlingEventFactory.CreateHandlingEvent(s.now(), completed, id, voyageNumber, unLocode, eventType, description)
	if err != nil {
		if errors.Is(err, location.ErrUnknown) {
			return fmt.Errorf("%w: %v %q", ErrInvalidArgument, err, unLocode)
		}
		return err
	}

	if err := s.handlingEventRepository.Store(e); err != nil {
		return err
	}

	if c, err := s.handlingEventFactory.CargoRepository.Find(id); err == nil && !c.Itinerary.IsExpected(e) {
		level.Warn(s.logger).Log(
			"msg", "unexpected handling event",
			"tracking_id", id,
			"event_type", e.Activity.Type,
			"location", e.Activity.Location,
		)
	}

	return nil
}

func (s *service) HandlingHistory(_ context.Context, id cargo.TrackingID) ([]cargo.HandlingEvent, error) {
	if id == "" {
		return nil, ErrInvalidArgument
	}
	if _, err := s.handlingEventFactory.CargoRepository.Find(id); err != nil {
		return nil, err
	}
	h, err := s.handlingEventRepository.QueryHandlingHistory(id)
	if err != nil {
		return nil, err
	}
	return h.HandlingEvents, nil
}

// NewService creates a handling event service with necessary dependencies.
func NewService(r cargo.HandlingEventRepository, f cargo.HandlingEventFactory, logger log.Logger) Service {
	return &service{
		handlingEventRepository: r,
		handlingEventFactory:    f,
		logger:                  logger,
		now:                     time.Now,
	}
}
