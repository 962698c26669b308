// Package tracking provides the use-case of following a cargo on its voyage:
// starting the carrier tracking, polling it, and turning the outcome into a
// journey that can be drawn on a map.
package tracking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/tracker"
	"github.com/Qalifah/voyage-tracker/voyage"
)

var (
	// ErrInvalidArgument is returned when one or more arguments are invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoJourney is returned when a cargo has not been tracked successfully yet.
	ErrNoJourney = errors.New("no journey")
)

// Service is the interface that provides the basic Track method.
type Service interface {
	// Track polls the carrier for the cargo and reconstructs its journey.
	// On failure the last journey of the cargo is kept.
	Track(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error)

	// Journey returns the last journey reconstructed for the cargo.
	Journey(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error)
}

// Poller waits for a tracking to settle.
type Poller interface {
	Poll(ctx context.Context, id string) (voyage.Snapshot, error)
}

// Reconstructor turns a snapshot into a journey.
type Reconstructor interface {
	Reconstruct(ctx context.Context, s voyage.Snapshot) (voyage.Journey, error)
}

type service struct {
	cargos        cargo.Repository
	events        cargo.HandlingEventRepository
	tracker       tracker.Service
	poller        Poller
	reconstructor Reconstructor
	logger        log.Logger
	now           func() time.Time

	mtx      sync.RWMutex
	journeys map[cargo.TrackingID]voyage.Journey
}

func (s *service) Track(ctx context.Context, id cargo.TrackingID) (voyage.Journey, error) {
	if id == "" {
		return voyage.Journey{}, ErrInvalidArgument
	}

	c, err := s.cargos.Find(id)
	if err != nil {
		return voyage.Journey{}, err
	}

	logger := log.With(s.logger, "session", uuid.New().String(), "tracking_id", id)

	if c.ShipmentID == "" {
		shipmentID, err := s.tracker.CreateTracking(ctx, tracker.Request{
			Reference: c.Reference,
			Carrier:   c.Carrier,
			Method:    c.Method,
		})
		if err != nil {
			return voyage.Journey{}, err
		}
		c.AssignShipment(shipmentID, s.now())
		if err := s.cargos.Store(c); err != nil {
			return voyage.Journey{}, err
		}
		level.Debug(logger).Log("msg", "tracking created", "shipment_id", shipmentID)
	}

	snapshot, err := s.poller.Poll(ctx, c.ShipmentID)
	if err != nil {
		if errors.Is(err, tracker.ErrTrackingFailed) || errors.Is(err, tracker.ErrPollTimeout) {
			// the next attempt starts a new tracking
			c.AssignShipment("", s.now())
			if serr := s.cargos.Store(c); serr != nil {
				level.Warn(logger).Log("msg", "shipment not released", "err", serr)
			}
			level.Debug(logger).Log("msg", "shipment released", "err", err)
		}
		return voyage.Journey{}, err
	}
	snapshot.Reference = c.Reference

	now := s.now()
	if err := s.recordMovement(id, snapshot, now); err != nil {
		level.Warn(logger).Log("msg", "movement not recorded", "err", err)
	}

	c.DeriveTrackingProgress(snapshot, now)
	if err := s.cargos.Store(c); err != nil {
		return voyage.Journey{}, err
	}

	j, err := s.reconstructor.Reconstruct(ctx, snapshot)
	if err != nil {
		return voyage.Journey{}, err
	}

	s.mtx.Lock()
	s.journeys[id] = j.Copy()
	s.mtx.Unlock()

	level.Debug(logger).Log("msg", "journey reconstructed", "legs", len(j.Routes), "completed", j.Completed)

	return j, nil
}

// recordMovement appends the snapshot's last movement to the cargo's
// handling history unless it repeats the most recent one.
func (s *service) recordMovement(id cargo.TrackingID, snapshot voyage.Snapshot, now time.Time) error {
	e, ok := cargo.EventFromSnapshot(id, snapshot, now)
	if !ok {
		return nil
	}
	h, err := s.events.QueryHandlingHistory(id)
	if err != nil {
		return err
	}
	if last, err := h.MostRecentlyCompletedEvent(); err == nil && last.Description == e.Description {
		return nil
	}
	return s.events.Store(e)
}

func (s *service) Journey(_ context.Context, id cargo.TrackingID) (voyage.Journey, error) {
	if id == "" {
		return voyage.Journey{}, ErrInvalidArgument
	}

	s.mtx.RLock()
	j, ok := s.journeys[id]
	s.mtx.RUnlock()
	if ok {
		return j.Copy(), nil
	}

	if _, err := s.cargos.Find(id); err != nil {
		return voyage.Journey{}, err
	}
	return voyage.Journey{}, ErrNoJourney
}

// NewService returns a new instance of the tracking Service.
func NewService(cargos cargo.Repository, events cargo.HandlingEventRepository, ts tracker.Service, p Poller, r Reconstructor, logger log.Logger) Service {
	return &service{
		cargos:        cargos,
		events:        events,
		tracker:       ts,
		poller:        p,
		reconstructor: r,
		logger:        logger,
		now:           time.Now,
		journeys:      make(map[cargo.TrackingID]voyage.Journey),
	}
}
