// Package booking provides the use-case of registering shipments for
// tracking. Used by the operators registering containers, bills of lading,
// bookings and vessels with their carriers.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// ErrInvalidArgument is returned when one or more arguments are invalid.
var ErrInvalidArgument = errors.New("invalid argument")

// Service is the interface that provides booking methods.
type Service interface {
	// RegisterCargo registers a tracking reference with its carrier and
	// returns the tracking id the cargo is known by from then on.
	RegisterCargo(ctx context.Context, reference, carrier string, method voyage.TrackingMethod) (cargo.TrackingID, error)

	// LoadCargo returns a read model of a cargo.
	LoadCargo(ctx context.Context, id cargo.TrackingID) (Cargo, error)

	// Cargos returns a list of all cargos that have been registered.
	Cargos(ctx context.Context) ([]Cargo, error)

	// Locations returns a list of known ports.
	Locations(ctx context.Context) []Location
}

type registration struct {
	Reference string `validate:"required,max=64,printascii"`
	Carrier   string `validate:"required,max=32"`
}

type service struct {
	cargos    cargo.Repository
	locations location.Repository
	validate  *validator.Validate
	now       func() time.Time
}

func (s *service) RegisterCargo(_ context.Context, reference, carrier string, method voyage.TrackingMethod) (cargo.TrackingID, error) {
	r := registration{
		Reference: strings.TrimSpace(reference),
		Carrier:   strings.TrimSpace(carrier),
	}
	if err := s.validate.Struct(r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if method.String() == "" {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, voyage.ErrInvalidTrackingMethod)
	}

	id := cargo.NextTrackingID()
	c := cargo.New(id, r.Reference, r.Carrier, method, s.now())

	if err := s.cargos.Store(c); err != nil {
		return "", err
	}

	return c.TrackingID, nil
}

func (s *service) LoadCargo(_ context.Context, id cargo.TrackingID) (Cargo, error) {
	if id == "" {
		return Cargo{}, ErrInvalidArgument
	}

	c, err := s.cargos.Find(id)
	if err != nil {
		return Cargo{}, err
	}

	return assemble(c), nil
}

func (s *service) Cargos(context.Context) ([]Cargo, error) {
	all, err := s.cargos.FindAll()
	if err != nil {
		return nil, err
	}
	result := make([]Cargo, 0, len(all))
	for _, c := range all {
		result = append(result, assemble(c))
	}
	return result, nil
}

func (s *service) Locations(context.Context) []Location {
	var result []Location
	for _, l := range s.locations.FindAll() {
		result = append(result, Location{
			UNLocode:   string(l.UNLcode),
			Name:       l.Name,
			Coordinate: l.Coordinate,
		})
	}
	return result
}

// NewService creates a booking service with necessary dependencies.
func NewService(cargos cargo.Repository, locations location.Repository) Service {
	return &service{
		cargos:    cargos,
		locations: locations,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Location is a read model for booking views.
type Location struct {
	UNLocode   string          `json:"locode"`
	Name       string          `json:"name"`
	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
}

// Cargo is a read model for booking views.
type Cargo struct {
	TrackingID      string     `json:"tracking_id"`
	Reference       string     `json:"reference"`
	Carrier         string     `json:"carrier"`
	TrackingType    string     `json:"tracking_type"`
	ShipmentID      string     `json:"shipment_id,omitempty"`
	Origin          string     `json:"origin,omitempty"`
	Destination     string     `json:"destination,omitempty"`
	Vessel          string     `json:"vessel,omitempty"`
	VoyageNumber    string     `json:"voyage_number,omitempty"`
	TransportStatus string     `json:"transport_status"`
	LastMovement    string     `json:"last_movement,omitempty"`
	ArrivalEstimate *time.Time `json:"arrival_estimate,omitempty"`
	RegisteredAt    time.Time  `json:"registered_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func assemble(c *cargo.Cargo) Cargo {
	return Cargo{
		TrackingID:      string(c.TrackingID),
		Reference:       c.Reference,
		Carrier:         c.Carrier,
		TrackingType:    c.Method.String(),
		ShipmentID:      c.ShipmentID,
		Origin:          c.Itinerary.Origin.Label(),
		Destination:     c.Itinerary.Destination.Label(),
		Vessel:          c.Itinerary.Vessel,
		VoyageNumber:    string(c.Itinerary.VoyageNumber),
		TransportStatus: c.Status.String(),
		LastMovement:    c.LastMovement,
		ArrivalEstimate: c.ArrivalEstimate,
		RegisteredAt:    c.RegisteredAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
