// Package cargo contains the heart of the domain model: the containers we
// track and the movements observed for them.
package cargo

import (
	"errors"
	"strings"
	"time"

	"github.com/pborman/uuid"

	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// TrackingID uniquely identifies a cargo
type TrackingID string

// Cargo is a container, bill of lading, booking or vessel registered for
// tracking.
type Cargo struct {
	TrackingID      TrackingID            `json:"tracking_id" bson:"_id"`
	Reference       string                `json:"reference" bson:"reference"`
	Carrier         string                `json:"carrier" bson:"carrier"`
	Method          voyage.TrackingMethod `json:"tracking_type" bson:"tracking_type"`
	ShipmentID      string                `json:"shipment_id,omitempty" bson:"shipment_id,omitempty"`
	Itinerary       Itinerary             `json:"itinerary" bson:"itinerary"`
	Status          TransportStatus       `json:"transport_status" bson:"transport_status"`
	LastMovement    string                `json:"last_movement,omitempty" bson:"last_movement,omitempty"`
	ArrivalEstimate *time.Time            `json:"arrival_estimate,omitempty" bson:"arrival_estimate,omitempty"`
	RegisteredAt    time.Time             `json:"registered_at" bson:"registered_at"`
	UpdatedAt       time.Time             `json:"updated_at" bson:"updated_at"`
}

// New creates a new, untracked cargo.
func New(id TrackingID, reference, carrier string, method voyage.TrackingMethod, now time.Time) *Cargo {
	return &Cargo{
		TrackingID:   id,
		Reference:    strings.TrimSpace(reference),
		Carrier:      strings.TrimSpace(carrier),
		Method:       method,
		Status:       NotReceived,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
}

// AssignShipment attaches the tracking provider's shipment id to the cargo.
func (c *Cargo) AssignShipment(id string, now time.Time) {
	c.ShipmentID = id
	c.UpdatedAt = now
}

// DeriveTrackingProgress updates the cargo from a tracking snapshot. Ports
// the snapshot does not report are kept.
func (c *Cargo) DeriveTrackingProgress(s voyage.Snapshot, now time.Time) {
	if s.Origin.Label() != "" {
		c.Itinerary.Origin = s.Origin
	}
	if s.Destination.Label() != "" {
		c.Itinerary.Destination = s.Destination
	}
	if s.Vessel.Name != "" {
		c.Itinerary.Vessel = s.Vessel.Name
		c.Itinerary.VoyageNumber = s.Vessel.Voyage
	}
	if s.LastMovement != "" {
		c.LastMovement = s.LastMovement
	}
	if s.ArrivalEstimate != nil {
		eta := *s.ArrivalEstimate
		c.ArrivalEstimate = &eta
	}
	c.Status = DeriveTransportStatus(journey.Classify(s))
	c.UpdatedAt = now
}

// Repository provides access to cargo store
type Repository interface {
	Store(cargo *Cargo) error
	Find(id TrackingID) (*Cargo, error)
	FindAll() ([]*Cargo, error)
}

// ErrUnknown is used when a cargo can't be found
var ErrUnknown = errors.New("unknown cargo")

// NextTrackingID generates a new tracking ID.
func NextTrackingID() TrackingID {
	return TrackingID(strings.Split(strings.ToUpper(uuid.New()), "-")[0])
}
