// Package tracker talks to the shipment tracking provider: it registers
// shipments for tracking and polls them until the provider has an answer.
package tracker

import (
	"context"
	"errors"

	"github.com/Qalifah/voyage-tracker/voyage"
)

var (
	// ErrPollTimeout is returned when the poll budget runs out before the
	// provider reaches a terminal status.
	ErrPollTimeout = errors.New("tracking poll timed out")

	// ErrTrackingRequest is returned when the provider rejects a request.
	ErrTrackingRequest = errors.New("tracking request failed")

	// ErrTrackingFailed is returned when the provider gave up tracking a
	// shipment.
	ErrTrackingFailed = errors.New("tracking failed")
)

// Request describes a shipment to track.
type Request struct {
	Reference string
	Carrier   string
	Method    voyage.TrackingMethod
}

// Service provides access to the shipment tracking provider.
type Service interface {
	// CreateTracking registers a shipment and returns the provider's
	// tracking id.
	CreateTracking(ctx context.Context, req Request) (string, error)

	// Tracking returns the current state of a registered shipment.
	Tracking(ctx context.Context, id string) (voyage.Snapshot, error)
}
