// Package voyage holds the journey model reconstructed from shipment
// tracking snapshots.
package voyage

import (
	"time"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
)

// Number identifies a vessel voyage as reported by the carrier
type Number string

// VesselState is the last known state of the vessel carrying a shipment.
// A nil Position means the position is unknown or the voyage is over.
type VesselState struct {
	Name       string          `json:"name,omitempty"`
	Voyage     Number          `json:"voyage,omitempty"`
	Position   *geo.Coordinate `json:"position,omitempty"`
	ObservedAt time.Time       `json:"observed_at,omitempty"`
}

// HasPosition reports whether the vessel position is known.
func (v VesselState) HasPosition() bool {
	return v.Position != nil
}

// Snapshot is one point-in-time tracking result, normalised from whatever
// shape the tracking provider returned for the tracking method.
type Snapshot struct {
	Reference       string
	Method          TrackingMethod
	Status          Status
	Exception       string
	Origin          location.Location
	Destination     location.Location
	LastMovement    string
	ArrivalEstimate *time.Time
	Vessel          VesselState
}

// LegKind names a leg of a journey.
type LegKind string

// Leg kinds. Completed replaces Traveled and Predicted once the shipment has
// finished its voyage.
const (
	Traveled  LegKind = "traveled"
	Predicted LegKind = "predicted"
	Completed LegKind = "completed"
)

// RouteLeg is a planned sea route between two points.
type RouteLeg struct {
	Kind           LegKind
	Path           []geo.Coordinate
	DistanceMeters float64
	Duration       time.Duration
}

// TrackingStatus describes where the tracking of a shipment stands.
type TrackingStatus struct {
	Raw             string
	LastMovement    string
	ArrivalEstimate *time.Time
	Method          string
}

// Journey is the geographic model of a shipment's voyage. A Journey is built
// once per snapshot and never modified afterwards.
type Journey struct {
	Completed            bool
	DischargedFromVessel bool
	GateOut              bool
	Origin               location.Location
	Destination          location.Location
	Vessel               VesselState
	Routes               map[LegKind]RouteLeg
	Status               TrackingStatus
}

// Copy returns a journey that shares no routes, paths or positions with j.
func (j Journey) Copy() Journey {
	c := j
	c.Origin.Coordinate = copyCoordinate(j.Origin.Coordinate)
	c.Destination.Coordinate = copyCoordinate(j.Destination.Coordinate)
	c.Vessel.Position = copyCoordinate(j.Vessel.Position)
	if j.Status.ArrivalEstimate != nil {
		eta := *j.Status.ArrivalEstimate
		c.Status.ArrivalEstimate = &eta
	}
	if j.Routes != nil {
		c.Routes = make(map[LegKind]RouteLeg, len(j.Routes))
		for k, l := range j.Routes {
			l.Path = append([]geo.Coordinate(nil), l.Path...)
			c.Routes[k] = l
		}
	}
	return c
}

func copyCoordinate(p *geo.Coordinate) *geo.Coordinate {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Leg returns the leg of the given kind, if it was planned.
func (j Journey) Leg(kind LegKind) (RouteLeg, bool) {
	l, ok := j.Routes[kind]
	return l, ok
}

// Distance returns the total distance of the planned legs in meters.
func (j Journey) Distance() float64 {
	var d float64
	for _, l := range j.Routes {
		d += l.DistanceMeters
	}
	return d
}

// Projection is the vessel position to display on a map.
type Projection struct {
	Coordinate geo.Coordinate
	// Leg owns Coordinate when Snapped is true.
	Leg      LegKind
	Distance float64
	Snapped  bool
}

// DisplayPosition snaps the reported vessel position onto the closest point
// of the traveled or predicted route, so the vessel is drawn on its route.
// Without any route points the raw position is returned unsnapped. The
// second result is false when the vessel position is unknown.
func (j Journey) DisplayPosition() (Projection, bool) {
	if !j.Vessel.HasPosition() {
		return Projection{}, false
	}
	raw := *j.Vessel.Position

	p := Projection{Coordinate: raw}
	for _, kind := range []LegKind{Traveled, Predicted} {
		leg, ok := j.Routes[kind]
		if !ok {
			continue
		}
		idx, d := geo.ClosestPoint(leg.Path, raw)
		if idx < 0 {
			continue
		}
		if !p.Snapped || d < p.Distance {
			p = Projection{Coordinate: leg.Path[idx], Leg: kind, Distance: d, Snapped: true}
		}
	}
	return p, true
}
