package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type positionPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type vesselPayload struct {
	Name       string           `json:"name"`
	Voyage     string           `json:"voyage"`
	Position   *positionPayload `json:"position"`
	ObservedAt *time.Time       `json:"observedAt"`
}

type containerPayload struct {
	Number                       string         `json:"number"`
	LastMovementEventDescription string         `json:"lastMovementEventDescription"`
	ArrivalEstimate              *time.Time     `json:"arrivalEstimate"`
	CurrentVessel                *vesselPayload `json:"currentVessel"`
}

// detailsPayload holds the union of every tracking method's fields;
// Typename says which of them are set.
type detailsPayload struct {
	Typename string `json:"__typename"`

	Pol                          string             `json:"pol"`
	Pod                          string             `json:"pod"`
	LastMovementEventDescription string             `json:"lastMovementEventDescription"`
	ArrivalEstimate              *time.Time         `json:"arrivalEstimate"`
	CurrentVessel                *vesselPayload     `json:"currentVessel"`
	Containers                   []containerPayload `json:"containers"`

	Vessel   *vesselPayload `json:"vessel"`
	LastPort string         `json:"lastPort"`
	NextPort string         `json:"nextPort"`
	ETA      *time.Time     `json:"eta"`
}

type trackingPayload struct {
	ID           string          `json:"id"`
	Reference    string          `json:"reference"`
	Status       string          `json:"status"`
	Exception    string          `json:"exception"`
	TrackingType string          `json:"trackingType"`
	Details      *detailsPayload `json:"details"`
}

// snapshot normalises the payload of any tracking method into a Snapshot.
func (p trackingPayload) snapshot() (voyage.Snapshot, error) {
	s := voyage.Snapshot{
		Reference: p.Reference,
		Status:    voyage.ParseStatus(p.Status),
		Exception: p.Exception,
	}

	methodName := p.TrackingType
	if p.Details != nil && p.Details.Typename != "" {
		methodName = p.Details.Typename
	}
	if methodName == "" {
		// nothing tracked yet
		return s, nil
	}
	method, err := voyage.ParseTrackingMethod(methodName)
	if err != nil {
		return voyage.Snapshot{}, fmt.Errorf("%w: %q", err, methodName)
	}
	s.Method = method

	d := p.Details
	if d == nil {
		return s, nil
	}

	switch method {
	case voyage.ContainerTracking:
		s.Origin = port(d.Pol)
		s.Destination = port(d.Pod)
		s.LastMovement = d.LastMovementEventDescription
		s.ArrivalEstimate = copyTime(d.ArrivalEstimate)
		s.Vessel = vesselState(d.CurrentVessel)

	case voyage.BLTracking, voyage.BookingTracking:
		s.Origin = port(d.Pol)
		s.Destination = port(d.Pod)
		if c, ok := pickContainer(d.Containers); ok {
			s.LastMovement = c.LastMovementEventDescription
			s.ArrivalEstimate = copyTime(c.ArrivalEstimate)
			s.Vessel = vesselState(c.CurrentVessel)
		}

	case voyage.VesselTracking:
		s.Origin = port(d.LastPort)
		s.Destination = port(d.NextPort)
		s.LastMovement = d.LastMovementEventDescription
		s.ArrivalEstimate = copyTime(d.ETA)
		s.Vessel = vesselState(d.Vessel)
	}

	return s, nil
}

// pickContainer returns the first container whose vessel position is known,
// or the first container.
func pickContainer(cs []containerPayload) (containerPayload, bool) {
	if len(cs) == 0 {
		return containerPayload{}, false
	}
	for _, c := range cs {
		if vesselState(c.CurrentVessel).HasPosition() {
			return c, true
		}
	}
	return cs[0], true
}

func port(name string) location.Location {
	return location.Location{Name: strings.TrimSpace(name)}
}

func vesselState(v *vesselPayload) voyage.VesselState {
	if v == nil {
		return voyage.VesselState{}
	}
	s := voyage.VesselState{
		Name:   strings.TrimSpace(v.Name),
		Voyage: voyage.Number(v.Voyage),
	}
	if v.ObservedAt != nil {
		s.ObservedAt = *v.ObservedAt
	}
	if p := v.Position; p != nil && p.Lat != nil && p.Lng != nil {
		c := geo.Coordinate{Lat: *p.Lat, Lng: *p.Lng}
		if c.Valid() {
			s.Position = &c
		}
	}
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
