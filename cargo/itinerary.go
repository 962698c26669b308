package cargo

import (
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// Itinerary is the sea voyage of a cargo as last reported by the carrier:
// the port of loading, the port of discharge and the vessel carrying it.
type Itinerary struct {
	Origin       location.Location `json:"pol" bson:"pol"`
	Destination  location.Location `json:"pod" bson:"pod"`
	Vessel       string            `json:"vessel,omitempty" bson:"vessel,omitempty"`
	VoyageNumber voyage.Number     `json:"voyage_number,omitempty" bson:"voyage_number,omitempty"`
}

// IsEmpty checks if the itinerary knows neither port
func (i Itinerary) IsEmpty() bool {
	return i.Origin.Label() == "" && i.Destination.Label() == ""
}

// InitialDepartureLocation returns the start of the itinerary
func (i Itinerary) InitialDepartureLocation() location.Location {
	return i.Origin
}

// FinalArrivalLocation returns the end of the itinerary
func (i Itinerary) FinalArrivalLocation() location.Location {
	return i.Destination
}

// IsExpected checks if the given handling event is expected when executing
// this itinerary. Events without a location, or on an itinerary without
// ports, are always expected.
func (i Itinerary) IsExpected(event HandlingEvent) bool {
	if i.IsEmpty() || event.Activity.Location == "" {
		return true
	}
	switch event.Activity.Type {
	case Load, Receive:
		return sameCode(i.Origin, event.Activity.Location)
	case Unload, Claim:
		return sameCode(i.Destination, event.Activity.Location)
	}
	return true
}

func sameCode(l location.Location, code location.UNLcode) bool {
	if l.UNLcode == "" {
		return true
	}
	return l.UNLcode == code
}
