package tracking

import (
	"time"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// JourneyView is the read model of a journey, ready to be drawn on a map.
type JourneyView struct {
	Completed            bool                       `json:"completed"`
	DischargedFromVessel bool                       `json:"discharged_from_vessel"`
	GateOut              bool                       `json:"gate_out"`
	Origin               location.Location          `json:"origin"`
	Destination          location.Location          `json:"destination"`
	Vessel               VesselView                 `json:"vessel"`
	Routes               map[voyage.LegKind]LegView `json:"routes"`
	Status               StatusView                 `json:"status"`
}

// VesselView is the vessel as displayed. Display is absent when the vessel
// position is unknown.
type VesselView struct {
	Name       string          `json:"name,omitempty"`
	Voyage     string          `json:"voyage,omitempty"`
	Position   *geo.Coordinate `json:"position,omitempty"`
	ObservedAt *time.Time      `json:"observed_at,omitempty"`
	Display    *DisplayView    `json:"display,omitempty"`
}

// DisplayView is the vessel position snapped onto its route.
type DisplayView struct {
	Coordinate     geo.Coordinate `json:"coordinate"`
	Leg            voyage.LegKind `json:"leg,omitempty"`
	DistanceMeters float64        `json:"distance_meters"`
	Snapped        bool           `json:"snapped"`
}

// LegView is a planned route leg. Path points are [lat, lng] pairs.
type LegView struct {
	Path           [][2]float64 `json:"path"`
	DistanceMeters float64      `json:"distance_meters"`
	DurationMillis int64        `json:"duration_ms"`
}

// StatusView describes where the tracking stands.
type StatusView struct {
	Raw             string     `json:"raw"`
	LastMovement    string     `json:"last_movement,omitempty"`
	ArrivalEstimate *time.Time `json:"arrival_estimate,omitempty"`
	TrackingMethod  string     `json:"tracking_method,omitempty"`
}

// NewJourneyView assembles the view of j.
func NewJourneyView(j voyage.Journey) JourneyView {
	v := JourneyView{
		Completed:            j.Completed,
		DischargedFromVessel: j.DischargedFromVessel,
		GateOut:              j.GateOut,
		Origin:               j.Origin,
		Destination:          j.Destination,
		Vessel: VesselView{
			Name:     j.Vessel.Name,
			Voyage:   string(j.Vessel.Voyage),
			Position: j.Vessel.Position,
		},
		Routes: make(map[voyage.LegKind]LegView, len(j.Routes)),
		Status: StatusView{
			Raw:             j.Status.Raw,
			LastMovement:    j.Status.LastMovement,
			ArrivalEstimate: j.Status.ArrivalEstimate,
			TrackingMethod:  j.Status.Method,
		},
	}
	if !j.Vessel.ObservedAt.IsZero() {
		t := j.Vessel.ObservedAt
		v.Vessel.ObservedAt = &t
	}
	if p, ok := j.DisplayPosition(); ok {
		v.Vessel.Display = &DisplayView{
			Coordinate:     p.Coordinate,
			Leg:            p.Leg,
			DistanceMeters: p.Distance,
			Snapped:        p.Snapped,
		}
	}
	for kind, leg := range j.Routes {
		path := make([][2]float64, len(leg.Path))
		for i, c := range leg.Path {
			path[i] = [2]float64{c.Lat, c.Lng}
		}
		v.Routes[kind] = LegView{
			Path:           path,
			DistanceMeters: leg.DistanceMeters,
			DurationMillis: leg.Duration.Milliseconds(),
		}
	}
	return v
}

// journey rebuilds the journey a view was assembled from. The display
// projection is derived and therefore dropped.
func (v JourneyView) journey() voyage.Journey {
	j := voyage.Journey{
		Completed:            v.Completed,
		DischargedFromVessel: v.DischargedFromVessel,
		GateOut:              v.GateOut,
		Origin:               v.Origin,
		Destination:          v.Destination,
		Vessel: voyage.VesselState{
			Name:     v.Vessel.Name,
			Voyage:   voyage.Number(v.Vessel.Voyage),
			Position: v.Vessel.Position,
		},
		Routes: make(map[voyage.LegKind]voyage.RouteLeg, len(v.Routes)),
		Status: voyage.TrackingStatus{
			Raw:             v.Status.Raw,
			LastMovement:    v.Status.LastMovement,
			ArrivalEstimate: v.Status.ArrivalEstimate,
			Method:          v.Status.TrackingMethod,
		},
	}
	if v.Vessel.ObservedAt != nil {
		j.Vessel.ObservedAt = *v.Vessel.ObservedAt
	}
	for kind, leg := range v.Routes {
		path := make([]geo.Coordinate, len(leg.Path))
		for i, p := range leg.Path {
			path[i] = geo.Coordinate{Lat: p[0], Lng: p[1]}
		}
		j.Routes[kind] = voyage.RouteLeg{
			Kind:           kind,
			Path:           path,
			DistanceMeters: leg.DistanceMeters,
			Duration:       time.Duration(leg.DurationMillis) * time.Millisecond,
		}
	}
	return j
}
