// Package journey reconstructs a vessel journey from a shipment tracking
// snapshot.
package journey

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/routing"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// ErrInsufficientTrackingData is returned when a snapshot has neither a
// vessel position nor a sign that the voyage is over.
var ErrInsufficientTrackingData = errors.New("insufficient tracking data")

// State classifies a snapshot.
type State int

// valid states
const (
	AwaitingData State = iota
	Completed
	Active
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingData:
		return "Awaiting Data"
	case Completed:
		return "Completed"
	case Active:
		return "Active"
	case Failed:
		return "Failed"
	}
	return ""
}

// Completion tells how a completed voyage ended.
type Completion struct {
	DischargedFromVessel bool
	GateOut              bool
}

// completionKeywords mark a last movement that ends the sea voyage.
var completionKeywords = []string{
	"discharge from vessel",
	"delivered",
	"arrived at destination",
	"available for pickup",
	"empty return",
	"import gate out",
	"gate out",
}

// Classify decides which state a snapshot puts the journey in.
func Classify(s voyage.Snapshot) (State, Completion) {
	switch {
	case !s.Vessel.HasPosition() && IsComplete(s.LastMovement):
		movement := strings.ToLower(s.LastMovement)
		return Completed, Completion{
			DischargedFromVessel: strings.Contains(movement, "discharge from vessel"),
			GateOut:              strings.Contains(movement, "gate out"),
		}
	case s.Vessel.HasPosition():
		return Active, Completion{}
	case s.Status == voyage.TrackQueued || s.Status == voyage.IsTracking:
		return AwaitingData, Completion{}
	}
	return Failed, Completion{}
}

// IsComplete reports whether a last movement description ends the voyage.
func IsComplete(lastMovement string) bool {
	movement := strings.ToLower(lastMovement)
	for _, kw := range completionKeywords {
		if strings.Contains(movement, kw) {
			return true
		}
	}
	return false
}

// Reconstructor builds journeys from snapshots.
type Reconstructor struct {
	resolver location.Resolver
	planner  routing.Service
	logger   log.Logger
}

// NewReconstructor returns a Reconstructor resolving ports with resolver and
// planning legs with planner.
func NewReconstructor(resolver location.Resolver, planner routing.Service, logger log.Logger) *Reconstructor {
	return &Reconstructor{resolver: resolver, planner: planner, logger: logger}
}

// Reconstruct builds the journey described by s. Ports that can't be
// resolved and legs that can't be planned are left out of the journey; the
// only error is ErrInsufficientTrackingData.
func (r *Reconstructor) Reconstruct(ctx context.Context, s voyage.Snapshot) (voyage.Journey, error) {
	state, completion := Classify(s)

	switch state {
	case Completed:
		origin, destination := r.resolvePorts(ctx, s.Origin, s.Destination)
		j := newJourney(s, origin, destination)
		j.Completed = true
		j.DischargedFromVessel = completion.DischargedFromVessel
		j.GateOut = completion.GateOut
		if origin.Resolved() && destination.Resolved() {
			if leg, ok := r.planLeg(ctx, voyage.Completed, *origin.Coordinate, *destination.Coordinate); ok {
				j.Routes[voyage.Completed] = leg
			}
		}
		return j, nil

	case Active:
		origin, destination := r.resolvePorts(ctx, s.Origin, s.Destination)
		j := newJourney(s, origin, destination)
		position := *s.Vessel.Position

		var (
			wg                  sync.WaitGroup
			traveled, predicted voyage.RouteLeg
			hasTrav, hasPred    bool
		)
		if origin.Resolved() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				traveled, hasTrav = r.planLeg(ctx, voyage.Traveled, *origin.Coordinate, position)
			}()
		}
		if destination.Resolved() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				predicted, hasPred = r.planLeg(ctx, voyage.Predicted, position, *destination.Coordinate)
			}()
		}
		wg.Wait()

		if hasTrav {
			j.Routes[voyage.Traveled] = traveled
		}
		if hasPred {
			j.Routes[voyage.Predicted] = predicted
		}
		return j, nil
	}

	return voyage.Journey{}, ErrInsufficientTrackingData
}

func newJourney(s voyage.Snapshot, origin, destination location.Location) voyage.Journey {
	vessel := s.Vessel
	if vessel.Position != nil {
		p := *vessel.Position
		vessel.Position = &p
	}
	status := voyage.TrackingStatus{
		Raw:          s.Status.String(),
		LastMovement: s.LastMovement,
		Method:       s.Method.String(),
	}
	if s.ArrivalEstimate != nil {
		eta := *s.ArrivalEstimate
		status.ArrivalEstimate = &eta
	}
	return voyage.Journey{
		Origin:      origin,
		Destination: destination,
		Vessel:      vessel,
		Routes:      make(map[voyage.LegKind]voyage.RouteLeg, 2),
		Status:      status,
	}
}

// resolvePorts resolves both ports concurrently. A port that can't be
// resolved is returned without a coordinate.
func (r *Reconstructor) resolvePorts(ctx context.Context, origin, destination location.Location) (location.Location, location.Location) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		origin = r.resolvePort(ctx, "origin", origin)
	}()
	go func() {
		defer wg.Done()
		destination = r.resolvePort(ctx, "destination", destination)
	}()
	wg.Wait()
	return origin, destination
}

func (r *Reconstructor) resolvePort(ctx context.Context, role string, l location.Location) location.Location {
	if l.Resolved() {
		return l.WithCoordinate(*l.Coordinate)
	}
	name := l.Label()
	if name == "" {
		level.Warn(r.logger).Log("msg", "port not reported", "port", role)
		return l
	}
	c, err := r.resolver.Resolve(ctx, name)
	if err != nil {
		level.Warn(r.logger).Log("msg", "port not resolved", "port", role, "name", name, "err", err)
		return l
	}
	return l.WithCoordinate(c)
}

func (r *Reconstructor) planLeg(ctx context.Context, kind voyage.LegKind, from, to geo.Coordinate) (voyage.RouteLeg, bool) {
	leg, err := r.planner.PlanRoute(ctx, from, to)
	if err != nil {
		level.Warn(r.logger).Log("msg", "leg not planned", "leg", kind, "from", from, "to", to, "err", err)
		return voyage.RouteLeg{}, false
	}
	leg.Kind = kind
	leg.Path = append([]geo.Coordinate(nil), leg.Path...)
	return leg, true
}
