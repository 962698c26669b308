package journey

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/routing"
	"github.com/Qalifah/voyage-tracker/voyage"
)

var (
	shanghai  = geo.Coordinate{Lat: 31.36, Lng: 121.615}
	singapore = geo.Coordinate{Lat: 1.264, Lng: 103.84}
	atSea     = geo.Coordinate{Lat: 15.2, Lng: 112.7}
)

type fakeResolver map[string]geo.Coordinate

func (r fakeResolver) Resolve(_ context.Context, name string) (geo.Coordinate, error) {
	c, ok := r[name]
	if !ok {
		return geo.Coordinate{}, location.ErrUnknown
	}
	return c, nil
}

// straightPlanner plans a three point route and records the requests it saw.
type straightPlanner struct {
	mtx   sync.Mutex
	calls [][2]geo.Coordinate
	fail  map[geo.Coordinate]bool
}

func (p *straightPlanner) PlanRoute(_ context.Context, from, to geo.Coordinate) (voyage.RouteLeg, error) {
	p.mtx.Lock()
	p.calls = append(p.calls, [2]geo.Coordinate{from, to})
	p.mtx.Unlock()

	if p.fail[from] || p.fail[to] {
		return voyage.RouteLeg{}, routing.ErrNoRoute
	}
	mid := geo.Coordinate{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}
	path := []geo.Coordinate{from, mid, to}
	meters := geo.Length(path)
	return voyage.RouteLeg{Path: path, DistanceMeters: meters, Duration: routing.EstimateDuration(meters, routing.DefaultPace)}, nil
}

func activeSnapshot() voyage.Snapshot {
	pos := atSea
	eta := time.Date(2026, 11, 2, 8, 0, 0, 0, time.UTC)
	return voyage.Snapshot{
		Reference:       "MSKU1234565",
		Method:          voyage.ContainerTracking,
		Status:          voyage.TrackSucceeded,
		Origin:          location.Location{Name: "Shanghai"},
		Destination:     location.Location{Name: "Singapore"},
		LastMovement:    "Vessel departed origin",
		ArrivalEstimate: &eta,
		Vessel:          voyage.VesselState{Name: "MAERSK KOWLOON", Position: &pos, ObservedAt: eta.Add(-72 * time.Hour)},
	}
}

func completedSnapshot() voyage.Snapshot {
	s := activeSnapshot()
	s.LastMovement = "Discharge From Vessel at Singapore"
	s.Vessel.Position = nil
	return s
}

func TestClassify(t *testing.T) {
	pos := atSea
	tests := []struct {
		name       string
		movement   string
		position   *geo.Coordinate
		status     voyage.Status
		state      State
		completion Completion
	}{
		{"discharge", "Discharge From Vessel at Port X", nil, voyage.TrackSucceeded, Completed, Completion{DischargedFromVessel: true}},
		{"import gate out", "Import Gate Out", nil, voyage.TrackSucceeded, Completed, Completion{GateOut: true}},
		{"gate out", "GATE OUT empty", nil, voyage.TrackSucceeded, Completed, Completion{GateOut: true}},
		{"delivered", "Delivered to consignee", nil, voyage.TrackSucceeded, Completed, Completion{}},
		{"arrived", "Arrived at destination", nil, voyage.TrackSucceeded, Completed, Completion{}},
		{"pickup", "Available for pickup", nil, voyage.TrackSucceeded, Completed, Completion{}},
		{"empty return", "Empty return to depot", nil, voyage.TrackSucceeded, Completed, Completion{}},
		{"departed with position", "Vessel departed origin", &pos, voyage.TrackSucceeded, Active, Completion{}},
		{"completed text with position", "Discharge from vessel", &pos, voyage.TrackSucceeded, Active, Completion{}},
		{"departed without position", "Vessel departed origin", nil, voyage.TrackSucceeded, Failed, Completion{}},
		{"unknown status without position", "Vessel departed origin", nil, voyage.StatusUnknown, Failed, Completion{}},
		{"still tracking", "", nil, voyage.IsTracking, AwaitingData, Completion{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := voyage.Snapshot{Status: tt.status, LastMovement: tt.movement, Vessel: voyage.VesselState{Position: tt.position}}
			state, completion := Classify(s)
			if state != tt.state {
				t.Errorf("state = %v, expected %v", state, tt.state)
			}
			if completion != tt.completion {
				t.Errorf("completion = %+v, expected %+v", completion, tt.completion)
			}
		})
	}
}

func TestReconstructActive(t *testing.T) {
	planner := &straightPlanner{}
	r := NewReconstructor(fakeResolver{"Shanghai": shanghai, "Singapore": singapore}, planner, log.NewNopLogger())

	j, err := r.Reconstruct(context.Background(), activeSnapshot())
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if j.Completed {
		t.Error("journey should not be completed")
	}
	if len(j.Routes) != 2 {
		t.Fatalf("got %d routes, expected 2", len(j.Routes))
	}

	traveled, _ := j.Leg(voyage.Traveled)
	if traveled.Kind != voyage.Traveled || traveled.Path[0] != shanghai || traveled.Path[2] != atSea {
		t.Errorf("traveled leg = %+v", traveled)
	}
	predicted, _ := j.Leg(voyage.Predicted)
	if predicted.Kind != voyage.Predicted || predicted.Path[0] != atSea || predicted.Path[2] != singapore {
		t.Errorf("predicted leg = %+v", predicted)
	}
	if predicted.Duration != routing.EstimateDuration(predicted.DistanceMeters, routing.DefaultPace) {
		t.Errorf("predicted duration = %v", predicted.Duration)
	}
	if *j.Origin.Coordinate != shanghai || *j.Destination.Coordinate != singapore {
		t.Errorf("ports = %v, %v", j.Origin, j.Destination)
	}
	if j.Status.Raw != "Track-Succeeded" || j.Status.Method != "ContainerTracking" || j.Status.LastMovement != "Vessel departed origin" {
		t.Errorf("status = %+v", j.Status)
	}

	p, ok := j.DisplayPosition()
	if !ok || !p.Snapped || p.Coordinate != atSea || p.Distance != 0 {
		t.Errorf("display position = %+v, %v", p, ok)
	}
}

func TestReconstructCompleted(t *testing.T) {
	planner := &straightPlanner{}
	r := NewReconstructor(fakeResolver{"Shanghai": shanghai, "Singapore": singapore}, planner, log.NewNopLogger())

	j, err := r.Reconstruct(context.Background(), completedSnapshot())
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if !j.Completed || !j.DischargedFromVessel || j.GateOut {
		t.Errorf("journey flags = completed %v, discharged %v, gate out %v", j.Completed, j.DischargedFromVessel, j.GateOut)
	}
	if len(j.Routes) != 1 {
		t.Fatalf("got %d routes, expected 1", len(j.Routes))
	}
	leg, ok := j.Leg(voyage.Completed)
	if !ok || leg.Path[0] != shanghai || leg.Path[len(leg.Path)-1] != singapore {
		t.Errorf("completed leg = %+v", leg)
	}
	if _, ok := j.DisplayPosition(); ok {
		t.Error("completed journey without position should have no display position")
	}
}

func TestReconstructInsufficientData(t *testing.T) {
	planner := &straightPlanner{}
	r := NewReconstructor(fakeResolver{"Shanghai": shanghai, "Singapore": singapore}, planner, log.NewNopLogger())

	s := activeSnapshot()
	s.Vessel.Position = nil

	_, err := r.Reconstruct(context.Background(), s)
	if !errors.Is(err, ErrInsufficientTrackingData) {
		t.Fatalf("error = %v, expected ErrInsufficientTrackingData", err)
	}
	if len(planner.calls) != 0 {
		t.Errorf("planner called %d times, expected 0", len(planner.calls))
	}
}

func TestReconstructPartialFailures(t *testing.T) {
	tests := []struct {
		name       string
		originOK   bool
		destOK     bool
		completed  bool
		expected   []voyage.LegKind
		plannerHit int
	}{
		{"active both resolve", true, true, false, []voyage.LegKind{voyage.Traveled, voyage.Predicted}, 2},
		{"active origin only", true, false, false, []voyage.LegKind{voyage.Traveled}, 1},
		{"active destination only", false, true, false, []voyage.LegKind{voyage.Predicted}, 1},
		{"active neither", false, false, false, nil, 0},
		{"completed both resolve", true, true, true, []voyage.LegKind{voyage.Completed}, 1},
		{"completed origin only", true, false, true, nil, 0},
		{"completed destination only", false, true, true, nil, 0},
		{"completed neither", false, false, true, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := fakeResolver{}
			if tt.originOK {
				resolver["Shanghai"] = shanghai
			}
			if tt.destOK {
				resolver["Singapore"] = singapore
			}
			planner := &straightPlanner{}
			r := NewReconstructor(resolver, planner, log.NewNopLogger())

			s := activeSnapshot()
			if tt.completed {
				s = completedSnapshot()
			}

			j, err := r.Reconstruct(context.Background(), s)
			if err != nil {
				t.Fatalf("Reconstruct: %v", err)
			}
			if j.Completed != tt.completed {
				t.Errorf("Completed = %v, expected %v", j.Completed, tt.completed)
			}
			if len(j.Routes) != len(tt.expected) {
				t.Errorf("got %d routes, expected %v", len(j.Routes), tt.expected)
			}
			for _, kind := range tt.expected {
				if _, ok := j.Leg(kind); !ok {
					t.Errorf("missing %s leg", kind)
				}
			}
			if len(planner.calls) != tt.plannerHit {
				t.Errorf("planner called %d times, expected %d", len(planner.calls), tt.plannerHit)
			}
			if j.Origin.Resolved() != tt.originOK || j.Destination.Resolved() != tt.destOK {
				t.Errorf("resolved origin %v destination %v", j.Origin.Resolved(), j.Destination.Resolved())
			}
		})
	}
}

func TestReconstructLegFailureIsolated(t *testing.T) {
	planner := &straightPlanner{fail: map[geo.Coordinate]bool{singapore: true}}
	r := NewReconstructor(fakeResolver{"Shanghai": shanghai, "Singapore": singapore}, planner, log.NewNopLogger())

	j, err := r.Reconstruct(context.Background(), activeSnapshot())
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if _, ok := j.Leg(voyage.Traveled); !ok {
		t.Error("traveled leg should survive the predicted leg failure")
	}
	if _, ok := j.Leg(voyage.Predicted); ok {
		t.Error("predicted leg should be omitted")
	}

	p, _ := j.DisplayPosition()
	if p.Leg != voyage.Traveled {
		t.Errorf("display position leg = %q, expected traveled", p.Leg)
	}
}

func TestReconstructUsesReportedCoordinates(t *testing.T) {
	planner := &straightPlanner{}
	r := NewReconstructor(fakeResolver{}, planner, log.NewNopLogger())

	s := activeSnapshot()
	s.Origin = s.Origin.WithCoordinate(shanghai)
	s.Destination = location.Location{}

	j, err := r.Reconstruct(context.Background(), s)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if _, ok := j.Leg(voyage.Traveled); !ok {
		t.Error("traveled leg should be planned from the reported origin coordinate")
	}
	if len(j.Routes) != 1 {
		t.Errorf("got %d routes, expected 1", len(j.Routes))
	}
}

func TestJourneysDoNotShareState(t *testing.T) {
	planner := &straightPlanner{}
	r := NewReconstructor(fakeResolver{"Shanghai": shanghai, "Singapore": singapore}, planner, log.NewNopLogger())

	first, err := r.Reconstruct(context.Background(), activeSnapshot())
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	before := struct {
		vessel    geo.Coordinate
		eta       time.Time
		traveled  []geo.Coordinate
		predicted []geo.Coordinate
		routes    int
		movement  string
	}{
		vessel:    *first.Vessel.Position,
		eta:       *first.Status.ArrivalEstimate,
		traveled:  append([]geo.Coordinate(nil), first.Routes[voyage.Traveled].Path...),
		predicted: append([]geo.Coordinate(nil), first.Routes[voyage.Predicted].Path...),
		routes:    len(first.Routes),
		movement:  first.Status.LastMovement,
	}

	next := completedSnapshot()
	next.LastMovement = "Import Gate Out"
	second, err := r.Reconstruct(context.Background(), next)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if !second.Completed || !second.GateOut {
		t.Fatalf("second journey = %+v", second)
	}

	moved := activeSnapshot()
	*moved.Vessel.Position = geo.Coordinate{Lat: 5, Lng: 106}
	if _, err := r.Reconstruct(context.Background(), moved); err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}

	if first.Completed || first.GateOut {
		t.Error("first journey flags changed")
	}
	if *first.Vessel.Position != before.vessel {
		t.Errorf("first vessel position = %v, expected %v", *first.Vessel.Position, before.vessel)
	}
	if *first.Status.ArrivalEstimate != before.eta {
		t.Errorf("first arrival estimate changed")
	}
	if len(first.Routes) != before.routes {
		t.Errorf("first journey has %d routes, expected %d", len(first.Routes), before.routes)
	}
	if !reflect.DeepEqual(first.Routes[voyage.Traveled].Path, before.traveled) {
		t.Error("first traveled path changed")
	}
	if !reflect.DeepEqual(first.Routes[voyage.Predicted].Path, before.predicted) {
		t.Error("first predicted path changed")
	}
	if first.Status.LastMovement != before.movement {
		t.Error("first status changed")
	}
}

func TestJourneyDoesNotAliasSnapshot(t *testing.T) {
	r := NewReconstructor(fakeResolver{"Shanghai": shanghai, "Singapore": singapore}, &straightPlanner{}, log.NewNopLogger())

	s := activeSnapshot()
	j, err := r.Reconstruct(context.Background(), s)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	*s.Vessel.Position = geo.Coordinate{}
	*s.ArrivalEstimate = time.Time{}

	if *j.Vessel.Position != atSea {
		t.Errorf("journey vessel position follows the snapshot: %v", *j.Vessel.Position)
	}
	if j.Status.ArrivalEstimate.IsZero() {
		t.Error("journey arrival estimate follows the snapshot")
	}
}
