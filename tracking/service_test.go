package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/inmem"
	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/routing"
	"github.com/Qalifah/voyage-tracker/tracker"
	"github.com/Qalifah/voyage-tracker/voyage"
)

type fakeTracker struct {
	mtx      sync.Mutex
	requests []tracker.Request
	err      error
}

func (f *fakeTracker) CreateTracking(_ context.Context, r tracker.Request) (string, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, r)
	return fmt.Sprintf("trk-%d", len(f.requests)), nil
}

func (f *fakeTracker) Tracking(context.Context, string) (voyage.Snapshot, error) {
	return voyage.Snapshot{}, errors.New("polling goes through the poller")
}

// fakePoller answers with the next scripted answer, repeating the last one.
type fakePoller struct {
	mtx     sync.Mutex
	answers []pollAnswer
	polled  []string
}

type pollAnswer struct {
	snapshot voyage.Snapshot
	err      error
}

func (p *fakePoller) Poll(_ context.Context, id string) (voyage.Snapshot, error) {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	i := len(p.polled)
	if i >= len(p.answers) {
		i = len(p.answers) - 1
	}
	p.polled = append(p.polled, id)
	return p.answers[i].snapshot, p.answers[i].err
}

type straightPlanner struct{}

func (straightPlanner) PlanRoute(_ context.Context, from, to geo.Coordinate) (voyage.RouteLeg, error) {
	d := geo.Distance(from, to)
	return voyage.RouteLeg{
		Path:           []geo.Coordinate{from, to},
		DistanceMeters: d,
		Duration:       routing.EstimateDuration(d, routing.DefaultPace),
	}, nil
}

var (
	now      = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	atSea    = geo.Coordinate{Lat: 15.2, Lng: 112.7}
	underway = voyage.Snapshot{
		Method:       voyage.ContainerTracking,
		Status:       voyage.TrackSucceeded,
		Origin:       location.Location{Name: "Shanghai"},
		Destination:  location.Location{Name: "Singapore"},
		LastMovement: "Vessel departed origin",
		Vessel:       voyage.VesselState{Name: "MAERSK KOWLOON", Voyage: "245S", Position: &atSea},
	}
	discharged = voyage.Snapshot{
		Method:       voyage.ContainerTracking,
		Status:       voyage.TrackSucceeded,
		Origin:       location.Location{Name: "Shanghai"},
		Destination:  location.Location{Name: "Singapore"},
		LastMovement: "Discharge From Vessel at Singapore",
	}
)

type fixture struct {
	service *service
	cargos  cargo.Repository
	events  cargo.HandlingEventRepository
	tracker *fakeTracker
	poller  *fakePoller
}

func newFixture(answers ...pollAnswer) fixture {
	cargos := inmem.NewCargoRepository()
	cargos.Store(cargo.New("ABC123", "MSKU1234565", "MAERSK", voyage.ContainerTracking, now))
	events := inmem.NewHandlingEventRepository()

	ft := &fakeTracker{}
	fp := &fakePoller{answers: answers}
	r := journey.NewReconstructor(location.NewRepositoryResolver(inmem.NewLocationRepository()), straightPlanner{}, log.NewNopLogger())

	s := NewService(cargos, events, ft, fp, r, log.NewNopLogger()).(*service)
	s.now = func() time.Time { return now }

	return fixture{service: s, cargos: cargos, events: events, tracker: ft, poller: fp}
}

func TestTrackActive(t *testing.T) {
	f := newFixture(pollAnswer{snapshot: underway})
	ctx := context.Background()

	j, err := f.service.Track(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := j.Leg(voyage.Traveled); !ok {
		t.Error("traveled leg missing")
	}
	if _, ok := j.Leg(voyage.Predicted); !ok {
		t.Error("predicted leg missing")
	}
	if j.Completed {
		t.Error("active journey reported completed")
	}

	if len(f.tracker.requests) != 1 {
		t.Fatalf("created %d trackings, expected 1", len(f.tracker.requests))
	}
	if r := f.tracker.requests[0]; r.Reference != "MSKU1234565" || r.Carrier != "MAERSK" || r.Method != voyage.ContainerTracking {
		t.Errorf("tracking request = %+v", r)
	}

	c, _ := f.cargos.Find("ABC123")
	if c.ShipmentID != "trk-1" || c.Status != cargo.OnboardCarrier || c.Itinerary.Vessel != "MAERSK KOWLOON" {
		t.Errorf("cargo = %+v", c)
	}

	h, _ := f.events.QueryHandlingHistory("ABC123")
	if len(h.HandlingEvents) != 1 || h.HandlingEvents[0].Activity.Type != cargo.Load {
		t.Errorf("history = %+v", h.HandlingEvents)
	}

	// A second track reuses the shipment and does not repeat the movement.
	if _, err := f.service.Track(ctx, "ABC123"); err != nil {
		t.Fatal(err)
	}
	if len(f.tracker.requests) != 1 {
		t.Errorf("created %d trackings, expected 1", len(f.tracker.requests))
	}
	if got := f.poller.polled; len(got) != 2 || got[1] != "trk-1" {
		t.Errorf("polled %v", got)
	}
	h, _ = f.events.QueryHandlingHistory("ABC123")
	if len(h.HandlingEvents) != 1 {
		t.Errorf("history has %d events, expected 1", len(h.HandlingEvents))
	}
}

func TestTrackCompleted(t *testing.T) {
	f := newFixture(pollAnswer{snapshot: discharged})

	j, err := f.service.Track(context.Background(), "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	if !j.Completed || !j.DischargedFromVessel || j.GateOut {
		t.Errorf("journey flags = %v %v %v", j.Completed, j.DischargedFromVessel, j.GateOut)
	}
	if _, ok := j.Leg(voyage.Completed); !ok || len(j.Routes) != 1 {
		t.Errorf("routes = %v", j.Routes)
	}

	c, _ := f.cargos.Find("ABC123")
	if c.Status != cargo.InPort {
		t.Errorf("status = %v, expected In Port", c.Status)
	}
}

func TestTrackFailureKeepsLastJourney(t *testing.T) {
	stale := voyage.Snapshot{Status: voyage.TrackSucceeded, LastMovement: "Transshipment"}
	f := newFixture(
		pollAnswer{snapshot: underway},
		pollAnswer{err: fmt.Errorf("%w after 20 attempts", tracker.ErrPollTimeout)},
		pollAnswer{snapshot: stale},
	)
	ctx := context.Background()

	first, err := f.service.Track(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.service.Track(ctx, "ABC123"); !errors.Is(err, tracker.ErrPollTimeout) {
		t.Errorf("error = %v, expected ErrPollTimeout", err)
	}
	if _, err := f.service.Track(ctx, "ABC123"); !errors.Is(err, journey.ErrInsufficientTrackingData) {
		t.Errorf("error = %v, expected ErrInsufficientTrackingData", err)
	}

	last, err := f.service.Journey(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	if last.Distance() != first.Distance() || len(last.Routes) != 2 {
		t.Errorf("last journey = %+v, expected the first one", last)
	}
}

func TestTrackStartsOverAfterFailedPoll(t *testing.T) {
	f := newFixture(
		pollAnswer{err: fmt.Errorf("%w after 20 attempts", tracker.ErrPollTimeout)},
		pollAnswer{err: fmt.Errorf("%w: container not found", tracker.ErrTrackingFailed)},
		pollAnswer{snapshot: underway},
	)
	ctx := context.Background()

	if _, err := f.service.Track(ctx, "ABC123"); !errors.Is(err, tracker.ErrPollTimeout) {
		t.Fatalf("error = %v, expected ErrPollTimeout", err)
	}
	if c, _ := f.cargos.Find("ABC123"); c.ShipmentID != "" {
		t.Errorf("shipment id = %q after a timed out poll", c.ShipmentID)
	}
	if _, err := f.service.Track(ctx, "ABC123"); !errors.Is(err, tracker.ErrTrackingFailed) {
		t.Fatalf("error = %v, expected ErrTrackingFailed", err)
	}
	if _, err := f.service.Track(ctx, "ABC123"); err != nil {
		t.Fatal(err)
	}

	if len(f.tracker.requests) != 3 {
		t.Errorf("created %d trackings, expected 3", len(f.tracker.requests))
	}
	expected := []string{"trk-1", "trk-2", "trk-3"}
	if len(f.poller.polled) != len(expected) {
		t.Fatalf("polled %v, expected %v", f.poller.polled, expected)
	}
	for i, id := range expected {
		if f.poller.polled[i] != id {
			t.Errorf("polled %v, expected %v", f.poller.polled, expected)
			break
		}
	}
	if c, _ := f.cargos.Find("ABC123"); c.ShipmentID != "trk-3" {
		t.Errorf("shipment id = %q, expected trk-3", c.ShipmentID)
	}
}

func TestJourneyIsNotShared(t *testing.T) {
	f := newFixture(pollAnswer{snapshot: underway})
	ctx := context.Background()

	tracked, err := f.service.Track(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	delete(tracked.Routes, voyage.Predicted)

	loaded, err := f.service.Journey(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Routes) != 2 {
		t.Fatalf("routes = %v, expected traveled and predicted", loaded.Routes)
	}
	loaded.Routes[voyage.Traveled].Path[0] = geo.Coordinate{}
	delete(loaded.Routes, voyage.Traveled)

	again, err := f.service.Journey(ctx, "ABC123")
	if err != nil {
		t.Fatal(err)
	}
	leg, ok := again.Leg(voyage.Traveled)
	if !ok || len(again.Routes) != 2 {
		t.Fatalf("routes = %v, expected traveled and predicted", again.Routes)
	}
	if leg.Path[0] == (geo.Coordinate{}) {
		t.Error("traveled path changed through a returned journey")
	}
}

func TestTrackErrors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(pollAnswer{snapshot: underway})
	if _, err := f.service.Track(ctx, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id error = %v", err)
	}
	if _, err := f.service.Track(ctx, "NOPE"); !errors.Is(err, cargo.ErrUnknown) {
		t.Errorf("unknown id error = %v", err)
	}

	f.tracker.err = fmt.Errorf("%w: HTTP 500", tracker.ErrTrackingRequest)
	if _, err := f.service.Track(ctx, "ABC123"); !errors.Is(err, tracker.ErrTrackingRequest) {
		t.Errorf("create tracking error = %v", err)
	}
	if len(f.poller.polled) != 0 {
		t.Error("polled without a shipment")
	}
	if c, _ := f.cargos.Find("ABC123"); c.ShipmentID != "" {
		t.Errorf("shipment id = %q after failed creation", c.ShipmentID)
	}
}

func TestJourney(t *testing.T) {
	f := newFixture(pollAnswer{snapshot: underway})
	ctx := context.Background()

	if _, err := f.service.Journey(ctx, "ABC123"); !errors.Is(err, ErrNoJourney) {
		t.Errorf("untracked error = %v", err)
	}
	if _, err := f.service.Journey(ctx, "NOPE"); !errors.Is(err, cargo.ErrUnknown) {
		t.Errorf("unknown error = %v", err)
	}
	if _, err := f.service.Journey(ctx, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id error = %v", err)
	}
}

func TestTrackConcurrently(t *testing.T) {
	f := newFixture(pollAnswer{snapshot: underway})
	ids := []cargo.TrackingID{"ABC123", "DEF456", "GHI789", "JKL012"}
	for _, id := range ids[1:] {
		f.cargos.Store(cargo.New(id, "REF-"+string(id), "MSC", voyage.BLTracking, now))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id cargo.TrackingID) {
			defer wg.Done()
			_, errs[i] = f.service.Track(context.Background(), id)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Track(%s): %v", ids[i], err)
		}
		if _, err := f.service.Journey(context.Background(), ids[i]); err != nil {
			t.Errorf("Journey(%s): %v", ids[i], err)
		}
	}
	if len(f.tracker.requests) != len(ids) {
		t.Errorf("created %d trackings, expected %d", len(f.tracker.requests), len(ids))
	}
}
