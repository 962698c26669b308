package inmem

import (
	"errors"
	"testing"
	"time"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

func TestCargoRepository(t *testing.T) {
	r := NewCargoRepository()
	t0 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	first := cargo.New("AAA", "MSKU1", "MAERSK", voyage.ContainerTracking, t0.Add(time.Hour))
	second := cargo.New("BBB", "MSKU2", "MAERSK", voyage.ContainerTracking, t0)
	for _, c := range []*cargo.Cargo{first, second} {
		if err := r.Store(c); err != nil {
			t.Fatalf("Store: %v", err)
		}
	}

	if _, err := r.Find("ZZZ"); !errors.Is(err, cargo.ErrUnknown) {
		t.Errorf("Find(ZZZ) error = %v, expected ErrUnknown", err)
	}

	got, err := r.Find("AAA")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got.Carrier = "CMA CGM"
	again, _ := r.Find("AAA")
	if again.Carrier != "MAERSK" {
		t.Error("Find returns a cargo sharing state with the store")
	}

	all, err := r.FindAll()
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 || all[0].TrackingID != "BBB" || all[1].TrackingID != "AAA" {
		t.Errorf("FindAll = %v, expected registration order", all)
	}
}

func TestLocationRepository(t *testing.T) {
	r := NewLocationRepository()

	l, err := r.Find(location.SGSIN)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if l.Name != "Singapore" || !l.Resolved() {
		t.Errorf("Find(SGSIN) = %+v", l)
	}
	l.Coordinate.Lat = 0
	if again, _ := r.Find(location.SGSIN); again.Coordinate.Lat == 0 {
		t.Error("Find returns a location sharing its coordinate with the store")
	}

	if l, err := r.FindByName("  jebel   ali "); err != nil || l.UNLcode != location.AEJEA {
		t.Errorf("FindByName(jebel ali) = %v, %v", l, err)
	}
	if _, err := r.FindByName("Atlantis"); !errors.Is(err, location.ErrUnknown) {
		t.Errorf("FindByName(Atlantis) error = %v", err)
	}
	if n := len(r.FindAll()); n != len(location.SampleLocations()) {
		t.Errorf("FindAll returned %d locations", n)
	}

	custom := NewLocationRepository(&location.Location{UNLcode: "GRPIR", Name: "Piraeus", Coordinate: &geo.Coordinate{Lat: 37.94, Lng: 23.64}})
	if n := len(custom.FindAll()); n != 1 {
		t.Errorf("custom repository holds %d locations, expected 1", n)
	}
}

func TestHandlingEventRepository(t *testing.T) {
	r := NewHandlingEventRepository()
	t0 := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	r.Store(cargo.HandlingEvent{TrackingID: "AAA", Description: "Gate in", Completed: t0})
	r.Store(cargo.HandlingEvent{TrackingID: "AAA", Description: "Loaded", Completed: t0.Add(time.Hour)})
	r.Store(cargo.HandlingEvent{TrackingID: "BBB", Description: "Gate in", Completed: t0})

	h, err := r.QueryHandlingHistory("AAA")
	if err != nil {
		t.Fatalf("QueryHandlingHistory: %v", err)
	}
	if len(h.HandlingEvents) != 2 {
		t.Fatalf("got %d events, expected 2", len(h.HandlingEvents))
	}
	if e, _ := h.MostRecentlyCompletedEvent(); e.Description != "Loaded" {
		t.Errorf("most recent = %q", e.Description)
	}

	if h, _ := r.QueryHandlingHistory("CCC"); len(h.HandlingEvents) != 0 {
		t.Errorf("unknown cargo has %d events", len(h.HandlingEvents))
	}
}
