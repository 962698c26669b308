package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// These tests need a MongoDB deployment; set VOYAGED_TEST_MONGO_URI to run
// them.
func testDatabaseURI(t *testing.T) string {
	t.Helper()
	uri := os.Getenv("VOYAGED_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VOYAGED_TEST_MONGO_URI not set")
	}
	return uri
}

func TestRepositories(t *testing.T) {
	uri := testDatabaseURI(t)
	ctx := context.Background()

	db, err := Connect(ctx, uri, "voyaged_test_"+time.Now().Format("20060102150405"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Drop(ctx)

	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	cargos := NewCargoRepository(db)
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := cargo.New(cargo.NextTrackingID(), "MSKU1234565", "MAERSK", voyage.BLTracking, now)
	c.Itinerary.Origin = location.Location{Name: "Shanghai", Coordinate: &geo.Coordinate{Lat: 31.36, Lng: 121.615}}
	if err := cargos.Store(c); err != nil {
		t.Fatalf("Store: %v", err)
	}
	c.AssignShipment("trk-1", now)
	if err := cargos.Store(c); err != nil {
		t.Fatalf("Store again: %v", err)
	}

	got, err := cargos.Find(c.TrackingID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.ShipmentID != "trk-1" || got.Method != voyage.BLTracking || !got.Itinerary.Origin.Resolved() {
		t.Errorf("Find = %+v", got)
	}
	if _, err := cargos.Find("MISSING"); !errors.Is(err, cargo.ErrUnknown) {
		t.Errorf("Find(MISSING) error = %v", err)
	}
	if all, err := cargos.FindAll(); err != nil || len(all) != 1 {
		t.Errorf("FindAll = %d cargos, %v", len(all), err)
	}

	events := NewHandlingEventRepository(db)
	for i, d := range []string{"Loaded on vessel", "Gate in"} {
		e := cargo.HandlingEvent{TrackingID: c.TrackingID, Description: d, Completed: now.Add(-time.Duration(i) * time.Hour), Registered: now}
		if err := events.Store(e); err != nil {
			t.Fatalf("Store event: %v", err)
		}
	}
	h, err := events.QueryHandlingHistory(c.TrackingID)
	if err != nil {
		t.Fatalf("QueryHandlingHistory: %v", err)
	}
	if len(h.HandlingEvents) != 2 || h.HandlingEvents[0].Description != "Gate in" {
		t.Errorf("history = %+v", h.HandlingEvents)
	}
}
