package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/inmem"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

func newTestService() (*service, cargo.Repository) {
	cargos := inmem.NewCargoRepository()
	s := NewService(cargos, inmem.NewLocationRepository(location.Shanghai, location.Singapore)).(*service)
	s.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return s, cargos
}

func TestRegisterCargo(t *testing.T) {
	s, cargos := newTestService()
	ctx := context.Background()

	id, err := s.RegisterCargo(ctx, "  MSKU1234565 ", "MAERSK", voyage.ContainerTracking)
	if err != nil {
		t.Fatal(err)
	}

	c, err := cargos.Find(id)
	if err != nil {
		t.Fatal(err)
	}
	if c.Reference != "MSKU1234565" || c.Carrier != "MAERSK" || c.Method != voyage.ContainerTracking {
		t.Errorf("stored cargo = %+v", c)
	}
	if c.Status != cargo.NotReceived {
		t.Errorf("status = %v", c.Status)
	}
}

func TestRegisterCargoInvalid(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		carrier   string
		method    voyage.TrackingMethod
	}{
		{"empty reference", "  ", "MAERSK", voyage.ContainerTracking},
		{"empty carrier", "MSKU1234565", "", voyage.ContainerTracking},
		{"long carrier", "MSKU1234565", "MEDITERRANEAN SHIPPING COMPANY SA LTD", voyage.BLTracking},
		{"unknown method", "MSKU1234565", "MAERSK", voyage.TrackingMethod(42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, cargos := newTestService()
			_, err := s.RegisterCargo(context.Background(), tt.reference, tt.carrier, tt.method)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, expected ErrInvalidArgument", err)
			}
			if all, _ := cargos.FindAll(); len(all) != 0 {
				t.Errorf("stored %d cargos", len(all))
			}
		})
	}
}

func TestLoadCargo(t *testing.T) {
	s, cargos := newTestService()
	ctx := context.Background()

	if _, err := s.LoadCargo(ctx, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty id error = %v", err)
	}
	if _, err := s.LoadCargo(ctx, "NOPE"); !errors.Is(err, cargo.ErrUnknown) {
		t.Errorf("unknown id error = %v", err)
	}

	id, _ := s.RegisterCargo(ctx, "MEDUJ1234567", "MSC", voyage.BLTracking)
	c, _ := cargos.Find(id)
	c.Itinerary.Origin = location.Location{Name: "Shanghai"}
	c.Itinerary.Vessel = "MSC AURORA"
	c.Status = cargo.OnboardCarrier
	cargos.Store(c)

	got, err := s.LoadCargo(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.TrackingID != string(id) || got.TrackingType != "BLTracking" {
		t.Errorf("cargo = %+v", got)
	}
	if got.Origin != "Shanghai" || got.Vessel != "MSC AURORA" || got.TransportStatus != "Onboard Carrier" {
		t.Errorf("cargo = %+v", got)
	}
}

func TestCargosAndLocations(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	all, err := s.Cargos(ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("Cargos() = %v, %v", all, err)
	}

	s.RegisterCargo(ctx, "MSKU1234565", "MAERSK", voyage.ContainerTracking)
	s.RegisterCargo(ctx, "9876543", "MAERSK", voyage.BookingTracking)

	all, err = s.Cargos(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("Cargos() returned %d, expected 2", len(all))
	}

	locs := s.Locations(ctx)
	if len(locs) != 2 {
		t.Fatalf("Locations() returned %d, expected 2", len(locs))
	}
	if locs[0].UNLocode != "CNSHA" || locs[0].Coordinate == nil {
		t.Errorf("first location = %+v", locs[0])
	}
}
