package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/tracker"
)

func TestHTTPTrackAndJourney(t *testing.T) {
	f := newFixture(pollAnswer{snapshot: underway})
	h := MakeHandler(f.service, log.NewNopLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/tracking/v1/cargos/ABC123/journey", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("journey before tracking status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/tracking/v1/cargos/ABC123/track", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("track status = %d: %s", rec.Code, rec.Body)
	}

	var v JourneyView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if len(v.Routes) != 2 {
		t.Fatalf("routes = %v", v.Routes)
	}
	traveled := v.Routes["traveled"]
	if len(traveled.Path) != 2 || traveled.Path[1] != [2]float64{atSea.Lat, atSea.Lng} {
		t.Errorf("traveled path = %v", traveled.Path)
	}
	if d := traveled.DurationMillis - int64(traveled.DistanceMeters*36); d < -1 || d > 1 {
		t.Errorf("duration = %dms for %fm", traveled.DurationMillis, traveled.DistanceMeters)
	}
	if v.Vessel.Display == nil || !v.Vessel.Display.Snapped || v.Vessel.Display.DistanceMeters != 0 {
		t.Errorf("display = %+v", v.Vessel.Display)
	}
	if v.Status.Raw != "Track-Succeeded" || v.Status.TrackingMethod != "ContainerTracking" {
		t.Errorf("status = %+v", v.Status)
	}
	if v.Origin.Coordinate == nil || v.Origin.Name != "Shanghai" {
		t.Errorf("origin = %+v", v.Origin)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/tracking/v1/cargos/ABC123/journey", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("journey status = %d: %s", rec.Code, rec.Body)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{cargo.ErrUnknown, http.StatusNotFound},
		{ErrNoJourney, http.StatusNotFound},
		{ErrInvalidArgument, http.StatusBadRequest},
		{journey.ErrInsufficientTrackingData, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w after 20 attempts", tracker.ErrPollTimeout), http.StatusGatewayTimeout},
		{fmt.Errorf("%w: HTTP 503", tracker.ErrTrackingRequest), http.StatusBadGateway},
		{fmt.Errorf("%w: container not found", tracker.ErrTrackingFailed), http.StatusBadGateway},
		{ratelimit.ErrLimited, http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusCode(tt.err); got != tt.status {
			t.Errorf("statusCode(%v) = %d, expected %d", tt.err, got, tt.status)
		}
	}
}

func TestHTTPTrackFailure(t *testing.T) {
	f := newFixture(pollAnswer{err: fmt.Errorf("%w: container not found", tracker.ErrTrackingFailed)})
	h := MakeHandler(f.service, log.NewNopLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/tracking/v1/cargos/ABC123/track", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, expected 502", rec.Code)
	}
	var body map[string]string
	json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != "tracking failed: container not found" {
		t.Errorf("error body = %v", body)
	}
}
