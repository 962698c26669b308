package handling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
)

func TestHTTPRegisterAndHistory(t *testing.T) {
	s, _ := newTestService(log.NewNopLogger())
	h := MakeHandler(s, log.NewNopLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/handling/v1/events", strings.NewReader(`{
		"completion_time": "2026-10-17T08:00:00Z",
		"tracking_id": "ABC123",
		"voyage": "245S",
		"location": "cn sha",
		"event_type": "Load"
	}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/handling/v1/cargos/ABC123/events", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Events []Event `json:"events"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Events) != 1 {
		t.Fatalf("history has %d events", len(body.Events))
	}
	if e := body.Events[0]; e.Type != "Load" || e.Location != "CNSHA" || e.Voyage != "245S" {
		t.Errorf("event = %+v", e)
	}
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"malformed body", "POST", "/handling/v1/events", `[`, http.StatusBadRequest},
		{"malformed location", "POST", "/handling/v1/events", `{"completion_time":"2026-10-17T08:00:00Z","tracking_id":"ABC123","location":"Rotterdam","event_type":"Unload"}`, http.StatusBadRequest},
		{"unknown cargo", "POST", "/handling/v1/events", `{"completion_time":"2026-10-17T08:00:00Z","tracking_id":"NOPE","event_type":"Unload"}`, http.StatusNotFound},
		{"unknown cargo history", "GET", "/handling/v1/cargos/NOPE/events", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(log.NewNopLogger())
			h := MakeHandler(s, log.NewNopLogger())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Errorf("status = %d, expected %d: %s", rec.Code, tt.status, rec.Body)
			}
		})
	}
}
