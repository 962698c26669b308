package pb

import (
	"testing"
	"time"
)

type message struct {
	TrackingID string     `json:"tracking_id"`
	Meters     float64    `json:"meters"`
	Tags       []string   `json:"tags,omitempty"`
	ETA        *time.Time `json:"eta,omitempty"`
	Err        string     `json:"error,omitempty"`
}

func TestEncodeDecode(t *testing.T) {
	eta := time.Date(2026, 11, 2, 6, 30, 0, 0, time.UTC)
	in := message{TrackingID: "ABC123", Meters: 1852.5, Tags: []string{"a", "b"}, ETA: &eta}

	s, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Fields["tracking_id"].GetStringValue(); got != "ABC123" {
		t.Errorf("tracking_id field = %q", got)
	}
	if _, ok := s.Fields["error"]; ok {
		t.Error("empty error should be omitted")
	}

	var out message
	if err := Decode(s, &out); err != nil {
		t.Fatal(err)
	}
	if out.TrackingID != in.TrackingID || out.Meters != in.Meters || len(out.Tags) != 2 {
		t.Errorf("decoded = %+v", out)
	}
	if out.ETA == nil || !out.ETA.Equal(eta) {
		t.Errorf("eta = %v", out.ETA)
	}
}

func TestDecodeNil(t *testing.T) {
	out := message{TrackingID: "keep"}
	if err := Decode(nil, &out); err != nil {
		t.Fatal(err)
	}
	if out.TrackingID != "keep" {
		t.Errorf("nil struct changed message: %+v", out)
	}
}
