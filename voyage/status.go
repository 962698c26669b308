package voyage

import (
	"errors"
	"strings"
)

// TrackingMethod describes what a tracking reference identifies
type TrackingMethod int

// valid tracking methods
const (
	ContainerTracking TrackingMethod = iota
	BLTracking
	BookingTracking
	VesselTracking
)

func (m TrackingMethod) String() string {
	switch m {
	case ContainerTracking:
		return "ContainerTracking"
	case BLTracking:
		return "BLTracking"
	case BookingTracking:
		return "BookingTracking"
	case VesselTracking:
		return "VesselTracking"
	}
	return ""
}

// ErrInvalidTrackingMethod is used when a tracking method name is not known
var ErrInvalidTrackingMethod = errors.New("invalid tracking method")

// ParseTrackingMethod parses a tracking method name, ignoring case.
func ParseTrackingMethod(s string) (TrackingMethod, error) {
	for _, m := range []TrackingMethod{ContainerTracking, BLTracking, BookingTracking, VesselTracking} {
		if strings.EqualFold(m.String(), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return 0, ErrInvalidTrackingMethod
}

// MarshalText implements encoding.TextMarshaler.
func (m TrackingMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *TrackingMethod) UnmarshalText(b []byte) error {
	v, err := ParseTrackingMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Status is the state of a tracking request at the tracking provider
type Status int

// valid tracking statuses
const (
	StatusUnknown Status = iota
	TrackQueued
	IsTracking
	TrackSucceeded
	TrackFailed
)

func (s Status) String() string {
	switch s {
	case TrackQueued:
		return "Track-Queued"
	case IsTracking:
		return "Is-Tracking"
	case TrackSucceeded:
		return "Track-Succeeded"
	case TrackFailed:
		return "Track-Failed"
	}
	return "Unknown"
}

// ParseStatus maps a provider status string to a Status. Unrecognised
// strings map to StatusUnknown.
func ParseStatus(s string) Status {
	for _, st := range []Status{TrackQueued, IsTracking, TrackSucceeded, TrackFailed} {
		if strings.EqualFold(st.String(), strings.TrimSpace(s)) {
			return st
		}
	}
	return StatusUnknown
}

// Terminal reports whether the provider has stopped working on the request.
func (s Status) Terminal() bool {
	return s == TrackSucceeded || s == TrackFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}
