package cargo

import "github.com/Qalifah/voyage-tracker/journey"

// TransportStatus describes the status of a cargo transportation
type TransportStatus int

// Valid transport statuses
const (
	NotReceived TransportStatus = iota
	InPort
	OnboardCarrier
	Claimed
	Unknown
)

func (s TransportStatus) String() string {
	switch s {
	case NotReceived:
		return "Not Received"
	case InPort:
		return "In Port"
	case OnboardCarrier:
		return "Onboard Carrier"
	case Claimed:
		return "Claimed"
	case Unknown:
		return "Unknown"
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (s TransportStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeriveTransportStatus maps the classification of a tracking snapshot to
// the transport status of its cargo.
func DeriveTransportStatus(state journey.State, c journey.Completion) TransportStatus {
	switch state {
	case journey.AwaitingData:
		return NotReceived
	case journey.Active:
		return OnboardCarrier
	case journey.Completed:
		if c.GateOut {
			return Claimed
		}
		return InPort
	}
	return Unknown
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode
// to Unknown.
func (s *TransportStatus) UnmarshalText(b []byte) error {
	*s = Unknown
	for _, st := range []TransportStatus{NotReceived, InPort, OnboardCarrier, Claimed} {
		if st.String() == string(b) {
			*s = st
		}
	}
	return nil
}
