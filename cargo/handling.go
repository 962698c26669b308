package cargo

import (
	"errors"
	"strings"
	"time"

	"github.com/Qalifah/voyage-tracker/geo"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/voyage"
)

// HandlingEventType describes the type of a handling event
type HandlingEventType int

// HandlingActivity represents how and where a cargo was handled.
type HandlingActivity struct {
	Type         HandlingEventType `json:"type" bson:"type"`
	Location     location.UNLcode  `json:"location,omitempty" bson:"location,omitempty"`
	VoyageNumber voyage.Number     `json:"voyage,omitempty" bson:"voyage,omitempty"`
}

// HandlingEvent records a movement of a cargo, such as being discharged
// from a vessel, as described by the carrier.
type HandlingEvent struct {
	TrackingID  TrackingID       `json:"tracking_id" bson:"tracking_id"`
	Activity    HandlingActivity `json:"activity" bson:"activity"`
	Description string           `json:"description" bson:"description"`
	Position    *geo.Coordinate  `json:"position,omitempty" bson:"position,omitempty"`
	Completed   time.Time        `json:"completion_time" bson:"completed"`
	Registered  time.Time        `json:"registration_time" bson:"registered"`
}

// valid handling event types
const (
	NotHandled HandlingEventType = iota
	Load
	Unload
	Receive
	Claim
	Customs
)

func (t HandlingEventType) String() string {
	switch t {
	case NotHandled:
		return "Not Handled"
	case Load:
		return "Load"
	case Unload:
		return "Unload"
	case Receive:
		return "Receive"
	case Claim:
		return "Claim"
	case Customs:
		return "Customs"
	}
	return ""
}

// ParseHandlingEventType parses the name of a handling event type. Unknown
// names are NotHandled.
func ParseHandlingEventType(s string) HandlingEventType {
	for _, t := range []HandlingEventType{Load, Unload, Receive, Claim, Customs} {
		if strings.EqualFold(t.String(), strings.TrimSpace(s)) {
			return t
		}
	}
	return NotHandled
}

// movementTypes maps carrier movement descriptions to event types. Order
// matters: the first matching phrase wins.
var movementTypes = []struct {
	phrase string
	typ    HandlingEventType
}{
	{"discharge", Unload},
	{"unload", Unload},
	{"gate out", Claim},
	{"delivered", Claim},
	{"available for pickup", Claim},
	{"empty return", Claim},
	{"gate in", Receive},
	{"received", Receive},
	{"load", Load},
	{"departed", Load},
	{"customs", Customs},
}

// EventTypeFromMovement derives the event type of a carrier's free-text
// movement description.
func EventTypeFromMovement(description string) HandlingEventType {
	d := strings.ToLower(description)
	for _, m := range movementTypes {
		if strings.Contains(d, m.phrase) {
			return m.typ
		}
	}
	return NotHandled
}

// HandlingHistory is the handling history of a cargo
type HandlingHistory struct {
	HandlingEvents []HandlingEvent
}

// MostRecentlyCompletedEvent returns the most recently completed handling event
func (h HandlingHistory) MostRecentlyCompletedEvent() (HandlingEvent, error) {
	if len(h.HandlingEvents) == 0 {
		return HandlingEvent{}, errors.New("delivery history is empty")
	}
	latest := h.HandlingEvents[0]
	for _, e := range h.HandlingEvents[1:] {
		if !e.Completed.Before(latest.Completed) {
			latest = e
		}
	}
	return latest, nil
}

// HandlingEventRepository provides access to the handling event store
type HandlingEventRepository interface {
	Store(e HandlingEvent) error
	QueryHandlingHistory(TrackingID) (HandlingHistory, error)
}

// HandlingEventFactory creates handling events
type HandlingEventFactory struct {
	CargoRepository    Repository
	LocationRepository location.Repository
}

// CreateHandlingEvent creates a validated handling event. The location is
// optional since carriers often describe movements without a UN/LOCODE.
func (f *HandlingEventFactory) CreateHandlingEvent(registered, completed time.Time, id TrackingID, voyageNumber voyage.Number, unlCode location.UNLcode, eventType HandlingEventType, description string) (HandlingEvent, error) {
	if _, err := f.CargoRepository.Find(id); err != nil {
		return HandlingEvent{}, err
	}

	if unlCode != "" {
		if _, err := f.LocationRepository.Find(unlCode); err != nil {
			return HandlingEvent{}, err
		}
	}

	if eventType == NotHandled {
		eventType = EventTypeFromMovement(description)
	}

	return HandlingEvent{
		TrackingID: id,
		Activity: HandlingActivity{
			Type:         eventType,
			Location:     unlCode,
			VoyageNumber: voyageNumber,
		},
		Description: strings.TrimSpace(description),
		Completed:   completed,
		Registered:  registered,
	}, nil
}

// EventFromSnapshot turns the last movement of a tracking snapshot into a
// handling event. The second result is false when the snapshot carries no
// movement.
func EventFromSnapshot(id TrackingID, s voyage.Snapshot, now time.Time) (HandlingEvent, bool) {
	if strings.TrimSpace(s.LastMovement) == "" {
		return HandlingEvent{}, false
	}
	completed := s.Vessel.ObservedAt
	if completed.IsZero() {
		completed = now
	}
	e := HandlingEvent{
		TrackingID: id,
		Activity: HandlingActivity{
			Type:         EventTypeFromMovement(s.LastMovement),
			VoyageNumber: s.Vessel.Voyage,
		},
		Description: strings.TrimSpace(s.LastMovement),
		Completed:   completed,
		Registered:  now,
	}
	if s.Vessel.Position != nil {
		p := *s.Vessel.Position
		e.Position = &p
	}
	return e, true
}
