package location

import (
	"errors"
	"strings"

	"github.com/Qalifah/voyage-tracker/geo"
)

// UNLcode uniquely identifies a location
type UNLcode string

// Location represents a port a vessel loads or discharges at. Coordinate is
// nil until the location has been resolved.
type Location struct {
	UNLcode    UNLcode         `json:"unlocode,omitempty" bson:"unlocode,omitempty"`
	Name       string          `json:"name" bson:"name"`
	Coordinate *geo.Coordinate `json:"coordinate,omitempty" bson:"coordinate,omitempty"`
}

// Resolved reports whether the location carries a coordinate.
func (l Location) Resolved() bool {
	return l.Coordinate != nil
}

// Label returns the name used to resolve the location.
func (l Location) Label() string {
	if l.Name != "" {
		return l.Name
	}
	return string(l.UNLcode)
}

// WithCoordinate returns a copy of l located at c.
func (l Location) WithCoordinate(c geo.Coordinate) Location {
	l.Coordinate = &c
	return l
}

// ErrUnknown is used when a location can't be found
var ErrUnknown = errors.New("unknown location")

// Repository represents a location store
type Repository interface {
	Find(UNLcode) (*Location, error)
	FindByName(name string) (*Location, error)
	FindAll() []*Location
}

// NormalizeName folds a free-text port name for lookups.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}

// ParseUNLcode returns the code in s if s looks like a UN/LOCODE, that is
// two country letters followed by three alphanumerics, optionally separated
// by a space.
func ParseUNLcode(s string) (UNLcode, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if len(s) != 5 {
		return "", false
	}
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case i >= 2 && r >= '2' && r <= '9':
		default:
			return "", false
		}
	}
	return UNLcode(s), true
}
