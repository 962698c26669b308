// Package inmem provides in-memory implementations of all the domain repositories.
package inmem

import (
	"sort"
	"sync"

	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/location"
)

type cargoRepository struct {
	mtx    sync.RWMutex
	cargos map[cargo.TrackingID]*cargo.Cargo
}

func (r *cargoRepository) Store(c *cargo.Cargo) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.cargos[c.TrackingID] = copyCargo(c)
	return nil
}

func (r *cargoRepository) Find(id cargo.TrackingID) (*cargo.Cargo, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if val, ok := r.cargos[id]; ok {
		return copyCargo(val), nil
	}
	return nil, cargo.ErrUnknown
}

func (r *cargoRepository) FindAll() ([]*cargo.Cargo, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	c := make([]*cargo.Cargo, 0, len(r.cargos))
	for _, val := range r.cargos {
		c = append(c, copyCargo(val))
	}
	sort.Slice(c, func(i, j int) bool { return c[i].RegisteredAt.Before(c[j].RegisteredAt) })
	return c, nil
}

func copyCargo(c *cargo.Cargo) *cargo.Cargo {
	cp := *c
	if c.ArrivalEstimate != nil {
		eta := *c.ArrivalEstimate
		cp.ArrivalEstimate = &eta
	}
	cp.Itinerary.Origin = *copyLocation(&c.Itinerary.Origin)
	cp.Itinerary.Destination = *copyLocation(&c.Itinerary.Destination)
	return &cp
}

// NewCargoRepository returns a new instance of a in-memory cargo repository.
func NewCargoRepository() cargo.Repository {
	return &cargoRepository{
		cargos: make(map[cargo.TrackingID]*cargo.Cargo),
	}
}

type locationRepository struct {
	locations map[location.UNLcode]*location.Location
	names     map[string]*location.Location
}

func (r *locationRepository) Find(code location.UNLcode) (*location.Location, error) {
	if l, ok := r.locations[code]; ok {
		return copyLocation(l), nil
	}
	return nil, location.ErrUnknown
}

func (r *locationRepository) FindByName(name string) (*location.Location, error) {
	if l, ok := r.names[location.NormalizeName(name)]; ok {
		return copyLocation(l), nil
	}
	return nil, location.ErrUnknown
}

func (r *locationRepository) FindAll() []*location.Location {
	l := make([]*location.Location, 0, len(r.locations))
	for _, val := range r.locations {
		l = append(l, copyLocation(val))
	}
	sort.Slice(l, func(i, j int) bool { return l[i].UNLcode < l[j].UNLcode })
	return l
}

func copyLocation(l *location.Location) *location.Location {
	cp := *l
	if l.Coordinate != nil {
		c := *l.Coordinate
		cp.Coordinate = &c
	}
	return &cp
}

// NewLocationRepository returns a new instance of a in-memory location
// repository holding locs, or the sample locations when locs is empty.
func NewLocationRepository(locs ...*location.Location) location.Repository {
	if len(locs) == 0 {
		locs = location.SampleLocations()
	}
	r := &locationRepository{
		locations: make(map[location.UNLcode]*location.Location, len(locs)),
		names:     make(map[string]*location.Location, len(locs)),
	}
	for _, l := range locs {
		r.locations[l.UNLcode] = l
		r.names[location.NormalizeName(l.Name)] = l
	}
	return r
}

type handlingEventRepository struct {
	mtx    sync.RWMutex
	events map[cargo.TrackingID][]cargo.HandlingEvent
}

func (r *handlingEventRepository) Store(e cargo.HandlingEvent) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events[e.TrackingID] = append(r.events[e.TrackingID], e)
	return nil
}

func (r *handlingEventRepository) QueryHandlingHistory(id cargo.TrackingID) (cargo.HandlingHistory, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	events := append([]cargo.HandlingEvent(nil), r.events[id]...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Completed.Before(events[j].Completed)
	})
	return cargo.HandlingHistory{HandlingEvents: events}, nil
}

// NewHandlingEventRepository returns a new instance of a in-memory handling event repository.
func NewHandlingEventRepository() cargo.HandlingEventRepository {
	return &handlingEventRepository{
		events: make(map[cargo.TrackingID][]cargo.HandlingEvent),
	}
}
