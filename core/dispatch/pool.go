package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/ridecore/core/model"
)

var (
	// ErrStaleVersion is returned by Claim when the slot changed after the snapshot.
	ErrStaleVersion = errors.New("driver record changed since snapshot")
	// ErrDriverUnavailable is returned by Claim when the driver is not available.
	ErrDriverUnavailable = errors.New("driver not available")
	// ErrCapacityExceeded is returned by Claim when the vehicle is too small.
	ErrCapacityExceeded = errors.New("vehicle capacity exceeded")
	// ErrUnknownDriver is returned for ids or indexes not present in the pool.
	ErrUnknownDriver = errors.New("unknown driver")
)

type slot struct {
	mu      sync.Mutex
	driver  model.Driver
	version uint64
}

// DriverRef is a copy of a pool slot taken at a given version. Holding a ref
// never pins the driver; it only lets the holder attempt a Claim.
type DriverRef struct {
	Index   int
	Version uint64
	Driver  model.Driver
}

// DriverPool is an indexed driver table. Slots keep a stable index for the
// lifetime of the pool and every mutation bumps the slot version, so a claim
// based on an outdated snapshot is rejected instead of double-booking.
type DriverPool struct {
	mu    sync.RWMutex
	slots []*slot
	index map[string]int
}

// NewDriverPool validates drivers and loads them in order.
func NewDriverPool(drivers []model.Driver) (*DriverPool, error) {
	if err := model.ValidateDrivers(drivers); err != nil {
		return nil, err
	}
	p := &DriverPool{
		slots: make([]*slot, 0, len(drivers)),
		index: make(map[string]int, len(drivers)),
	}
	for _, d := range drivers {
		p.index[d.ID] = len(p.slots)
		p.slots = append(p.slots, &slot{driver: d})
	}
	return p, nil
}

// Len returns the number of slots.
func (p *DriverPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}

// Upsert inserts a new driver at the end of the table or replaces an
// existing record in place.
func (p *DriverPool) Upsert(d model.Driver) error {
	if err := d.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if i, ok := p.index[d.ID]; ok {
		s := p.slots[i]
		s.mu.Lock()
		s.driver = d
		s.version++
		s.mu.Unlock()
		return nil
	}
	p.index[d.ID] = len(p.slots)
	p.slots = append(p.slots, &slot{driver: d})
	return nil
}

// Snapshot copies every slot in index order.
func (p *DriverPool) Snapshot() []DriverRef {
	p.mu.RLock()
	defer p.mu.RUnlock()
	refs := make([]DriverRef, len(p.slots))
	for i, s := range p.slots {
		s.mu.Lock()
		refs[i] = DriverRef{Index: i, Version: s.version, Driver: s.driver}
		s.mu.Unlock()
	}
	return refs
}

// Drivers copies the current driver records in index order.
func (p *DriverPool) Drivers() []model.Driver {
	refs := p.Snapshot()
	out := make([]model.Driver, len(refs))
	for i, r := range refs {
		out[i] = r.Driver
	}
	return out
}

// Get returns a copy of the driver with the given id.
func (p *DriverPool) Get(id string) (DriverRef, bool) {
	s, i, ok := p.lookup(id)
	if !ok {
		return DriverRef{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return DriverRef{Index: i, Version: s.version, Driver: s.driver}, true
}

func (p *DriverPool) lookup(id string) (*slot, int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.index[id]
	if !ok {
		return nil, 0, false
	}
	return p.slots[i], i, true
}

func (p *DriverPool) at(index int) (*slot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if index < 0 || index >= len(p.slots) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownDriver, index)
	}
	return p.slots[index], nil
}

// Claim marks the driver at index as assigned to a request of passengers
// riders, provided the slot still has the given version. Only one of several
// concurrent claims on the same version can succeed.
func (p *DriverPool) Claim(index int, version uint64, passengers int) (model.Driver, error) {
	s, err := p.at(index)
	if err != nil {
		return model.Driver{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return model.Driver{}, fmt.Errorf("%w: %s at v%d, expected v%d", ErrStaleVersion, s.driver.ID, s.version, version)
	}
	if !s.driver.Available() {
		return model.Driver{}, fmt.Errorf("%w: %s is %s", ErrDriverUnavailable, s.driver.ID, s.driver.Status)
	}
	if s.driver.VehicleCapacity < passengers {
		return model.Driver{}, fmt.Errorf("%w: %s seats %d, requested %d", ErrCapacityExceeded, s.driver.ID, s.driver.VehicleCapacity, passengers)
	}
	s.driver.Status = model.DriverAssigned
	s.driver.CurrentOccupancy = min(s.driver.VehicleCapacity, s.driver.CurrentOccupancy+passengers)
	s.version++
	return s.driver, nil
}

// Release returns an assigned driver to the available state once passengers
// riders have been dropped off.
func (p *DriverPool) Release(id string, passengers int) (model.Driver, error) {
	s, _, ok := p.lookup(id)
	if !ok {
		return model.Driver{}, fmt.Errorf("%w: %s", ErrUnknownDriver, id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver.Status == model.DriverOffline {
		return model.Driver{}, fmt.Errorf("%w: %s is offline", ErrDriverUnavailable, id)
	}
	s.driver.Status = model.DriverAvailable
	s.driver.CurrentOccupancy = max(0, s.driver.CurrentOccupancy-passengers)
	s.version++
	return s.driver, nil
}
