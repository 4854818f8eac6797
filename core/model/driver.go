package model

import (
	"fmt"

	"github.com/kilianp07/ridecore/core/geo"
)

// DriverStatus is the dispatch state of a driver.
type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverAssigned  DriverStatus = "assigned"
	DriverOffline   DriverStatus = "offline"
)

// Valid reports whether s is a known status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverAvailable, DriverAssigned, DriverOffline:
		return true
	}
	return false
}

// Driver describes a vehicle and its operator.
type Driver struct {
	ID               string         `json:"id" yaml:"id"`
	Location         geo.Coordinate `json:"location" yaml:"location"`
	Status           DriverStatus   `json:"status" yaml:"status"`
	Rating           float64        `json:"rating" yaml:"rating"`
	VehicleCapacity  int            `json:"vehicle_capacity" yaml:"vehicle_capacity"`
	AcceptanceRate   float64        `json:"acceptance_rate" yaml:"acceptance_rate"`
	CurrentOccupancy int            `json:"current_occupancy" yaml:"current_occupancy"`
}

// Available reports whether the driver can take a new assignment.
func (d Driver) Available() bool { return d.Status == DriverAvailable }

// Fits reports whether the vehicle has room for passengers on top of its
// current occupancy.
func (d Driver) Fits(passengers int) bool {
	return d.CurrentOccupancy+passengers <= d.VehicleCapacity
}

// Validate checks every field of the driver.
func (d Driver) Validate() error {
	const rec = "driver"
	if d.ID == "" {
		return invalid(rec, "", "id", "is required")
	}
	if err := d.Location.Validate(); err != nil {
		return invalidCoord(rec, d.ID, "location", err)
	}
	if !d.Status.Valid() {
		return invalid(rec, d.ID, "status", fmt.Sprintf("unknown value %q", d.Status))
	}
	if !Within(d.Rating, 0, 5) {
		return invalid(rec, d.ID, "rating", "must be within [0,5]")
	}
	if d.VehicleCapacity < 1 {
		return invalid(rec, d.ID, "vehicle_capacity", "must be at least 1")
	}
	if !Within(d.AcceptanceRate, 0, 1) {
		return invalid(rec, d.ID, "acceptance_rate", "must be within [0,1]")
	}
	if d.CurrentOccupancy < 0 || d.CurrentOccupancy > d.VehicleCapacity {
		return invalid(rec, d.ID, "current_occupancy", "must be within [0,vehicle_capacity]")
	}
	return nil
}

// ValidateDrivers validates drivers and rejects duplicate ids.
func ValidateDrivers(drivers []Driver) error {
	seen := make(map[string]struct{}, len(drivers))
	for _, d := range drivers {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.ID]; dup {
			return invalid("driver", d.ID, "id", "is duplicated")
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}
