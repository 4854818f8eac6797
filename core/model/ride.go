package model

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/ridecore/core/geo"
)

// Priority is the service level requested by a rider.
type Priority string

const (
	PriorityUrgent   Priority = "urgent"
	PriorityStandard Priority = "standard"
	PriorityEconomy  Priority = "economy"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityUrgent, PriorityStandard, PriorityEconomy:
		return true
	}
	return false
}

// ParsePriority converts a string to a Priority. An empty string yields standard.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityStandard, nil
	}
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// DefaultMaxWaitMinutes applies when a request does not state its wait tolerance.
const DefaultMaxWaitMinutes = 10.0

// RideRequest is an immutable request for a pickup.
type RideRequest struct {
	ID             string         `json:"id" yaml:"id"`
	Pickup         geo.Coordinate `json:"pickup" yaml:"pickup"`
	Dropoff        geo.Coordinate `json:"dropoff" yaml:"dropoff"`
	RequestedAt    time.Time      `json:"requested_at" yaml:"requested_at"`
	Priority       Priority       `json:"priority" yaml:"priority"`
	PassengerCount int            `json:"passenger_count" yaml:"passenger_count"`
	MaxWaitMinutes float64        `json:"max_wait_minutes" yaml:"max_wait_minutes"`
}

// NewRideRequest builds a validated standard request stamped with requestedAt.
func NewRideRequest(id string, pickup, dropoff geo.Coordinate, passengers int, priority Priority, requestedAt time.Time) (RideRequest, error) {
	r := RideRequest{
		ID:             id,
		Pickup:         pickup,
		Dropoff:        dropoff,
		RequestedAt:    requestedAt,
		Priority:       priority,
		PassengerCount: passengers,
	}.WithDefaults()
	if err := r.Validate(); err != nil {
		return RideRequest{}, err
	}
	return r, nil
}

// WithDefaults fills the optional fields: priority and wait tolerance.
func (r RideRequest) WithDefaults() RideRequest {
	if r.Priority == "" {
		r.Priority = PriorityStandard
	}
	if r.MaxWaitMinutes == 0 {
		r.MaxWaitMinutes = DefaultMaxWaitMinutes
	}
	return r
}

// Validate checks every field of the request.
func (r RideRequest) Validate() error {
	const rec = "ride request"
	if r.ID == "" {
		return invalid(rec, "", "id", "is required")
	}
	if err := r.Pickup.Validate(); err != nil {
		return invalidCoord(rec, r.ID, "pickup", err)
	}
	if err := r.Dropoff.Validate(); err != nil {
		return invalidCoord(rec, r.ID, "dropoff", err)
	}
	if !r.Priority.Valid() {
		return invalid(rec, r.ID, "priority", fmt.Sprintf("unknown value %q", r.Priority))
	}
	if r.PassengerCount < 1 {
		return invalid(rec, r.ID, "passenger_count", "must be at least 1")
	}
	if !(r.MaxWaitMinutes > 0) || math.IsInf(r.MaxWaitMinutes, 0) {
		return invalid(rec, r.ID, "max_wait_minutes", "must be positive and finite")
	}
	return nil
}

// ValidateRequests validates requests and rejects duplicate ids.
func ValidateRequests(reqs []RideRequest) error {
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return invalid("ride request", r.ID, "id", "is duplicated")
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
