package matching

import (
	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/model"
)

// ReasonCapacityExceeded marks a rejected multi-rider plan.
const ReasonCapacityExceeded = "capacity_exceeded"

// PickupStop is one rider pickup in a shared route.
type PickupStop struct {
	RiderID              string         `json:"rider_id"`
	Location             geo.Coordinate `json:"location"`
	Passengers           int            `json:"passengers"`
	LegDistanceKm        float64        `json:"leg_distance_km"`
	CumulativeDistanceKm float64        `json:"cumulative_distance_km"`
	ETAMinutes           float64        `json:"eta_minutes"`
}

// RoutePlan is the pickup sequence of one driver serving several riders.
type RoutePlan struct {
	DriverID        string       `json:"driver_id"`
	Success         bool         `json:"success"`
	Reason          string       `json:"reason,omitempty"`
	Capacity        int          `json:"capacity"`
	Requested       int          `json:"requested"`
	Stops           []PickupStop `json:"stops"`
	TotalDistanceKm float64      `json:"total_distance_km"`
	TotalMinutes    float64      `json:"total_minutes"`
}

// OptimizeMultiRiderRoutes sequences pickups for driver by always visiting the
// nearest remaining rider. Plans whose passengers exceed the vehicle capacity
// are rejected whole. The order is a heuristic, not the shortest tour.
func (o *Optimizer) OptimizeMultiRiderRoutes(driver model.Driver, riders []model.RideRequest) (RoutePlan, error) {
	if err := driver.Validate(); err != nil {
		return RoutePlan{}, err
	}
	if err := model.ValidateRequests(riders); err != nil {
		return RoutePlan{}, err
	}
	plan := RoutePlan{DriverID: driver.ID, Capacity: driver.VehicleCapacity}
	for _, r := range riders {
		plan.Requested += r.PassengerCount
	}
	if plan.Requested > plan.Capacity {
		plan.Reason = ReasonCapacityExceeded
		o.log.Warnf("driver %s: %d passengers requested, capacity %d", driver.ID, plan.Requested, plan.Capacity)
		return plan, nil
	}

	pickups := make([]geo.Coordinate, len(riders))
	for i, r := range riders {
		pickups[i] = r.Pickup
	}
	cur := driver.Location
	plan.Stops = make([]PickupStop, 0, len(riders))
	for _, idx := range geo.NearestNeighborOrder(cur, pickups) {
		r := riders[idx]
		leg := geo.Haversine(cur, r.Pickup)
		plan.TotalDistanceKm += leg
		plan.Stops = append(plan.Stops, PickupStop{
			RiderID:              r.ID,
			Location:             r.Pickup,
			Passengers:           r.PassengerCount,
			LegDistanceKm:        leg,
			CumulativeDistanceKm: plan.TotalDistanceKm,
			ETAMinutes:           plan.TotalDistanceKm / o.cfg.SpeedKmh * 60,
		})
		cur = r.Pickup
	}
	plan.TotalMinutes = plan.TotalDistanceKm / o.cfg.SpeedKmh * 60
	plan.Success = true
	return plan, nil
}
