package dispatch

import (
	"math"

	"github.com/kilianp07/ridecore/core/model"
)

// CapacityAnalysis compares available supply with the number of requests.
func CapacityAnalysis(drivers []model.Driver, totalRequests int) model.CapacitySnapshot {
	snap := model.CapacitySnapshot{TotalDrivers: len(drivers), TotalRequests: totalRequests}
	for _, d := range drivers {
		if d.Available() {
			snap.AvailableDrivers++
		}
	}
	if totalRequests == 0 {
		snap.SupplyDemandRatio = math.Inf(1)
	} else {
		snap.SupplyDemandRatio = float64(snap.AvailableDrivers) / float64(totalRequests)
	}
	switch r := snap.SupplyDemandRatio; {
	case r < 0.6:
		snap.Status, snap.Health = model.CapacityConstrained, model.HealthCritical
	case r < 1.0:
		snap.Status, snap.Health = model.CapacityTight, model.HealthWarning
	case r < 1.5:
		snap.Status, snap.Health = model.CapacityBalanced, model.HealthHealthy
	default:
		snap.Status, snap.Health = model.CapacitySurplus, model.HealthOptimal
	}
	return snap
}
