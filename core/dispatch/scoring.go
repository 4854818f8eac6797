package dispatch

import (
	"math"

	"github.com/kilianp07/ridecore/core/model"
)

// Cost ranks a driver for a request. Travel hours dominate, then the rating
// and acceptance penalties; the sum is scaled by the priority multiplier.
func (c *Coordinator) Cost(distanceKm float64, d model.Driver, p model.Priority) float64 {
	ratingPenalty := (5 - d.Rating) * 0.5
	acceptancePenalty := (1 - d.AcceptanceRate) * 2
	mult, ok := c.cfg.PriorityMultipliers[p]
	if !ok {
		mult = 1
	}
	return (distanceKm/c.cfg.SpeedKmh + ratingPenalty + acceptancePenalty) * mult
}

// ETAMinutes converts a pickup distance into minutes at the configured speed.
func (c *Coordinator) ETAMinutes(distanceKm float64) float64 {
	return distanceKm / c.cfg.SpeedKmh * 60
}

// MatchQuality scores an assignment on a 0-100 scale and buckets it.
func MatchQuality(distanceKm float64, d model.Driver, r model.RideRequest) (float64, model.MatchQuality) {
	score := 100.0
	if distanceKm > 5 {
		score -= (distanceKm - 5) * 5
	}
	score += (d.Rating - 4.0) * 10
	score += (d.AcceptanceRate - 0.8) * 20
	if d.VehicleCapacity < r.PassengerCount {
		score -= 50
	}
	score = math.Max(0, math.Min(100, score))
	return score, model.QualityFor(score)
}
