package dispatch

import (
	"math"

	"github.com/kilianp07/ridecore/core/model"
)

// NoSupplyMultiplier applies when no driver is available at all.
const NoSupplyMultiplier = 2.5

// SurgeAnalysis derives the pricing multiplier from demand pressure and the
// average rider wait. The multiplier never drops below 1.
func SurgeAnalysis(activeRequests, availableDrivers int, avgWaitMinutes float64) model.SurgeState {
	st := model.SurgeState{Multiplier: 1, Reason: model.SurgeNormal}
	if availableDrivers == 0 {
		st.DemandSupplyRatio = math.Inf(1)
		st.Multiplier = NoSupplyMultiplier
		st.Reason = model.SurgeHighUnassigned
	} else {
		ratio := float64(activeRequests) / float64(availableDrivers)
		st.DemandSupplyRatio = ratio
		switch {
		case ratio > 2.0:
			st.Multiplier = 2.0
		case ratio > 1.5:
			st.Multiplier = 1.5
		case ratio > 1.2:
			st.Multiplier = 1.25
		}
		if st.Multiplier > 1 {
			st.Reason = model.SurgeHighDemand
		}
	}

	floor := 1.0
	switch {
	case avgWaitMinutes > 15:
		floor = 1.5
	case avgWaitMinutes > 10:
		floor = 1.25
	}
	if floor > st.Multiplier {
		st.Multiplier = floor
		st.Reason = model.SurgeExtendedWaitTimes
	}
	st.Active = st.Multiplier > 1.0
	return st
}
