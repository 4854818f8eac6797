package dispatch

import (
	"fmt"
	"sort"

	"github.com/kilianp07/ridecore/core/model"
)

// Recommendation is advisory text for operators. Rank 1 is the most urgent.
type Recommendation struct {
	Rank     int    `json:"rank"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// Recommendations derives ranked operator advice from capacity and surge.
func Recommendations(capacity model.CapacitySnapshot, surge model.SurgeState) []Recommendation {
	var recs []Recommendation
	add := func(rank int, category, action string) {
		recs = append(recs, Recommendation{Rank: rank, Category: category, Action: action})
	}
	switch capacity.Health {
	case model.HealthCritical:
		add(1, "supply", "activate driver incentives")
		add(2, "dispatch", "expand the pickup search radius")
	case model.HealthWarning:
		add(2, "supply", "send availability nudges to offline drivers")
	case model.HealthOptimal:
		add(3, "supply", "reposition idle drivers toward high-demand zones")
	}
	if surge.Active {
		add(1, "pricing", fmt.Sprintf("apply %.2fx surge pricing to new requests", surge.Multiplier))
		if surge.Reason == model.SurgeExtendedWaitTimes {
			add(2, "riders", "notify riders of extended wait times")
		}
	}
	if len(recs) == 0 {
		add(3, "operations", "maintain current operations")
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Rank < recs[j].Rank })
	return recs
}
