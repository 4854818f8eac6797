package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridecore/core/factory"
	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/model"
)

func newOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	o, err := NewOptimizer(Config{}, nil)
	require.NoError(t, err)
	return o
}

func rider(id string, lat, lng float64, passengers int, maxWait float64) model.RideRequest {
	return model.RideRequest{
		ID:             id,
		Pickup:         geo.Coordinate{Lat: lat, Lng: lng},
		Priority:       model.PriorityStandard,
		PassengerCount: passengers,
		MaxWaitMinutes: maxWait,
	}
}

func driver(id string, lat, lng float64, capacity, occupancy int) model.Driver {
	return model.Driver{
		ID:               id,
		Location:         geo.Coordinate{Lat: lat, Lng: lng},
		Status:           model.DriverAvailable,
		Rating:           4.5,
		VehicleCapacity:  capacity,
		AcceptanceRate:   0.9,
		CurrentOccupancy: occupancy,
	}
}

func TestCalculateMatchQualityWeights(t *testing.T) {
	o := newOptimizer(t)
	r := rider("r", 0, 0, 1, 10)
	d := driver("d", 0, 0, 4, 1)
	score, b := o.CalculateMatchQuality(r, d)
	// same spot: wait 1, distance 1, occupancy 2/4
	assert.Equal(t, 1.0, b.WaitScore)
	assert.Equal(t, 1.0, b.DistanceScore)
	assert.Equal(t, 0.5, b.OccupancyScore)
	assert.True(t, b.CapacityOK)
	assert.InDelta(t, 0.4+0.3+0.15, score, 1e-12)
}

func TestCalculateMatchQualityCutoffs(t *testing.T) {
	o := newOptimizer(t)
	// ~11.1km away: eta 22 min at 30km/h, beyond both caps
	r := rider("r", 0, 0, 1, 10)
	d := driver("d", 0, 0.1, 4, 0)
	score, b := o.CalculateMatchQuality(r, d)
	assert.Equal(t, 0.0, b.WaitScore)
	assert.Equal(t, 0.0, b.DistanceScore)
	assert.InDelta(t, 0.3*0.25, score, 1e-12)

	full := driver("full", 0, 0, 2, 2)
	_, b = o.CalculateMatchQuality(r, full)
	assert.False(t, b.CapacityOK)
	assert.Equal(t, 0.0, b.OccupancyScore)
}

func TestFindBestMatchesGreedyDisjoint(t *testing.T) {
	o := newOptimizer(t)
	riders := []model.RideRequest{
		rider("r1", 0, 0, 1, 10),
		rider("r2", 0, 0.02, 1, 10),
		rider("r3", 0, 0.04, 3, 10),
	}
	offline := driver("off", 0, 0, 4, 0)
	offline.Status = model.DriverOffline
	drivers := []model.Driver{
		offline,
		driver("d1", 0, 0.001, 4, 0),
		driver("d2", 0, 0.021, 2, 0),
	}
	matches, err := o.FindBestMatches(riders, drivers)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	seenR := map[string]bool{}
	seenD := map[string]bool{}
	for _, m := range matches {
		assert.False(t, seenR[m.RiderID])
		assert.False(t, seenD[m.DriverID])
		assert.NotEqual(t, "off", m.DriverID)
		seenR[m.RiderID], seenD[m.DriverID] = true, true
	}
	// r2 sits almost on top of d2 and fills half of its seats, the best pair overall
	assert.Equal(t, "r2", matches[0].RiderID)
	assert.Equal(t, "d2", matches[0].DriverID)
	assert.Equal(t, "r1", matches[1].RiderID)
	assert.Equal(t, "d1", matches[1].DriverID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestFindBestMatchesValidates(t *testing.T) {
	o := newOptimizer(t)
	bad := rider("r", 95, 0, 1, 10)
	_, err := o.FindBestMatches([]model.RideRequest{bad}, nil)
	assert.True(t, model.IsValidation(err))
}

func TestOptimizerUsesConfiguredMatcher(t *testing.T) {
	o, err := NewOptimizer(Config{Matcher: factory.ModuleConfig{Type: LPName}}, nil)
	require.NoError(t, err)
	_, ok := o.matcher.(*LPMatcher)
	assert.True(t, ok)

	_, err = NewOptimizer(Config{Matcher: factory.ModuleConfig{Type: "hungarian"}}, nil)
	assert.Error(t, err)
	_, err = NewOptimizer(Config{WaitWeight: 0.5, DistanceWeight: 0.5, OccupancyWeight: 0.5}, nil)
	assert.Error(t, err)
	assert.Contains(t, Matchers(), GreedyName)
}

func TestMultiRiderCapacityRejected(t *testing.T) {
	o := newOptimizer(t)
	d := driver("d", 0, 0, 3, 0)
	plan, err := o.OptimizeMultiRiderRoutes(d, []model.RideRequest{
		rider("a", 0, 0.01, 2, 10),
		rider("b", 0, 0.02, 2, 10),
	})
	require.NoError(t, err)
	assert.False(t, plan.Success)
	assert.Equal(t, 3, plan.Capacity)
	assert.Equal(t, 4, plan.Requested)
	assert.Equal(t, ReasonCapacityExceeded, plan.Reason)
	assert.Empty(t, plan.Stops)
}

func TestMultiRiderNearestNeighbourSequence(t *testing.T) {
	o := newOptimizer(t)
	d := driver("d", 0, 0, 4, 0)
	riders := []model.RideRequest{
		rider("far", 0, 0.03, 1, 10),
		rider("near", 0, 0.01, 1, 10),
		rider("mid", 0, 0.02, 2, 10),
	}
	plan, err := o.OptimizeMultiRiderRoutes(d, riders)
	require.NoError(t, err)
	require.True(t, plan.Success)
	var order []string
	for _, s := range plan.Stops {
		order = append(order, s.RiderID)
	}
	assert.Equal(t, []string{"near", "mid", "far"}, order)
	leg := geo.Haversine(geo.Coordinate{}, geo.Coordinate{Lng: 0.01})
	assert.InDelta(t, 3*leg, plan.TotalDistanceKm, 1e-6)
	assert.InDelta(t, plan.TotalDistanceKm/30*60, plan.TotalMinutes, 1e-9)
	assert.InDelta(t, plan.TotalDistanceKm, plan.Stops[2].CumulativeDistanceKm, 1e-9)
	assert.Equal(t, 4, plan.Requested)
}

func TestMultiRiderEmpty(t *testing.T) {
	o := newOptimizer(t)
	plan, err := o.OptimizeMultiRiderRoutes(driver("d", 0, 0, 4, 0), nil)
	require.NoError(t, err)
	assert.True(t, plan.Success)
	assert.Empty(t, plan.Stops)
}
