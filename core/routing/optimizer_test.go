package routing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/model"
)

func newOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	o, err := NewOptimizer(Config{}, nil)
	require.NoError(t, err)
	return o
}

func TestOptimizeDirectRoute(t *testing.T) {
	o := newOptimizer(t)
	req := Request{
		Origin:      geo.Coordinate{},
		Destination: geo.Coordinate{Lat: 0.1},
		Traffic:     Traffic{CongestionIndex: 0, Severity: SeverityModerate},
	}
	r, err := o.Optimize(req)
	require.NoError(t, err)
	require.Len(t, r.Segments, 1)
	assert.Equal(t, "north", r.Segments[0].Direction)
	assert.InDelta(t, 11.12, r.TotalDistanceKm, 0.01)
	assert.Equal(t, r.TotalDistanceKm, r.DirectDistanceKm)
	assert.Equal(t, 60.0, r.ETA.AdjustedSpeedKmh)
	assert.InDelta(t, r.TotalDistanceKm, r.ETA.Minutes, 1e-9)
	assert.Equal(t, 0.85, r.ETA.Confidence)
	assert.Equal(t, []string{
		"Head north for 11.12 km to destination",
		"Arrive at destination",
	}, r.Directions)
}

func TestCongestionSlowsETA(t *testing.T) {
	o := newOptimizer(t)
	eta, err := o.EstimateETA(30, Traffic{CongestionIndex: 1, Severity: SeverityHigh})
	require.NoError(t, err)
	assert.InDelta(t, 40, eta.AdjustedSpeedKmh, 1e-9)
	assert.InDelta(t, 45, eta.Minutes, 1e-9)
	assert.Equal(t, 0.70, eta.Confidence)

	conf := map[Severity]float64{SeverityLow: 0.95, SeverityModerate: 0.85, SeverityHigh: 0.70, SeveritySevere: 0.55}
	for s, want := range conf {
		got, err := s.Confidence()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestWaypointReordering(t *testing.T) {
	o := newOptimizer(t)
	req := Request{
		Origin:      geo.Coordinate{},
		Destination: geo.Coordinate{Lng: 0.4},
		Waypoints:   []geo.Coordinate{{Lng: 0.3}, {Lng: 0.1}, {Lng: 0.2}},
		Criteria:    Criteria{OptimizeWaypoints: true, SkipAlternatives: true},
	}
	r, err := o.Optimize(req)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0}, r.WaypointOrder)
	require.Len(t, r.Segments, 4)
	for _, s := range r.Segments {
		assert.Equal(t, "east", s.Direction)
	}
	assert.InDelta(t, r.DirectDistanceKm, r.TotalDistanceKm, 1e-6)
	assert.Empty(t, r.Alternatives)
	assert.Equal(t, "Head east for 11.12 km to waypoint 1", r.Directions[0])
	assert.Len(t, r.Directions, 5)

	req.Criteria.OptimizeWaypoints = false
	r, err = o.Optimize(req)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, r.WaypointOrder)
	assert.Greater(t, r.TotalDistanceKm, r.DirectDistanceKm)
}

func TestAlternativesArePercentageTransforms(t *testing.T) {
	o := newOptimizer(t)
	alts := o.Alternatives(100)
	require.Len(t, alts, 2)
	assert.Equal(t, "highway", alts[0].Name)
	assert.InDelta(t, 110, alts[0].DistanceKm, 1e-9)
	assert.InDelta(t, 82.5, alts[0].Minutes, 1e-9)
	assert.Equal(t, "scenic", alts[1].Name)
	assert.InDelta(t, 120, alts[1].DistanceKm, 1e-9)
	assert.InDelta(t, 144, alts[1].Minutes, 1e-9)
}

func TestOptimizeValidation(t *testing.T) {
	o := newOptimizer(t)
	_, err := o.Optimize(Request{Origin: geo.Coordinate{Lat: math.NaN()}})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "origin", ve.Field)
	assert.True(t, errors.Is(err, geo.ErrInvalidCoordinate))

	_, err = o.Optimize(Request{Waypoints: []geo.Coordinate{{Lat: 100}}})
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "waypoints[0]", ve.Field)

	_, err = o.Optimize(Request{Traffic: Traffic{Severity: "gridlock"}})
	assert.True(t, model.IsValidation(err))
	for _, ci := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err = o.Optimize(Request{Traffic: Traffic{CongestionIndex: ci, Severity: SeverityLow}})
		require.True(t, errors.As(err, &ve), "congestion %v", ci)
		assert.Equal(t, "traffic.congestion_index", ve.Field)
	}
}

func TestNewOptimizerRejectsBadAlternative(t *testing.T) {
	_, err := NewOptimizer(Config{Alternatives: []AlternativeSpec{{Name: "ferry"}}}, nil)
	assert.Error(t, err)
}
