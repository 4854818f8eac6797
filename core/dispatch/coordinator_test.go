package dispatch

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/model"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(Config{}, nil)
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return fixedNow })
}

func drv(id string, lat, lng, rating float64, capacity int) model.Driver {
	return model.Driver{
		ID:              id,
		Location:        geo.Coordinate{Lat: lat, Lng: lng},
		Status:          model.DriverAvailable,
		Rating:          rating,
		VehicleCapacity: capacity,
		AcceptanceRate:  0.9,
	}
}

func req(id string, lat, lng float64, passengers int, p model.Priority) model.RideRequest {
	return model.RideRequest{
		ID:             id,
		Pickup:         geo.Coordinate{Lat: lat, Lng: lng},
		Dropoff:        geo.Coordinate{Lat: lat + 0.05, Lng: lng},
		RequestedAt:    fixedNow,
		Priority:       p,
		PassengerCount: passengers,
		MaxWaitMinutes: 10,
	}
}

func mustPool(t *testing.T, drivers ...model.Driver) *DriverPool {
	t.Helper()
	p, err := NewDriverPool(drivers)
	require.NoError(t, err)
	return p
}

func TestUrgentRequestPicksCloserBetterRatedDriver(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t,
		drv("D2", 0, 0.1, 4.0, 4),
		drv("D1", 0, 0.01, 4.9, 4),
	)
	out, err := c.OptimizeAssignment([]model.RideRequest{req("r1", 0, 0, 1, model.PriorityUrgent)}, pool, MarketConditions{})
	require.NoError(t, err)
	require.Len(t, out.Assignments, 1)
	a := out.Assignments[0]
	assert.Equal(t, "D1", a.DriverID)
	assert.InDelta(t, 1.112, a.PickupDistanceKm, 0.01)
	assert.InDelta(t, a.PickupDistanceKm/30*60, a.ETAMinutes, 1e-9)
	assert.Equal(t, model.QualityExcellent, a.MatchQuality)
	assert.Equal(t, fixedNow, a.AssignedAt)

	ref, ok := pool.Get("D1")
	require.True(t, ok)
	assert.Equal(t, model.DriverAssigned, ref.Driver.Status)
	assert.Equal(t, 1, ref.Driver.CurrentOccupancy)
	other, _ := pool.Get("D2")
	assert.Equal(t, model.DriverAvailable, other.Driver.Status)
}

func TestNonAvailableDriversNeverSelected(t *testing.T) {
	c := newTestCoordinator(t)
	offline := drv("off", 0, 0, 5, 4)
	offline.Status = model.DriverOffline
	busy := drv("busy", 0, 0.001, 5, 4)
	busy.Status = model.DriverAssigned
	pool := mustPool(t, offline, busy, drv("far", 0, 0.5, 3, 4))

	reqs := []model.RideRequest{req("r1", 0, 0, 1, model.PriorityStandard), req("r2", 0, 0, 1, model.PriorityStandard)}
	out, err := c.OptimizeAssignment(reqs, pool, MarketConditions{})
	require.NoError(t, err)
	assert.Equal(t, "far", out.Assignments[0].DriverID)
	assert.False(t, out.Assignments[1].Assigned())
	assert.Equal(t, 1, out.Unassigned())
}

func TestCapacityRespectedAtSelection(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t, drv("small", 0, 0, 5, 2), drv("van", 0, 0.2, 3.5, 6))
	out, err := c.OptimizeAssignment([]model.RideRequest{req("group", 0, 0, 5, model.PriorityStandard)}, pool, MarketConditions{})
	require.NoError(t, err)
	assert.Equal(t, "van", out.Assignments[0].DriverID)
	for _, a := range out.Assignments {
		if a.Assigned() {
			ref, _ := pool.Get(a.DriverID)
			assert.GreaterOrEqual(t, ref.Driver.VehicleCapacity, 5)
		}
	}
}

func TestCostIncreasesWithDistance(t *testing.T) {
	c := newTestCoordinator(t)
	d := drv("d", 0, 0, 4.5, 4)
	prev := -1.0
	for km := 0.0; km <= 50; km += 0.5 {
		cost := c.Cost(km, d, model.PriorityStandard)
		if cost <= prev {
			t.Fatalf("cost not strictly increasing at %v km", km)
		}
		prev = cost
	}
}

func TestPriorityScalesCost(t *testing.T) {
	c := newTestCoordinator(t)
	d := drv("d", 0, 0, 4, 4)
	std := c.Cost(3, d, model.PriorityStandard)
	assert.InDelta(t, std*0.5, c.Cost(3, d, model.PriorityUrgent), 1e-12)
	assert.InDelta(t, std*1.5, c.Cost(3, d, model.PriorityEconomy), 1e-12)
	// 3km at 30km/h = 0.1h, rating 4 -> 0.5, acceptance 0.9 -> 0.2
	assert.InDelta(t, 0.8, std, 1e-12)
}

func TestTieGoesToFirstDriver(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t, drv("first", 0, 0.01, 4.5, 4), drv("second", 0, -0.01, 4.5, 4))
	out, err := c.OptimizeAssignment([]model.RideRequest{req("r", 0, 0, 1, model.PriorityStandard)}, pool, MarketConditions{})
	require.NoError(t, err)
	assert.Equal(t, "first", out.Assignments[0].DriverID)
}

func TestRequestsProcessedInInputOrder(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t, drv("only", 0, 0, 4.5, 4))
	reqs := []model.RideRequest{
		req("economy-first", 0, 0.05, 1, model.PriorityEconomy),
		req("urgent-second", 0, 0, 1, model.PriorityUrgent),
	}
	out, err := c.OptimizeAssignment(reqs, pool, MarketConditions{})
	require.NoError(t, err)
	assert.Equal(t, "only", out.Assignments[0].DriverID)
	assert.False(t, out.Assignments[1].Assigned())
}

func TestUnassignedCarryReasonAndQueue(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t, drv("d", 0, 0, 4.5, 2))
	reqs := []model.RideRequest{
		req("big", 0, 0, 3, model.PriorityStandard),
		req("ok", 0, 0, 1, model.PriorityStandard),
		req("late1", 0, 0, 1, model.PriorityStandard),
		req("late2", 0, 0, 1, model.PriorityStandard),
	}
	out, err := c.OptimizeAssignment(reqs, pool, MarketConditions{})
	require.NoError(t, err)
	queue := 0
	for _, a := range out.Assignments {
		if a.Assigned() {
			continue
		}
		queue++
		assert.Equal(t, model.ReasonNoAvailableDrivers, a.Reason)
		assert.Equal(t, queue, a.QueuePosition)
	}
	assert.Equal(t, 3, queue)
	assert.Equal(t, "d", out.Assignments[1].DriverID)
}

// contendedPool loses every claim as if another batch always got there first.
type contendedPool struct {
	*DriverPool
	claims int
}

func (p *contendedPool) Claim(int, uint64, int) (model.Driver, error) {
	p.claims++
	return model.Driver{}, ErrStaleVersion
}

func TestClaimRetriesExhaustedReportConflict(t *testing.T) {
	c, err := NewCoordinator(Config{MaxClaimRetries: 2}, nil)
	require.NoError(t, err)
	pool := &contendedPool{DriverPool: mustPool(t, drv("D1", 0, 0.01, 5, 4))}

	asn, err := c.assign(req("r1", 0, 0, 1, model.PriorityStandard), pool)
	require.NoError(t, err)
	assert.False(t, asn.Assigned())
	assert.Equal(t, model.ReasonClaimConflict, asn.Reason)
	assert.Equal(t, 3, pool.claims)

	asn, err = c.assign(req("r2", 0, 0, 9, model.PriorityStandard), pool)
	require.NoError(t, err)
	assert.Empty(t, asn.Reason, "no eligible driver is labelled by the caller")
}

func TestInvalidInputFailsBeforeAssignment(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t, drv("d", 0, 0, 4.5, 4))
	bad := req("bad", math.NaN(), 0, 1, model.PriorityStandard)
	_, err := c.OptimizeAssignment([]model.RideRequest{req("good", 0, 0, 1, model.PriorityStandard), bad}, pool, MarketConditions{})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "pickup", ve.Field)
	ref, _ := pool.Get("d")
	assert.Equal(t, model.DriverAvailable, ref.Driver.Status, "pool must be untouched")

	_, err = c.OptimizeAssignment(nil, pool, MarketConditions{AvgWaitMinutes: -1})
	assert.True(t, model.IsValidation(err))
}

func TestNonFiniteDriverFieldsRejected(t *testing.T) {
	bad := drv("nan", 1, 0, 5, 4)
	bad.Rating = math.NaN()
	good := drv("good", 0, 0.001, 5, 4)
	_, err := NewDriverPool([]model.Driver{bad, good})
	assert.True(t, model.IsValidation(err))

	c := newTestCoordinator(t)
	market := MarketConditions{AvgWaitMinutes: math.Inf(1)}
	_, err = c.OptimizeAssignment([]model.RideRequest{req("r1", 0, 0, 1, model.PriorityStandard)}, mustPool(t, good), market)
	assert.True(t, model.IsValidation(err))
}

func TestOutcomeDiagnostics(t *testing.T) {
	c := newTestCoordinator(t)
	pool := mustPool(t, drv("a", 0, 0, 4.5, 4), drv("b", 0, 0.01, 4.5, 4))
	reqs := []model.RideRequest{
		req("r1", 0, 0, 1, model.PriorityStandard),
		req("r2", 0, 0, 1, model.PriorityStandard),
		req("r3", 0, 0, 1, model.PriorityStandard),
	}
	out, err := c.OptimizeAssignment(reqs, pool, MarketConditions{ActiveRequests: 5, AvgWaitMinutes: 4})
	require.NoError(t, err)
	assert.NotEmpty(t, out.BatchID)
	assert.Equal(t, 2, out.Capacity.AvailableDrivers)
	assert.InDelta(t, 2.0/3.0, out.Capacity.SupplyDemandRatio, 1e-9)
	assert.Equal(t, model.CapacityTight, out.Capacity.Status)
	assert.Equal(t, 2.0, out.Surge.Multiplier) // 5/2 = 2.5
	assert.True(t, out.Surge.Active)
	assert.Equal(t, model.SurgeHighDemand, out.Surge.Reason)
	assert.NotEmpty(t, out.Recommendations)
	require.Len(t, out.Drivers, 2)
	for _, d := range out.Drivers {
		assert.Equal(t, model.DriverAssigned, d.Status)
	}
}

func TestConcurrentBatchesNeverDoubleBook(t *testing.T) {
	c := newTestCoordinator(t)
	drivers := make([]model.Driver, 40)
	for i := range drivers {
		drivers[i] = drv(fmt.Sprintf("d%02d", i), 0, float64(i)*0.001, 4.5, 4)
	}
	pool := mustPool(t, drivers...)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned = map[string]string{}
		errs     []error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			reqs := make([]model.RideRequest, 10)
			for i := range reqs {
				reqs[i] = req(fmt.Sprintf("w%d-r%d", w, i), 0, 0, 1, model.PriorityStandard)
			}
			out, err := c.OptimizeAssignment(reqs, pool, MarketConditions{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for _, a := range out.Assignments {
				if !a.Assigned() {
					continue
				}
				if prev, dup := assigned[a.DriverID]; dup {
					errs = append(errs, fmt.Errorf("driver %s booked by %s and %s", a.DriverID, prev, a.RequestID))
				}
				assigned[a.DriverID] = a.RequestID
			}
		}(w)
	}
	wg.Wait()
	require.Empty(t, errs)
	assert.LessOrEqual(t, len(assigned), len(drivers))
	for _, d := range pool.Drivers() {
		if _, ok := assigned[d.ID]; ok {
			assert.Equal(t, model.DriverAssigned, d.Status)
		}
	}
}

func TestNewCoordinatorRejectsBadConfig(t *testing.T) {
	_, err := NewCoordinator(Config{SpeedKmh: -1}, nil)
	assert.Error(t, err)
	_, err = NewCoordinator(Config{PriorityMultipliers: map[model.Priority]float64{"vip": 1}}, nil)
	assert.Error(t, err)
}
