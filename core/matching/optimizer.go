package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/logger"
	"github.com/kilianp07/ridecore/core/model"
)

// Breakdown details the components of a match score.
type Breakdown struct {
	WaitScore        float64 `json:"wait_score"`
	DistanceScore    float64 `json:"distance_score"`
	OccupancyScore   float64 `json:"occupancy_score"`
	PickupDistanceKm float64 `json:"pickup_distance_km"`
	ETAMinutes       float64 `json:"eta_minutes"`
	// CapacityOK is false when the riders do not fit; such a pair is never matched.
	CapacityOK bool `json:"capacity_ok"`
}

// Match is a selected rider/driver pair.
type Match struct {
	RiderID   string    `json:"rider_id"`
	DriverID  string    `json:"driver_id"`
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Optimizer scores rider/driver pairs and plans shared pickups.
type Optimizer struct {
	cfg     Config
	matcher Matcher
	log     logger.Logger
}

// NewOptimizer builds an optimizer using the matcher named in cfg.
func NewOptimizer(cfg Config, log logger.Logger) (*Optimizer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	m, err := NewMatcher(cfg.Matcher)
	if err != nil {
		return nil, fmt.Errorf("matcher: %w", err)
	}
	return &Optimizer{cfg: cfg, matcher: m, log: logger.OrNop(log)}, nil
}

// WithMatcher swaps the pair selection strategy.
func (o *Optimizer) WithMatcher(m Matcher) *Optimizer {
	o.matcher = m
	return o
}

// CalculateMatchQuality scores how well driver serves rider on a 0-1 scale.
func (o *Optimizer) CalculateMatchQuality(rider model.RideRequest, driver model.Driver) (float64, Breakdown) {
	var b Breakdown
	b.PickupDistanceKm = geo.Haversine(driver.Location, rider.Pickup)
	b.ETAMinutes = b.PickupDistanceKm / o.cfg.SpeedKmh * 60

	if rider.MaxWaitMinutes > 0 {
		b.WaitScore = math.Max(0, 1-b.ETAMinutes/rider.MaxWaitMinutes)
	}
	b.DistanceScore = math.Max(0, 1-b.PickupDistanceKm/o.cfg.MaxPickupKm)
	if driver.Fits(rider.PassengerCount) {
		b.CapacityOK = true
		b.OccupancyScore = float64(driver.CurrentOccupancy+rider.PassengerCount) / float64(driver.VehicleCapacity)
	}
	score := o.cfg.WaitWeight*b.WaitScore + o.cfg.DistanceWeight*b.DistanceScore + o.cfg.OccupancyWeight*b.OccupancyScore
	return score, b
}

// FindBestMatches scores every feasible pair and lets the configured Matcher
// pick disjoint pairs. Results are ordered by descending score.
func (o *Optimizer) FindBestMatches(riders []model.RideRequest, drivers []model.Driver) ([]Match, error) {
	if err := model.ValidateRequests(riders); err != nil {
		return nil, err
	}
	if err := model.ValidateDrivers(drivers); err != nil {
		return nil, err
	}

	var edges []Edge
	breakdowns := map[[2]int]Breakdown{}
	for ri, r := range riders {
		for di, d := range drivers {
			if !d.Available() || !d.Fits(r.PassengerCount) {
				continue
			}
			score, b := o.CalculateMatchQuality(r, d)
			edges = append(edges, Edge{Rider: ri, Driver: di, Score: score})
			breakdowns[[2]int{ri, di}] = b
		}
	}

	selected, err := o.matcher.Match(edges)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	out := make([]Match, 0, len(selected))
	for _, e := range selected {
		out = append(out, Match{
			RiderID:   riders[e.Rider].ID,
			DriverID:  drivers[e.Driver].ID,
			Score:     e.Score,
			Breakdown: breakdowns[[2]int{e.Rider, e.Driver}],
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	o.log.Debugw("matches selected", map[string]any{
		"riders":   len(riders),
		"drivers":  len(drivers),
		"feasible": len(edges),
		"matched":  len(out),
	})
	return out, nil
}
