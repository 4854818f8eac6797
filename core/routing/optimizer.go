package routing

import (
	"fmt"
	"math"

	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/logger"
	"github.com/kilianp07/ridecore/core/model"
)

// Criteria tune how a route is built.
type Criteria struct {
	// OptimizeWaypoints reorders waypoints nearest-first from the origin.
	OptimizeWaypoints bool `json:"optimize_waypoints" yaml:"optimize_waypoints"`
	// SkipAlternatives omits the named variants.
	SkipAlternatives bool `json:"skip_alternatives" yaml:"skip_alternatives"`
}

// Request is a routing query.
type Request struct {
	Origin      geo.Coordinate   `json:"origin" yaml:"origin"`
	Destination geo.Coordinate   `json:"destination" yaml:"destination"`
	Waypoints   []geo.Coordinate `json:"waypoints" yaml:"waypoints"`
	Traffic     Traffic          `json:"traffic" yaml:"traffic"`
	Criteria    Criteria         `json:"criteria" yaml:"criteria"`
}

// Validate rejects malformed coordinates and traffic values.
func (r Request) Validate() error {
	const rec = "route request"
	if err := r.Origin.Validate(); err != nil {
		return &model.ValidationError{Record: rec, Field: "origin", Reason: err.Error(), Err: err}
	}
	if err := r.Destination.Validate(); err != nil {
		return &model.ValidationError{Record: rec, Field: "destination", Reason: err.Error(), Err: err}
	}
	for i, w := range r.Waypoints {
		if err := w.Validate(); err != nil {
			return &model.ValidationError{Record: rec, Field: fmt.Sprintf("waypoints[%d]", i), Reason: err.Error(), Err: err}
		}
	}
	if !(r.Traffic.CongestionIndex >= 0) || math.IsInf(r.Traffic.CongestionIndex, 0) {
		return &model.ValidationError{Record: rec, Field: "traffic.congestion_index", Reason: "must be finite and not negative"}
	}
	if _, err := r.Traffic.Severity.Confidence(); err != nil {
		return &model.ValidationError{Record: rec, Field: "traffic.severity", Reason: err.Error()}
	}
	return nil
}

// Segment is one great-circle leg of a route.
type Segment struct {
	From       geo.Coordinate `json:"from"`
	To         geo.Coordinate `json:"to"`
	DistanceKm float64        `json:"distance_km"`
	Bearing    float64        `json:"bearing"`
	Direction  string         `json:"direction"`
}

// Alternative is a named variant of the direct route.
type Alternative struct {
	Name       string  `json:"name"`
	DistanceKm float64 `json:"distance_km"`
	SpeedKmh   float64 `json:"speed_kmh"`
	Minutes    float64 `json:"minutes"`
}

// Route is the computed itinerary.
type Route struct {
	Segments []Segment `json:"segments"`
	// WaypointOrder maps visiting order to indexes of the requested waypoints.
	WaypointOrder    []int         `json:"waypoint_order"`
	TotalDistanceKm  float64       `json:"total_distance_km"`
	DirectDistanceKm float64       `json:"direct_distance_km"`
	ETA              ETA           `json:"eta"`
	Directions       []string      `json:"directions"`
	Alternatives     []Alternative `json:"alternatives,omitempty"`
}

// Optimizer builds great-circle routes. It has no road graph: distances are
// straight legs and alternatives are fixed transforms of the direct distance.
type Optimizer struct {
	cfg Config
	log logger.Logger
}

// NewOptimizer returns a route optimizer.
func NewOptimizer(cfg Config, log logger.Logger) (*Optimizer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("routing config: %w", err)
	}
	return &Optimizer{cfg: cfg, log: logger.OrNop(log)}, nil
}

// Optimize computes segments, ETA, directions and alternatives for req. An
// empty traffic severity is read as low.
func (o *Optimizer) Optimize(req Request) (Route, error) {
	if req.Traffic.Severity == "" {
		req.Traffic.Severity = SeverityLow
	}
	if err := req.Validate(); err != nil {
		return Route{}, err
	}

	order := make([]int, len(req.Waypoints))
	for i := range order {
		order[i] = i
	}
	if req.Criteria.OptimizeWaypoints {
		order = geo.NearestNeighborOrder(req.Origin, req.Waypoints)
	}
	points := make([]geo.Coordinate, 0, len(req.Waypoints)+2)
	points = append(points, req.Origin)
	for _, i := range order {
		points = append(points, req.Waypoints[i])
	}
	points = append(points, req.Destination)

	route := Route{WaypointOrder: order, DirectDistanceKm: geo.Haversine(req.Origin, req.Destination)}
	for i := 1; i < len(points); i++ {
		from, to := points[i-1], points[i]
		b := geo.Bearing(from, to)
		seg := Segment{From: from, To: to, DistanceKm: geo.Haversine(from, to), Bearing: b, Direction: geo.Cardinal(b)}
		route.TotalDistanceKm += seg.DistanceKm
		route.Segments = append(route.Segments, seg)
	}

	eta, err := o.EstimateETA(route.TotalDistanceKm, req.Traffic)
	if err != nil {
		return Route{}, err
	}
	route.ETA = eta
	route.Directions = Directions(route.Segments)
	if !req.Criteria.SkipAlternatives {
		route.Alternatives = o.Alternatives(route.DirectDistanceKm)
	}
	o.log.Debugw("route computed", map[string]any{
		"segments":    len(route.Segments),
		"distance_km": route.TotalDistanceKm,
		"eta_minutes": route.ETA.Minutes,
	})
	return route, nil
}

// Alternatives derives the configured variants from the direct distance.
func (o *Optimizer) Alternatives(directKm float64) []Alternative {
	out := make([]Alternative, 0, len(o.cfg.Alternatives))
	for _, spec := range o.cfg.Alternatives {
		d := directKm * spec.DistanceFactor
		out = append(out, Alternative{
			Name:       spec.Name,
			DistanceKm: d,
			SpeedKmh:   spec.SpeedKmh,
			Minutes:    d / spec.SpeedKmh * 60,
		})
	}
	return out
}
