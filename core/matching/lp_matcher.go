package matching

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/ridecore/core/logger"
)

// LPName is the registry key of LPMatcher.
const LPName = "lp"

// LPConfig tunes the LP matcher.
type LPConfig struct {
	// MaxEdges bounds the problem size; larger inputs use the greedy matcher.
	MaxEdges int `json:"max_edges"`
}

// ErrNonIntegral is returned when the solver stops on a fractional vertex.
var ErrNonIntegral = errors.New("lp solution is not integral")

// LPMatcher finds a maximum-weight matching by solving the LP relaxation
//
//	maximise   Σ score_e x_e
//	subject to Σ_{e∋r} x_e <= 1 for every rider r
//	           Σ_{e∋d} x_e <= 1 for every driver d
//	           x_e >= 0
//
// The bipartite matching polytope is integral, so the simplex vertex is a
// matching. Solver failures fall back to GreedyMatcher. The problem holds one
// row per rider and driver, so memory grows with (riders+drivers)×edges.
type LPMatcher struct {
	maxEdges int
	log      logger.Logger
}

// NewLPMatcher returns an LP matcher. A zero MaxEdges defaults to 2500.
func NewLPMatcher(cfg LPConfig, log logger.Logger) *LPMatcher {
	if cfg.MaxEdges <= 0 {
		cfg.MaxEdges = 2500
	}
	return &LPMatcher{maxEdges: cfg.MaxEdges, log: logger.OrNop(log)}
}

// solveLP minimises c·x subject to g·x <= h and x >= 0. One slack per row
// turns it into the standard form [g | I]·(x, s) = h expected by lp.Simplex.
func solveLP(c []float64, g *mat.Dense, h []float64) ([]float64, error) {
	m, n := g.Dims()
	a := mat.NewDense(m, n+m, nil)
	a.Slice(0, m, 0, n).(*mat.Dense).Copy(g)
	for i := 0; i < m; i++ {
		a.Set(i, n+i, 1)
	}
	cStd := make([]float64, n+m)
	copy(cStd, c)
	_, sol, err := lp.Simplex(cStd, a, h, 1e-7, nil)
	if err != nil {
		return nil, err
	}
	return sol[:n], nil
}

// lpSolve points to the function used to solve the LP. It can be overridden in
// tests to simulate solver failures.
var lpSolve = solveLP

// MatchStrict solves the LP and returns an error instead of falling back.
func (m *LPMatcher) MatchStrict(edges []Edge) ([]Edge, error) {
	if len(edges) == 0 {
		return nil, nil
	}
	riderRow := map[int]int{}
	driverRow := map[int]int{}
	for _, e := range edges {
		if _, ok := riderRow[e.Rider]; !ok {
			riderRow[e.Rider] = len(riderRow)
		}
	}
	for _, e := range edges {
		if _, ok := driverRow[e.Driver]; !ok {
			driverRow[e.Driver] = len(riderRow) + len(driverRow)
		}
	}

	n := len(edges)
	rows := len(riderRow) + len(driverRow)
	g := mat.NewDense(rows, n, nil)
	h := make([]float64, rows)
	c := make([]float64, n)
	for i, e := range edges {
		c[i] = -e.Score
		g.Set(riderRow[e.Rider], i, 1)
		g.Set(driverRow[e.Driver], i, 1)
	}
	for i := range h {
		h[i] = 1
	}

	x, err := lpSolve(c, g, h)
	if err != nil {
		return nil, fmt.Errorf("simplex: %w", err)
	}
	var out []Edge
	for i, v := range x {
		switch {
		case math.Abs(v-1) < 1e-6:
			out = append(out, edges[i])
		case math.Abs(v) < 1e-6:
		default:
			return nil, fmt.Errorf("%w: x[%d]=%.4f", ErrNonIntegral, i, v)
		}
	}
	return out, nil
}

// Match implements Matcher.
func (m *LPMatcher) Match(edges []Edge) ([]Edge, error) {
	if len(edges) > m.maxEdges {
		m.log.Warnf("lp matcher: %d edges above limit %d, using greedy", len(edges), m.maxEdges)
		return GreedyMatcher{}.Match(edges)
	}
	out, err := m.MatchStrict(edges)
	if err != nil {
		m.log.Warnf("lp matcher failed, using greedy: %v", err)
		return GreedyMatcher{}.Match(edges)
	}
	return out, nil
}
