package matching

import (
	"sort"

	"github.com/kilianp07/ridecore/core/factory"
)

// Edge is a feasible rider/driver pairing with its score. Rider and Driver
// index the slices handed to FindBestMatches.
type Edge struct {
	Rider  int
	Driver int
	Score  float64
}

// Matcher selects a set of disjoint edges.
type Matcher interface {
	Match(edges []Edge) ([]Edge, error)
}

// GreedyName is the registry key of GreedyMatcher.
const GreedyName = "greedy"

// GreedyMatcher commits to the best remaining pair without backtracking. It is
// a maximum-weight matching approximation, not a global optimum: a high score
// taken early can block two pairs whose combined score is larger.
type GreedyMatcher struct{}

// Match sorts edges by descending score, keeping input order on ties, and
// takes every edge whose rider and driver are both still free.
func (GreedyMatcher) Match(edges []Edge) ([]Edge, error) {
	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	riders := map[int]bool{}
	drivers := map[int]bool{}
	var out []Edge
	for _, e := range sorted {
		if riders[e.Rider] || drivers[e.Driver] {
			continue
		}
		riders[e.Rider] = true
		drivers[e.Driver] = true
		out = append(out, e)
	}
	return out, nil
}

var matcherRegistry = factory.NewRegistry[Matcher]()

// RegisterMatcher adds a matcher factory identified by name.
func RegisterMatcher(name string, f factory.Factory[Matcher]) error {
	return matcherRegistry.Register(name, f)
}

// NewMatcher creates a Matcher from its module configuration.
func NewMatcher(cfg factory.ModuleConfig) (Matcher, error) {
	if cfg.Type == "" {
		return GreedyMatcher{}, nil
	}
	return matcherRegistry.Create(cfg)
}

// Matchers lists the registered matcher names.
func Matchers() []string { return matcherRegistry.Names() }

func init() {
	_ = RegisterMatcher(GreedyName, func(map[string]any) (Matcher, error) {
		return GreedyMatcher{}, nil
	})
	_ = RegisterMatcher(LPName, func(conf map[string]any) (Matcher, error) {
		var c LPConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewLPMatcher(c, nil), nil
	})
}
