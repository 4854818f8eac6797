package consensus

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/ridecore/core/logger"
	"github.com/kilianp07/ridecore/core/model"
)

// Resolver turns agent proposals into a single decision.
type Resolver struct {
	cfg Config
	log logger.Logger
	// Clock supplies the reference time when callers do not pass one.
	Clock func() time.Time
}

// NewResolver returns a resolver with defaults applied to cfg.
func NewResolver(cfg Config, log logger.Logger) (*Resolver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("consensus config: %w", err)
	}
	return &Resolver{cfg: cfg, log: logger.OrNop(log), Clock: time.Now}, nil
}

// CalculateConsensus runs a weighted vote. Each proposal contributes
// confidence*(priority/10)*weight to its option, where weight comes from
// weights keyed by agent id and defaults to 1. The highest total wins and
// ties go to the option seen first. The leader is always reported, even when
// the decision is weak_consensus.
func (r *Resolver) CalculateConsensus(proposals []model.Proposal, weights map[string]float64) (model.ConsensusResult, error) {
	if err := model.ValidateProposals(proposals); err != nil {
		return model.ConsensusResult{}, err
	}
	for agent, w := range weights {
		if !(w >= 0) || math.IsInf(w, 0) {
			return model.ConsensusResult{}, &model.ValidationError{Record: "weights", ID: agent, Field: "weight", Reason: "must be finite and not negative"}
		}
	}

	res := model.ConsensusResult{Tally: map[string]float64{}, Participants: participants(proposals)}
	if len(proposals) == 0 {
		res.Decision = model.DecisionNoProposals
		observeDecision(res)
		return res, nil
	}
	if len(proposals) < r.cfg.QuorumSize {
		res.Decision = model.DecisionNoQuorum
		observeDecision(res)
		return res, nil
	}
	res.QuorumMet = true

	var order []string
	var total float64
	for _, p := range proposals {
		w := 1.0
		if ew, ok := weights[p.AgentID]; ok {
			w = ew
		}
		vote := p.Confidence * (p.Priority / 10) * w
		if _, seen := res.Tally[p.Option]; !seen {
			order = append(order, p.Option)
		}
		res.Tally[p.Option] += vote
		total += vote
	}
	leader := order[0]
	for _, opt := range order[1:] {
		if res.Tally[opt] > res.Tally[leader] {
			leader = opt
		}
	}

	var confSum float64
	var n int
	for i := range proposals {
		if proposals[i].Option != leader {
			continue
		}
		if res.Chosen == nil {
			chosen := proposals[i]
			res.Chosen = &chosen
		} else if proposals[i].Confidence*proposals[i].Priority > res.Chosen.Confidence*res.Chosen.Priority {
			chosen := proposals[i]
			res.Chosen = &chosen
		}
		confSum += proposals[i].Confidence
		n++
	}
	if total > 0 {
		res.VoteShare = res.Tally[leader] / total
	}
	res.LeadingOption = leader
	res.Confidence = (res.VoteShare + confSum/float64(n)) / 2
	res.Decision = leader
	if res.Confidence < r.cfg.MinConfidence {
		res.Decision = model.DecisionWeakConsensus
	}
	r.log.Debugw("consensus computed", map[string]any{
		"decision":   res.Decision,
		"leader":     leader,
		"confidence": res.Confidence,
		"proposals":  len(proposals),
	})
	observeDecision(res)
	return res, nil
}

func participants(ps []model.Proposal) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range ps {
		if !seen[p.AgentID] {
			seen[p.AgentID] = true
			out = append(out, p.AgentID)
		}
	}
	return out
}
