package consensus

import (
	"sort"
	"time"

	"github.com/kilianp07/ridecore/core/model"
)

// ScoredProposal is a proposal ranked during conflict resolution.
type ScoredProposal struct {
	Proposal model.Proposal `json:"proposal"`
	Score    float64        `json:"score"`
	Recency  float64        `json:"recency"`
	Rank     int            `json:"rank"`
}

// ConflictResolution names the winning proposal and ranks the rest.
type ConflictResolution struct {
	ConflictType string           `json:"conflict_type"`
	Winner       *ScoredProposal  `json:"winner,omitempty"`
	Rejected     []ScoredProposal `json:"rejected"`
	ResolvedAt   time.Time        `json:"resolved_at"`
}

// Recency decays linearly from 1 for a proposal made at now to 0 once it is
// RecencyWindow old. Proposals dated in the future count as fresh.
func (r *Resolver) Recency(ts, now time.Time) float64 {
	age := now.Sub(ts)
	if age <= 0 {
		return 1
	}
	if age >= r.cfg.RecencyWindow {
		return 0
	}
	return 1 - float64(age)/float64(r.cfg.RecencyWindow)
}

// ConflictScore weighs confidence, priority, recency and reputation.
func (r *Resolver) ConflictScore(p model.Proposal, now time.Time) (score, recency float64) {
	recency = r.Recency(p.Timestamp, now)
	score = 0.4*p.Confidence + 0.3*(p.Priority/10) + 0.2*recency + 0.1*r.cfg.Reputation
	return score, recency
}

// ResolveConflicts ranks conflicting proposals against the reference time now.
// The order is fully determined by the inputs; equal scores keep input order.
func (r *Resolver) ResolveConflicts(proposals []model.Proposal, conflictType string, now time.Time) (ConflictResolution, error) {
	if err := model.ValidateProposals(proposals); err != nil {
		return ConflictResolution{}, err
	}
	res := ConflictResolution{ConflictType: conflictType, ResolvedAt: now, Rejected: []ScoredProposal{}}
	if len(proposals) == 0 {
		observeConflict(conflictType, 0)
		return res, nil
	}
	scored := make([]ScoredProposal, len(proposals))
	for i, p := range proposals {
		s, rec := r.ConflictScore(p, now)
		scored[i] = ScoredProposal{Proposal: p, Score: s, Recency: rec}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	for i := range scored {
		scored[i].Rank = i + 1
	}
	winner := scored[0]
	res.Winner = &winner
	res.Rejected = append(res.Rejected, scored[1:]...)
	r.log.Infof("conflict %q resolved for agent %s (score %.3f, %d rejected)",
		conflictType, winner.Proposal.AgentID, winner.Score, len(res.Rejected))
	observeConflict(conflictType, len(proposals))
	return res, nil
}

// ResolveConflictsNow resolves against the resolver clock.
func (r *Resolver) ResolveConflictsNow(proposals []model.Proposal, conflictType string) (ConflictResolution, error) {
	return r.ResolveConflicts(proposals, conflictType, r.Clock())
}
