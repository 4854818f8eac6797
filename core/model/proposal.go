package model

import "time"

// Proposal is a decision suggested by an independent agent.
type Proposal struct {
	AgentID    string         `json:"agent_id" yaml:"agent_id"`
	Option     string         `json:"option" yaml:"option"`
	Payload    map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	Confidence float64        `json:"confidence" yaml:"confidence"`
	Priority   float64        `json:"priority" yaml:"priority"`
	Timestamp  time.Time      `json:"timestamp" yaml:"timestamp"`
}

// Validate checks the proposal bounds.
func (p Proposal) Validate() error {
	const rec = "proposal"
	if p.AgentID == "" {
		return invalid(rec, "", "agent_id", "is required")
	}
	if p.Option == "" {
		return invalid(rec, p.AgentID, "option", "is required")
	}
	if !Within(p.Confidence, 0, 1) {
		return invalid(rec, p.AgentID, "confidence", "must be within [0,1]")
	}
	if !Within(p.Priority, 0, 10) {
		return invalid(rec, p.AgentID, "priority", "must be within [0,10]")
	}
	return nil
}

// ValidateProposals validates every proposal in order.
func ValidateProposals(ps []Proposal) error {
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Consensus decision codes that are not option keys.
const (
	DecisionNoProposals   = "no_proposals"
	DecisionNoQuorum      = "no_quorum"
	DecisionWeakConsensus = "weak_consensus"
)

// ConsensusResult is the outcome of a weighted vote.
type ConsensusResult struct {
	Decision      string             `json:"decision"`
	Chosen        *Proposal          `json:"chosen,omitempty"`
	LeadingOption string             `json:"leading_option,omitempty"`
	Tally         map[string]float64 `json:"tally"`
	VoteShare     float64            `json:"vote_share"`
	Confidence    float64            `json:"confidence"`
	Participants  []string           `json:"participants"`
	QuorumMet     bool               `json:"quorum_met"`
}

// Decided reports whether the result names an option rather than a code.
func (r ConsensusResult) Decided() bool {
	switch r.Decision {
	case DecisionNoProposals, DecisionNoQuorum, DecisionWeakConsensus:
		return false
	}
	return r.Decision != ""
}
