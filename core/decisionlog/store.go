// Package decisionlog keeps an audit trail of engine decisions.
package decisionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Kind names the engine operation that produced a record.
type Kind string

const (
	KindDispatch   Kind = "dispatch"
	KindMatch      Kind = "match"
	KindMultiRoute Kind = "multi_route"
	KindRoute      Kind = "route"
	KindConsensus  Kind = "consensus"
	KindConflict   Kind = "conflict"
)

// Record captures one engine decision.
type Record struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Timestamp  time.Time       `json:"timestamp"`
	Status     string          `json:"status"`
	RequestIDs []string        `json:"request_ids,omitempty"`
	DriverIDs  []string        `json:"driver_ids,omitempty"`
	AgentIDs   []string        `json:"agent_ids,omitempty"`
	Decision   string          `json:"decision,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewRecord builds a record with a fresh id and payload marshalled as JSON.
func NewRecord(kind Kind, ts time.Time, payload any) (Record, error) {
	rec := Record{ID: uuid.NewString(), Kind: kind, Timestamp: ts}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Record{}, fmt.Errorf("marshal %s payload: %w", kind, err)
		}
		rec.Payload = raw
	}
	return rec, nil
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start     time.Time
	End       time.Time
	Kind      Kind
	RequestID string
	DriverID  string
	AgentID   string
	// Limit caps the number of records returned, oldest first.
	Limit int
}

// Matches reports whether r satisfies every filter of q.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.RequestID != "" && !slices.Contains(r.RequestIDs, q.RequestID) {
		return false
	}
	if q.DriverID != "" && !slices.Contains(r.DriverIDs, q.DriverID) {
		return false
	}
	if q.AgentID != "" && !slices.Contains(r.AgentIDs, q.AgentID) {
		return false
	}
	return true
}

func (q Query) full(n int) bool { return q.Limit > 0 && n >= q.Limit }

// Store persists records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
