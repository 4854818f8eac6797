// Package events defines the engine events emitted on the event bus.
//
// Available event types:
//   - AssignmentEvent: one dispatch batch completed
//   - SurgeEvent: surge state computed for a batch
//   - ConsensusEvent: a weighted vote was evaluated
//   - ConflictEvent: a conflict was resolved
package events
