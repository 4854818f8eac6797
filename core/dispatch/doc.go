// Package dispatch assigns ride requests to drivers and derives the capacity
// and surge diagnostics that accompany every assignment batch.
//
// Drivers live in a DriverPool whose slots are versioned. The coordinator
// selects from a snapshot and claims with compare-and-swap, so concurrent
// batches sharing a pool never book the same driver twice.
package dispatch
