// Package consensus aggregates weighted proposals from independent agents and
// resolves conflicts between them deterministically.
package consensus
