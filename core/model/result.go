package model

import "time"

// Status is the envelope state of a computation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDegraded  Status = "degraded"
	StatusError     Status = "error"
)

// Result wraps a component output with its status and computation time.
type Result[T any] struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Output    T         `json:"output"`
	Error     string    `json:"error,omitempty"`
}

// Completed returns a completed result.
func Completed[T any](at time.Time, out T) Result[T] {
	return Result[T]{Status: StatusCompleted, Timestamp: at, Output: out}
}

// Degraded returns a result whose output is valid but incomplete.
func Degraded[T any](at time.Time, out T) Result[T] {
	return Result[T]{Status: StatusDegraded, Timestamp: at, Output: out}
}

// Failed returns an error result carrying no output.
func Failed[T any](at time.Time, err error) Result[T] {
	r := Result[T]{Status: StatusError, Timestamp: at}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}
