// Package monitoring forwards unexpected engine failures to an error tracker.
package monitoring

import "time"

// Monitor receives errors worth a human look: recovered panics and internal
// failures. Validation errors are not reported.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops everything.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the process wide monitor. A nil m restores NopMonitor.
func Init(m Monitor) {
	if m == nil {
		m = NopMonitor{}
	}
	current = m
}

// CaptureException records err with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	current.CaptureException(err, tags)
}

// Flush waits up to d for buffered reports to be sent.
func Flush(d time.Duration) { current.Flush(d) }
