package mqtt

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridecore/core/model"
)

// ErrExpired is returned for envelopes whose time to live has elapsed.
var ErrExpired = errors.New("envelope expired")

// Envelope wraps every request received on the bus.
type Envelope struct {
	CorrelationID string          `json:"correlation_id"`
	Kind          string          `json:"kind"`
	Priority      model.Priority  `json:"priority,omitempty"`
	TTLMs         int64           `json:"ttl_ms,omitempty"`
	SentAt        time.Time       `json:"sent_at"`
	ReplyTo       string          `json:"reply_to,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope builds a request with a fresh correlation id.
func NewEnvelope(kind string, priority model.Priority, ttl time.Duration, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		CorrelationID: uuid.NewString(),
		Kind:          kind,
		Priority:      priority,
		TTLMs:         ttl.Milliseconds(),
		SentAt:        time.Now().UTC(),
		Payload:       raw,
	}, nil
}

// Expired reports whether the envelope outlived its TTL at now. A zero TTL or
// a missing send time never expires.
func (e Envelope) Expired(now time.Time) bool {
	if e.TTLMs <= 0 || e.SentAt.IsZero() {
		return false
	}
	return now.After(e.SentAt.Add(time.Duration(e.TTLMs) * time.Millisecond))
}

// Response is published for every handled envelope.
type Response struct {
	CorrelationID string          `json:"correlation_id"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
	Output        json.RawMessage `json:"output,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ErrorResponse builds an error reply for env.
func ErrorResponse(env Envelope, err error, now time.Time) Response {
	return Response{
		CorrelationID: env.CorrelationID,
		Kind:          env.Kind,
		Status:        string(model.StatusError),
		Timestamp:     now,
		Error:         err.Error(),
	}
}
