package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridecore/core/dispatch"
	"github.com/kilianp07/ridecore/core/geo"
	"github.com/kilianp07/ridecore/core/model"
	"github.com/kilianp07/ridecore/core/routing"
	"github.com/kilianp07/ridecore/infra/mqtt"
)

func envelope(t *testing.T, kind string, payload any) mqtt.Envelope {
	t.Helper()
	env, err := mqtt.NewEnvelope(kind, model.PriorityStandard, time.Minute, payload)
	require.NoError(t, err)
	return env
}

func TestHandlerDispatch(t *testing.T) {
	h := Handler{Engine: newHarness(t).engine}
	env := envelope(t, KindDispatch, DispatchInput{
		Requests: []model.RideRequest{ride("r1", 0, 0, model.PriorityUrgent)},
		Drivers:  []model.Driver{drv("D1", 0, 0.01, 4.9)},
	})
	resp := h.Handle(context.Background(), env)
	assert.Equal(t, env.CorrelationID, resp.CorrelationID)
	assert.Equal(t, KindDispatch, resp.Kind)
	assert.Equal(t, string(model.StatusCompleted), resp.Status)
	assert.Equal(t, fixedNow, resp.Timestamp)

	var out dispatch.Outcome
	require.NoError(t, json.Unmarshal(resp.Output, &out))
	require.Len(t, out.Assignments, 1)
	assert.Equal(t, "D1", out.Assignments[0].DriverID)
}

func TestHandlerDegradedDispatchEncodesUnboundedRatios(t *testing.T) {
	h := Handler{Engine: newHarness(t).engine}
	resp := h.Handle(context.Background(), envelope(t, KindDispatch, DispatchInput{
		Requests: []model.RideRequest{ride("r1", 0, 0, "")},
	}))
	assert.Equal(t, string(model.StatusDegraded), resp.Status)
	assert.Empty(t, resp.Error)
	assert.Contains(t, string(resp.Output), `"demand_supply_ratio":null`)
}

func TestHandlerRouteValidationError(t *testing.T) {
	h := Handler{Engine: newHarness(t).engine}
	resp := h.Handle(context.Background(), envelope(t, KindRoute, routing.Request{
		Origin:      geo.Coordinate{Lat: 91},
		Destination: geo.Coordinate{},
		Traffic:     routing.Traffic{Severity: routing.SeverityLow},
	}))
	assert.Equal(t, string(model.StatusError), resp.Status)
	assert.Contains(t, resp.Error, "origin")
	assert.Empty(t, resp.Output)
}

func TestHandlerDriverLifecycle(t *testing.T) {
	e := newHarness(t).engine
	h := Handler{Engine: e}
	ctx := context.Background()

	resp := h.Handle(ctx, envelope(t, KindDriverUpsert, drv("D1", 0, 0, 4.8)))
	require.Equal(t, string(model.StatusCompleted), resp.Status)
	require.Len(t, e.Drivers(), 1)

	resp = h.Handle(ctx, envelope(t, KindDriverRelease, ReleaseInput{DriverID: "D1"}))
	require.Equal(t, string(model.StatusCompleted), resp.Status)
	var d model.Driver
	require.NoError(t, json.Unmarshal(resp.Output, &d))
	assert.Equal(t, model.DriverAvailable, d.Status)

	resp = h.Handle(ctx, envelope(t, KindDriverRelease, ReleaseInput{DriverID: "ghost"}))
	assert.Equal(t, string(model.StatusError), resp.Status)
	assert.Contains(t, resp.Error, "ghost")
}

func TestHandlerConsensus(t *testing.T) {
	h := Handler{Engine: newHarness(t).engine}
	resp := h.Handle(context.Background(), envelope(t, KindConsensus, ConsensusInput{Proposals: []model.Proposal{
		proposal("a", "A", 0.9, 8),
		proposal("b", "A", 0.8, 6),
	}}))
	assert.Equal(t, string(model.StatusCompleted), resp.Status)
	var out model.ConsensusResult
	require.NoError(t, json.Unmarshal(resp.Output, &out))
	assert.Equal(t, "A", out.Decision)
}

func TestHandlerRejectsBadInput(t *testing.T) {
	h := Handler{Engine: newHarness(t).engine}
	env := envelope(t, KindMatch, nil)
	env.Payload = json.RawMessage(`{"riders": 3}`)
	resp := h.Handle(context.Background(), env)
	assert.Equal(t, string(model.StatusError), resp.Status)
	assert.Contains(t, resp.Error, "decode match payload")

	resp = h.Handle(context.Background(), envelope(t, "teleport", struct{}{}))
	assert.Equal(t, string(model.StatusError), resp.Status)
	assert.Contains(t, resp.Error, ErrUnknownKind.Error())
	assert.Equal(t, fixedNow, resp.Timestamp)
}
