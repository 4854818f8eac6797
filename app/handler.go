package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/ridecore/core/model"
	"github.com/kilianp07/ridecore/infra/mqtt"
)

// Request kinds served over the bus.
const (
	KindDispatch      = "dispatch"
	KindMatch         = "match"
	KindMultiRoute    = "multi_route"
	KindRoute         = "route"
	KindConsensus     = "consensus"
	KindConflicts     = "conflicts"
	KindDriverUpsert  = "driver_upsert"
	KindDriverRelease = "driver_release"
)

// ErrUnknownKind is replied for envelopes the engine does not serve.
var ErrUnknownKind = errors.New("unknown request kind")

// Handler adapts an Engine to mqtt.Handler.
type Handler struct {
	Engine *Engine
}

// Handle decodes the payload for env.Kind, runs the engine and encodes the reply.
func (h Handler) Handle(ctx context.Context, env mqtt.Envelope) mqtt.Response {
	switch env.Kind {
	case KindDispatch:
		return serve(ctx, env, h.Engine.Dispatch)
	case KindMatch:
		return serve(ctx, env, h.Engine.Match)
	case KindMultiRoute:
		return serve(ctx, env, h.Engine.PlanMultiRider)
	case KindRoute:
		return serve(ctx, env, h.Engine.Route)
	case KindConsensus:
		return serve(ctx, env, h.Engine.Consensus)
	case KindConflicts:
		return serve(ctx, env, h.Engine.ResolveConflicts)
	case KindDriverUpsert:
		return serve(ctx, env, func(ctx context.Context, d model.Driver) (model.Result[model.Driver], error) {
			at := h.Engine.now()
			if err := h.Engine.UpsertDriver(ctx, d); err != nil {
				return model.Failed[model.Driver](at, err), err
			}
			return model.Completed(at, d), nil
		})
	case KindDriverRelease:
		return serve(ctx, env, func(ctx context.Context, in ReleaseInput) (model.Result[model.Driver], error) {
			at := h.Engine.now()
			d, err := h.Engine.ReleaseDriver(ctx, in)
			if err != nil {
				return model.Failed[model.Driver](at, err), err
			}
			return model.Completed(at, d), nil
		})
	default:
		return mqtt.ErrorResponse(env, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind), h.Engine.now())
	}
}

func serve[In, Out any](ctx context.Context, env mqtt.Envelope, fn func(context.Context, In) (model.Result[Out], error)) mqtt.Response {
	var in In
	if err := json.Unmarshal(env.Payload, &in); err != nil {
		return mqtt.ErrorResponse(env, fmt.Errorf("decode %s payload: %w", env.Kind, err), time.Now().UTC())
	}
	res, _ := fn(ctx, in)
	resp := mqtt.Response{
		CorrelationID: env.CorrelationID,
		Kind:          env.Kind,
		Status:        string(res.Status),
		Timestamp:     res.Timestamp,
		Error:         res.Error,
	}
	if res.Status != model.StatusError {
		raw, err := json.Marshal(res.Output)
		if err != nil {
			return mqtt.ErrorResponse(env, fmt.Errorf("encode %s output: %w", env.Kind, err), res.Timestamp)
		}
		resp.Output = raw
	}
	return resp
}
