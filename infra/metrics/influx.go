package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ridecore/core/metrics"
	"github.com/kilianp07/ridecore/infra/logger"
)

const influxWriteTimeout = 5 * time.Second

// InfluxSink writes engine records to InfluxDB using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A trailing
// /api/v2/write on url is tolerated.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: influxWriteTimeout}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordAssignments writes one ride_assignment point per record.
func (s *InfluxSink) RecordAssignments(recs []coremetrics.AssignmentRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*influxWriteTimeout)
	defer cancel()
	for _, r := range recs {
		if err := s.writeAPI.WritePoint(ctx, assignmentPoint(r)); err != nil {
			return err
		}
	}
	return nil
}

func assignmentPoint(r coremetrics.AssignmentRecord) *write.Point {
	p := write.NewPointWithMeasurement("ride_assignment").
		AddTag("assigned", strconv.FormatBool(r.Assigned)).
		AddTag("batch_id", r.BatchID)
	if r.Assigned {
		p = p.AddTag("driver_id", r.DriverID)
	}
	return p.AddTag("priority", string(r.Priority)).
		AddTag("request_id", r.RequestID).
		AddField("cost", round3(r.Cost)).
		AddField("eta_minutes", round3(r.ETAMinutes)).
		AddField("match_score", round3(r.MatchScore)).
		AddField("pickup_km", round3(r.PickupDistanceKm)).
		SetTime(r.Time)
}

// RecordSurge writes a surge_state point.
func (s *InfluxSink) RecordSurge(rec coremetrics.SurgeRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()
	p := write.NewPointWithMeasurement("surge_state").
		AddTag("batch_id", rec.BatchID).
		AddTag("health", string(rec.Health)).
		AddTag("reason", string(rec.Reason)).
		AddField("active", rec.Active)
	if !math.IsInf(rec.DemandSupplyRatio, 0) {
		p = p.AddField("demand_supply_ratio", round3(rec.DemandSupplyRatio))
	}
	p = p.AddField("multiplier", round3(rec.Multiplier))
	if !math.IsInf(rec.SupplyDemandRatio, 0) {
		p = p.AddField("supply_demand_ratio", round3(rec.SupplyDemandRatio))
	}
	p = p.SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordConsensus writes a consensus_round point.
func (s *InfluxSink) RecordConsensus(rec coremetrics.ConsensusRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()
	p := write.NewPointWithMeasurement("consensus_round").
		AddTag("decision", rec.Decision).
		AddTag("quorum_met", strconv.FormatBool(rec.QuorumMet)).
		AddField("confidence", round3(rec.Confidence)).
		AddField("participants", rec.Participants).
		AddField("vote_share", round3(rec.VoteShare)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordConflict writes a conflict_resolved point.
func (s *InfluxSink) RecordConflict(rec coremetrics.ConflictRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()
	p := write.NewPointWithMeasurement("conflict_resolved").
		AddTag("conflict_type", rec.ConflictType).
		AddTag("winner", rec.WinnerAgent).
		AddField("candidates", rec.Candidates).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
