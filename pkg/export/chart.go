package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/ridecore/core/decisionlog"
)

// dispatchPoint is the part of a dispatch payload plotted by the chart.
type dispatchPoint struct {
	Assignments []struct {
		DriverID string `json:"driver_id"`
	} `json:"assignments"`
	Surge struct {
		Multiplier float64 `json:"multiplier"`
	} `json:"surge"`
}

// DispatchChart renders an HTML line chart of dispatch batches: surge
// multiplier and assigned ride count per batch. Records of other kinds are
// ignored. It fails when no dispatch record carries a payload.
func DispatchChart(w io.Writer, recs []decisionlog.Record) error {
	var (
		xAxis    []string
		surge    []opts.LineData
		assigned []opts.LineData
	)
	for _, r := range recs {
		if r.Kind != decisionlog.KindDispatch || len(r.Payload) == 0 {
			continue
		}
		var p dispatchPoint
		if err := json.Unmarshal(r.Payload, &p); err != nil {
			return fmt.Errorf("decode dispatch %s: %w", r.ID, err)
		}
		n := 0
		for _, a := range p.Assignments {
			if a.DriverID != "" {
				n++
			}
		}
		xAxis = append(xAxis, r.Timestamp.Format("2006-01-02 15:04:05"))
		surge = append(surge, opts.LineData{Value: p.Surge.Multiplier})
		assigned = append(assigned, opts.LineData{Value: n})
	}
	if len(xAxis) == 0 {
		return errors.New("no dispatch records to chart")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Dispatch batches"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Batch time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Value"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)
	line.SetXAxis(xAxis).
		AddSeries("Surge multiplier", surge).
		AddSeries("Assigned rides", assigned)
	return line.Render(w)
}
