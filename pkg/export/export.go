// Package export renders decision records for offline review.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kilianp07/ridecore/core/decisionlog"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Write encodes records in the named format.
func Write(w io.Writer, format string, recs []decisionlog.Record) error {
	switch format {
	case "", FormatJSON:
		return WriteJSON(w, recs)
	case FormatCSV:
		return WriteCSV(w, recs)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteJSON writes one record per line.
func WriteJSON(w io.Writer, recs []decisionlog.Record) error {
	enc := json.NewEncoder(w)
	for _, r := range recs {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the record summaries without payloads. Id lists are
// joined with ';'.
func WriteCSV(w io.Writer, recs []decisionlog.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "timestamp", "kind", "status", "decision", "request_ids", "driver_ids", "agent_ids"}); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.ID,
			r.Timestamp.Format(time.RFC3339Nano),
			string(r.Kind),
			r.Status,
			r.Decision,
			strings.Join(r.RequestIDs, ";"),
			strings.Join(r.DriverIDs, ";"),
			strings.Join(r.AgentIDs, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
