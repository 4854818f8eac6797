package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridecore/config"
	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/pkg/export"
)

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Decision log related commands",
}

var decisionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded decisions as JSON lines or CSV",
	RunE:  runDecisionsLs,
}

var decisionsChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render dispatch batches as an HTML chart",
	RunE:  runDecisionsChart,
}

var decisionsFlags struct {
	kind    string
	request string
	driver  string
	agent   string
	since   time.Duration
	limit   int
	format  string
	output  string
}

func init() {
	for _, c := range []*cobra.Command{decisionsLsCmd, decisionsChartCmd} {
		f := c.Flags()
		f.StringVar(&decisionsFlags.request, "request", "", "only records touching this request id")
		f.StringVar(&decisionsFlags.driver, "driver", "", "only records touching this driver id")
		f.DurationVar(&decisionsFlags.since, "since", 0, "only records younger than this")
		f.IntVar(&decisionsFlags.limit, "limit", 0, "maximum number of records")
		decisionsCmd.AddCommand(c)
	}
	ls := decisionsLsCmd.Flags()
	ls.StringVar(&decisionsFlags.kind, "kind", "", "only records of this kind")
	ls.StringVar(&decisionsFlags.agent, "agent", "", "only records touching this agent id")
	ls.StringVar(&decisionsFlags.format, "format", export.FormatJSON, "output format: json or csv")
	decisionsChartCmd.Flags().StringVarP(&decisionsFlags.output, "output", "o", "", "HTML file to write, stdout when empty")
	rootCmd.AddCommand(decisionsCmd)
}

func runDecisionsLs(cmd *cobra.Command, args []string) error {
	recs, err := queryDecisions(cmd, decisionlog.Kind(decisionsFlags.kind))
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), decisionsFlags.format, recs)
}

func runDecisionsChart(cmd *cobra.Command, args []string) error {
	recs, err := queryDecisions(cmd, decisionlog.KindDispatch)
	if err != nil {
		return err
	}
	if decisionsFlags.output == "" {
		return export.DispatchChart(cmd.OutOrStdout(), recs)
	}
	f, err := os.Create(decisionsFlags.output)
	if err != nil {
		return err
	}
	if err := export.DispatchChart(f, recs); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// queryDecisions opens the configured persistent log and applies the flags.
func queryDecisions(cmd *cobra.Command, kind decisionlog.Kind) ([]decisionlog.Record, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	switch cfg.DecisionLog.Backend {
	case decisionlog.BackendJSONL, decisionlog.BackendSQLite:
	default:
		return nil, errors.New("decision log is not persisted: set decision_log.backend to jsonl or sqlite")
	}
	store, err := decisionlog.NewStore(cfg.DecisionLog)
	if err != nil {
		return nil, fmt.Errorf("decision log: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close decision log: %v\n", err)
		}
	}()

	q := decisionlog.Query{
		Kind:      kind,
		RequestID: decisionsFlags.request,
		DriverID:  decisionsFlags.driver,
		AgentID:   decisionsFlags.agent,
		Limit:     decisionsFlags.limit,
	}
	if decisionsFlags.since > 0 {
		q.Start = time.Now().Add(-decisionsFlags.since)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return store.Query(ctx, q)
}
