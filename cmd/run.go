package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ridecore/app"
	"github.com/kilianp07/ridecore/config"
	"github.com/kilianp07/ridecore/core/decisionlog"
	"github.com/kilianp07/ridecore/core/model"
	"github.com/kilianp07/ridecore/infra/mqtt"
)

var runKinds = []string{
	app.KindDispatch,
	app.KindMatch,
	app.KindMultiRoute,
	app.KindRoute,
	app.KindConsensus,
	app.KindConflicts,
}

var inputPath string

var runCmd = &cobra.Command{
	Use:       "run <kind>",
	Short:     "Run one engine operation on an input file and print the result",
	Long:      "Kinds: " + strings.Join(runKinds, ", ") + ". The input is YAML when the file ends in .yaml or .yml, JSON otherwise; - reads JSON from stdin.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: runKinds,
	RunE:      runOperation,
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "file", "f", "", "input file")
	_ = runCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(runCmd)
}

func runOperation(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if !slices.Contains(runKinds, kind) {
		return fmt.Errorf("%w: %q", app.ErrUnknownKind, kind)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	payload, err := readInput(cmd.InOrStdin(), inputPath)
	if err != nil {
		return err
	}
	store, err := decisionlog.NewStore(cfg.DecisionLog)
	if err != nil {
		return fmt.Errorf("decision log: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close decision log: %v\n", err)
		}
	}()
	engine, err := app.NewEngine(cfg, app.Options{Store: store})
	if err != nil {
		return err
	}

	env := mqtt.Envelope{Kind: kind, Payload: payload}
	resp := app.Handler{Engine: engine}.Handle(context.Background(), env)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if resp.Status == string(model.StatusError) {
		return fmt.Errorf("%s failed: %s", kind, resp.Error)
	}
	return nil
}

// readInput returns the input as JSON, converting YAML files.
func readInput(stdin io.Reader, path string) (json.RawMessage, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return json.Marshal(doc)
	default:
		if !json.Valid(raw) {
			return nil, fmt.Errorf("parse %s: invalid json", path)
		}
		return raw, nil
	}
}
