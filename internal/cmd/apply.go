package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/config"
	"github.com/stateful/blockstate/internal/metrics"
	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
	"github.com/stateful/blockstate/pkg/editor"
	"github.com/stateful/blockstate/pkg/state"
)

func applyCmd() *cobra.Command {
	var (
		snapshotFile string
		changesFile  string
		source       string
		outFile      string
		format       string
		metricsOut   string
	)

	cmd := cobra.Command{
		Use:   "apply",
		Short: "Apply a list of block changes to a snapshot.",
		Long: `Apply reads a snapshot (a JSON object of blocks keyed by id) and a JSON list
of changes ({"id": ..., "ops": [...]}) and prints the ids inserted, updated
and deleted by the apply. Without a snapshot the document starts with a root
and one empty text block.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch state.Source(source) {
			case state.SourceUser, state.SourceProgram:
			default:
				return errors.Errorf("invalid source %q, expected user or program", source)
			}
			if format != "json" && format != "text" {
				return errors.Errorf("invalid format %q, expected json or text", format)
			}

			blocks, err := readSnapshot(cmd, snapshotFile)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, changesFile)
			if err != nil {
				return err
			}
			var changes []state.Change
			if err := json.Unmarshal(data, &changes); err != nil {
				return errors.Wrapf(err, "failed to decode changes %q", changesFile)
			}

			return invoke(func(
				cfg *config.Config,
				logger *zap.Logger,
				gen ulid.Generator,
				unit delta.Unit,
				reg *prometheus.Registry,
				collector *metrics.Collector,
			) error {
				if metricsOut == "" {
					metricsOut = cfg.Metrics.Output
				}
				if collector == nil && metricsOut != "" {
					collector = metrics.NewCollector(reg, cfg.Metrics.Namespace)
				}

				opts := []editor.Option{
					editor.WithLogger(logger),
					editor.WithIDGenerator(gen),
					editor.WithLengthUnit(unit),
					editor.WithInitialIDLength(cfg.Engine.IDLength),
				}
				if collector != nil {
					opts = append(opts, editor.WithObserver(collector))
				}

				e, err := editor.New(blocks, opts...)
				if err != nil {
					return err
				}

				result, applyErr := e.Apply(changes, state.ApplyOptions{Source: state.Source(source)})
				if applyErr != nil && collector != nil {
					collector.RecordFailure(state.Source(source))
				}
				if metricsOut != "" {
					if err := metrics.WriteTextfile(reg, metricsOut); err != nil {
						return err
					}
				}
				if applyErr != nil {
					return errors.WithMessage(applyErr, "failed to apply changes")
				}

				logger.Info("applied changes", zap.String("id", result.ID), zap.Int("changes", len(changes)))

				if outFile != "" {
					if err := writeJSONFile(outFile, e.Tree().Snapshot(true)); err != nil {
						return err
					}
				}

				if format == "text" {
					return printResult(cmd.OutOrStdout(), result)
				}
				return writeJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&snapshotFile, "snapshot", "", "A snapshot file or - for stdin.")
	cmd.Flags().StringVar(&changesFile, "changes", "", "A changes file or - for stdin.")
	cmd.Flags().StringVar(&source, "source", string(state.SourceUser), "The source of the changes: user or program.")
	cmd.Flags().StringVar(&outFile, "out", "", "Write the resulting snapshot to the file.")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or text.")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write metrics in the text exposition format to the file.")
	_ = cmd.MarkFlagRequired("changes")

	return &cmd
}

func printResult(w io.Writer, result *state.Result) error {
	c := newColorizer(w)

	if _, err := fmt.Fprintf(w, "%s %s\n", c.color("transaction", "white+d"), result.ID); err != nil {
		return errors.WithStack(err)
	}
	for _, section := range []struct {
		prefix string
		style  string
		ids    *state.IDSet
	}{
		{"+", "green", result.Inserts},
		{"~", "yellow", result.Updates},
		{"-", "red", result.Deletes},
	} {
		for _, id := range section.ids.IDs() {
			if _, err := fmt.Fprintln(w, c.color(section.prefix+" "+id, section.style)); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}
