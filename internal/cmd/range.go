package cmd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/pkg/delta"
	"github.com/stateful/blockstate/pkg/selection"
	"github.com/stateful/blockstate/pkg/state"
)

func rangeCmd() *cobra.Command {
	var (
		snapshotFile string
		start        string
		end          string
		backward     bool
	)

	cmd := cobra.Command{
		Use:   "range",
		Short: "Normalize a selection between two endpoints of a snapshot.",
		Long: `Range prints the points covering everything from --start to --end.
An endpoint is ID for a whole block, ID:OFFSET for a caret in a text block,
or ID:OFFSET:LENGTH for a text span.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startPoint, err := parsePoint(start)
			if err != nil {
				return err
			}
			endPoint, err := parsePoint(end)
			if err != nil {
				return err
			}

			blocks, err := readSnapshot(cmd, snapshotFile)
			if err != nil {
				return err
			}

			return invoke(func(logger *zap.Logger, unit delta.Unit) error {
				tree, err := state.New(blocks, state.WithLogger(logger), state.WithLengthUnit(unit))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), selection.Resolve(tree, startPoint, endPoint, backward))
			})
		},
	}

	cmd.Flags().StringVar(&snapshotFile, "snapshot", "", "A snapshot file or - for stdin.")
	cmd.Flags().StringVar(&start, "start", "", "The start endpoint.")
	cmd.Flags().StringVar(&end, "end", "", "The end endpoint.")
	cmd.Flags().BoolVar(&backward, "backward", false, "Mark the range as selected backward.")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return &cmd
}

func parsePoint(s string) (selection.Point, error) {
	parts := strings.Split(s, ":")
	if parts[0] == "" || len(parts) > 3 {
		return selection.Point{}, errors.Errorf("invalid endpoint %q", s)
	}
	if len(parts) == 1 {
		return selection.BlockPoint(parts[0]), nil
	}

	values := make([]int, 2)
	for i, part := range parts[1:] {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return selection.Point{}, errors.Errorf("invalid offset %q in endpoint %q", part, s)
		}
		values[i] = v
	}
	return selection.TextPoint(parts[0], values[0], values[1]), nil
}

