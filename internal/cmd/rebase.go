package cmd

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/blockstate/pkg/jsonop"
)

func rebaseCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "rebase [FILE|-]",
		Short: "Rebase list operations authored against the same original list.",
		Long: `Rebase reads a JSON list of operations whose indices all refer to the same
original snapshot and prints an equivalent list that can be applied in order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileName := "-"
			if len(args) > 0 {
				fileName = args[0]
			}

			data, err := readInput(cmd, fileName)
			if err != nil {
				return err
			}

			var ops []jsonop.Op
			if err := json.Unmarshal(data, &ops); err != nil {
				return errors.Wrap(err, "failed to decode operations")
			}

			return writeJSON(cmd.OutOrStdout(), jsonop.NormalizeBatch(ops))
		},
	}
	return &cmd
}
