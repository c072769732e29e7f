package cmd

import (
	"fmt"
	"iter"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/pkg/delta"
	"github.com/stateful/blockstate/pkg/state"
)

func treeCmd() *cobra.Command {
	var (
		snapshotFile string
		order        string
	)

	cmd := cobra.Command{
		Use:   "tree",
		Short: "Print the block outline of a snapshot.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := readSnapshot(cmd, snapshotFile)
			if err != nil {
				return err
			}

			return invoke(func(logger *zap.Logger, unit delta.Unit) error {
				tree, err := state.New(blocks, state.WithLogger(logger), state.WithLengthUnit(unit))
				if err != nil {
					return err
				}

				var walk iter.Seq[*state.Block]
				switch order {
				case "dfs":
					walk = state.WalkDFS(tree.Snapshot(false), tree.RootID())
				case "bfs":
					walk = state.WalkBFS(tree.Snapshot(false), tree.RootID())
				default:
					return errors.Errorf("invalid order %q, expected dfs or bfs", order)
				}

				out := cmd.OutOrStdout()
				c := newColorizer(out)
				for block := range walk {
					n := tree.Block(block.ID)
					_, err := fmt.Fprintf(
						out,
						"%s%s %s %s\n",
						strings.Repeat("  ", n.Depth()),
						c.color(n.ID(), "white+b"),
						c.color(n.Data().Type(), "cyan"),
						c.color(fmt.Sprintf("index=%d length=%d version=%d", n.Index(), n.Length(), n.Version()), "white+d"),
					)
					if err != nil {
						return errors.WithStack(err)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&snapshotFile, "snapshot", "", "A snapshot file or - for stdin.")
	cmd.Flags().StringVar(&order, "order", "dfs", "Walk order: dfs or bfs.")
	_ = cmd.MarkFlagRequired("snapshot")

	return &cmd
}
