package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/imgio"
	"github.com/matzehuels/tessellate/pkg/render/usage"
)

// usageCommand creates the usage command, which diagrams tile reuse.
func (c *CLI) usageCommand() *cobra.Command {
	var (
		tileDir string
		output  string
		dot     bool
		opts    usage.Options
	)

	cmd := &cobra.Command{
		Use:   "usage <plan.json>",
		Short: "Diagram how often each tile is used and which tiles meet",
		Long: `Usage draws one node per tile, shaded by how often the plan uses it.
With --neighbors, edges connect tiles placed in adjacent cells.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.ReadFile(args[0])
			if err != nil {
				return err
			}

			var names []string
			if tileDir != "" {
				if names, err = imgio.Names(tileDir); err != nil {
					return err
				}
				if hi := p.MaxTileIndex(); hi >= len(names) {
					c.Logger.Warn("plan uses more tiles than the directory holds", "max_index", hi, "tiles", len(names))
				}
			}

			data := []byte(usage.ToDOT(p, names, opts))
			if !dot {
				if data, err = usage.RenderSVG(cmd.Context(), string(data)); err != nil {
					return err
				}
			}

			if output == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Usage diagram for %d cells", len(p.Cells))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&tileDir, "tiles", "", "tile directory used for node labels")
	cmd.Flags().StringVarP(&output, "output", "o", "usage.svg", "file to write, - for stdout")
	cmd.Flags().BoolVar(&dot, "dot", false, "write Graphviz DOT instead of SVG")
	cmd.Flags().BoolVar(&opts.Neighbors, "neighbors", false, "connect tiles placed in adjacent cells")
	cmd.Flags().IntVar(&opts.MinEdge, "min-edge", 1, "hide neighbour edges seen fewer times")
	cmd.Flags().BoolVar(&opts.ShowUnused, "show-unused", false, "include tiles the plan never uses")

	return cmd
}
