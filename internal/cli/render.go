package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/core/plan"
)

const defaultMosaicFile = "mosaic.png"

// renderCommand creates the render command, which draws an existing plan.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  planFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render <plan.json> <target> <tile-dir>",
		Short: "Render a plan file into a mosaic image",
		Long: `Render draws a plan produced by "tessellate plan". The target and tiles
must be loaded the same way as when planning (same tile flags), so that
the cell and tile sizes match the plan.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := plan.ReadFile(args[0])
			if err != nil {
				return err
			}
			format, err := formatFromPath(output)
			if err != nil {
				return err
			}
			opts, err := flags.options(args[1], args[2])
			if err != nil {
				return err
			}
			opts.Formats = []string{format}

			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			prog := newProgress(c.Logger)
			artifacts, err := runner.RenderPlan(cmd.Context(), p, opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, artifacts[format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			prog.done(fmt.Sprintf("Rendered %d cells", len(p.Cells)))

			printSuccess("Mosaic rendered")
			printFile(output)
			return nil
		},
	}

	flags.registerLoad(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", defaultMosaicFile, "image to write (format from extension)")

	return cmd
}

// buildCommand creates the build command, which plans and renders in one step.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		flags    planFlags
		output   string
		planPath string
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "build <target> <tile-dir>",
		Short: "Build a mosaic image in one step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFromPath(output)
			if err != nil {
				return err
			}
			opts, err := flags.options(args[0], args[1])
			if err != nil {
				return err
			}
			opts.Formats = []string{format}

			res, err := c.execute(cmd.Context(), opts, &flags)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, res.Artifacts[format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Mosaic built")
			printFile(output)
			if planPath != "" {
				if err := plan.WriteFile(res.Plan, planPath); err != nil {
					return err
				}
				printFile(planPath)
			}
			printStats(res.Stats, res.CacheInfo.RenderHit)

			if save {
				rec, err := c.saveRecord(cmd.Context(), opts, res)
				if err != nil {
					return err
				}
				printDetail("Saved to history as %s", rec.ID)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", defaultMosaicFile, "image to write (format from extension)")
	cmd.Flags().StringVar(&planPath, "plan", "", "also write the plan to this file")
	cmd.Flags().BoolVar(&save, "save", false, "also record the plan in the history store")

	return cmd
}
