package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/core/plan"
	"github.com/matzehuels/tessellate/pkg/pipeline"
	"github.com/matzehuels/tessellate/pkg/store"
)

const defaultPlanFile = "plan.json"

// planCommand creates the plan command, which solves an assignment without
// rendering it.
func (c *CLI) planCommand() *cobra.Command {
	var (
		flags  planFlags
		output string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "plan <target> <tile-dir>",
		Short: "Solve a tile assignment and write it as a plan file",
		Long: `Plan scores every grid cell of the target against every tile and solves
the assignment. The result is a small JSON file that "tessellate render"
turns into an image later, with the same target and tiles.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args[0], args[1])
			if err != nil {
				return err
			}

			res, err := c.execute(cmd.Context(), opts, &flags)
			if err != nil {
				return err
			}
			if err := plan.WriteFile(res.Plan, output); err != nil {
				return err
			}

			printSuccess("Plan written")
			printFile(output)
			printStats(res.Stats, res.CacheInfo.PlanHit)

			if save {
				rec, err := c.saveRecord(cmd.Context(), opts, res)
				if err != nil {
					return err
				}
				printDetail("Saved to history as %s", rec.ID)
			}

			printNextStep("Render it", fmt.Sprintf("%s render %s %s %s", appName, output, args[0], args[1]))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", defaultPlanFile, "plan file to write")
	cmd.Flags().BoolVar(&save, "save", false, "also record the plan in the history store")

	return cmd
}

// execute runs the pipeline with a spinner, or the progress view with --tui.
func (c *CLI) execute(ctx context.Context, opts pipeline.Options, flags *planFlags) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	if flags.tui {
		return runWithTUI(ctx, runner, opts)
	}

	sp := newSpinnerWithContext(ctx, "Solving "+opts.Target)
	opts.Progress = sp.Update
	sp.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil && !sp.Cancelled() {
		sp.StopWithError("Solving " + opts.Target + " failed")
		return nil, err
	}
	sp.Stop()
	return res, err
}

// saveRecord stores a finished run in the plan history.
func (c *CLI) saveRecord(ctx context.Context, opts pipeline.Options, res *pipeline.Result) (*store.Record, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer st.Close()

	rec := store.NewRecord(opts, res)
	if err := st.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	return rec, nil
}
