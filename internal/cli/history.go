package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/store"
)

// historyCommand creates the history command for browsing stored plans.
func (c *CLI) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse plans recorded with --save",
	}

	cmd.AddCommand(c.historyListCommand())
	cmd.AddCommand(c.historyShowCommand())
	cmd.AddCommand(c.historyRenderCommand())
	cmd.AddCommand(c.historyDeleteCommand())

	return cmd
}

func (c *CLI) historyListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			recs, err := st.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No plans recorded yet")
				printNextStep("Record one", appName+" plan --save <target> <tile-dir>")
				return nil
			}
			fmt.Println(historyTable(recs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultListLimit, "maximum number of plans")
	return cmd
}

// historyTable renders records as a bordered table.
func historyTable(recs []store.Record) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%dx%d", r.Plan.GridWidth, r.Plan.GridHeight),
			strconv.Itoa(r.Stats.Tiles),
			strconv.FormatInt(r.Stats.Cost, 10),
			r.Stats.Solver,
			r.Target,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Grid", "Tiles", "Cost", "Solver", "Target").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleNumber
			default:
				return StyleValue
			}
		}).
		Render()
}

func (c *CLI) historyShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recorded plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := c.getRecord(cmd, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			printKeyValue("ID", rec.ID)
			printKeyValue("Created", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			printKeyValue("Target", rec.Target)
			printKeyValue("Tiles", rec.TileDir)
			printKeyValue("Options", rec.Summary)
			printKeyValue("Grid", fmt.Sprintf("%dx%d (%dx%d px cells)",
				rec.Plan.GridWidth, rec.Plan.GridHeight, rec.Plan.CellWidth, rec.Plan.CellHeight))
			printStats(rec.Stats, false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full record as JSON")
	return cmd
}

func (c *CLI) historyRenderCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a recorded plan from its original inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFromPath(output)
			if err != nil {
				return err
			}
			rec, err := c.getRecord(cmd, args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			artifacts, err := runner.RenderPlan(cmd.Context(), rec.Plan, rec.RenderOptions(format))
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, artifacts[format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Rendered plan %s", rec.ID)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultMosaicFile, "image to write (format from extension)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the stage cache")
	return cmd
}

func (c *CLI) historyDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errs.ValidatePlanID(args[0]); err != nil {
				return err
			}
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return notFound(args[0], err)
			}
			printSuccess("Deleted plan %s", args[0])
			return nil
		},
	}
}

func (c *CLI) getRecord(cmd *cobra.Command, id string) (*store.Record, error) {
	if err := errs.ValidatePlanID(id); err != nil {
		return nil, err
	}
	st, err := c.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer st.Close()

	rec, err := st.Get(cmd.Context(), id)
	if err != nil {
		return nil, notFound(id, err)
	}
	return rec, nil
}

func notFound(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errs.Wrap(errs.ErrCodePlanNotFound, err, "no plan %s in history", id)
	}
	return err
}
