package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tessellate/pkg/core/grid"
	errs "github.com/matzehuels/tessellate/pkg/errors"
	"github.com/matzehuels/tessellate/pkg/imgio"
	"github.com/matzehuels/tessellate/pkg/mosaic"
)

// gridCommand creates the grid command, which previews how a target is cut
// into cells.
func (c *CLI) gridCommand() *cobra.Command {
	var (
		gridFlag string
		tileDir  string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "grid <target>",
		Short: "Draw the target split into grid cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := overlaySize(gridFlag, tileDir)
			if err != nil {
				return err
			}

			img, err := imgio.Open(args[0])
			if err != nil {
				return err
			}
			g, err := grid.FromImage(img, size)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInvalidGrid, err, "grid %s", size)
			}
			if err := imgio.Save(mosaic.OverlayGrid(g), output); err != nil {
				return err
			}

			c.Logger.Debug("grid overlay", "grid", size, "cell", g.CellSize, "cropped", g.Bounds().Size())
			printSuccess("Grid %s with %s px cells", size, g.CellSize)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&gridFlag, "grid", "", "grid size as W,H")
	cmd.Flags().StringVar(&tileDir, "tiles", "", "pick the grid from this tile directory's size")
	cmd.Flags().StringVarP(&output, "output", "o", "grid.png", "image to write")

	return cmd
}

// overlaySize resolves the grid from --grid, or from the tile count.
func overlaySize(gridFlag, tileDir string) (grid.Size, error) {
	if gridFlag != "" {
		w, h, err := parseGrid(gridFlag)
		return grid.Size{W: w, H: h}, err
	}
	if tileDir == "" {
		return grid.Size{}, errs.New(errs.ErrCodeInvalidGrid, "one of --grid or --tiles is required")
	}
	n, err := imgio.CountImages(tileDir)
	if err != nil {
		return grid.Size{}, err
	}
	if n == 0 {
		return grid.Size{}, errs.New(errs.ErrCodeInsufficientTiles, "no images in %s", tileDir)
	}
	return mosaic.DefaultGridSize(n), nil
}
