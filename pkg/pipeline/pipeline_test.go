package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/tessellate/pkg/cache"
	"github.com/matzehuels/tessellate/pkg/core/plan"
	errs "github.com/matzehuels/tessellate/pkg/errors"
)

var (
	red   = color.NRGBA{255, 0, 0, 255}
	green = color.NRGBA{0, 255, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

// fixture writes a 40x40 target split into red, green, blue and white
// quadrants and a tile directory holding one 20x20 tile per colour, named
// so that tile indices follow quadrant order.
func fixture(t *testing.T) (target, tileDir string) {
	t.Helper()
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	for y := range 40 {
		for x := range 40 {
			c := red
			switch {
			case x >= 20 && y < 20:
				c = green
			case x < 20 && y >= 20:
				c = blue
			case x >= 20 && y >= 20:
				c = white
			}
			img.SetNRGBA(x, y, c)
		}
	}
	target = filepath.Join(dir, "target.png")
	if err := imaging.Save(img, target); err != nil {
		t.Fatal(err)
	}

	tileDir = filepath.Join(dir, "tiles")
	if err := os.Mkdir(tileDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i, c := range []color.NRGBA{red, green, blue, white} {
		tile := imaging.New(20, 20, c)
		name := filepath.Join(tileDir, string(rune('a'+i))+".png")
		if err := imaging.Save(tile, name); err != nil {
			t.Fatal(err)
		}
	}
	return target, tileDir
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func TestValidateSolver(t *testing.T) {
	for _, name := range []string{"hungarian", "greedy", "auction"} {
		if err := ValidateSolver(name); err != nil {
			t.Errorf("ValidateSolver(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"", "Hungarian", "simplex"} {
		err := ValidateSolver(name)
		if !errs.Is(err, errs.ErrCodeInvalidSolver) {
			t.Errorf("ValidateSolver(%q) = %v, want INVALID_SOLVER", name, err)
		}
	}
}

func TestValidateMetric(t *testing.T) {
	if err := ValidateMetric("lab"); err != nil {
		t.Errorf("lab should be valid: %v", err)
	}
	if err := ValidateMetric("cosine"); !errs.Is(err, errs.ErrCodeInvalidMetric) {
		t.Errorf("cosine: got %v, want INVALID_METRIC", err)
	}
}

func TestValidateTileModeAndTransfer(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		value   string
		wantErr bool
	}{
		{"mode empty", ValidateTileMode, "", false},
		{"mode crop", ValidateTileMode, "crop", false},
		{"mode resize", ValidateTileMode, "resize", false},
		{"mode bogus", ValidateTileMode, "stretch", true},
		{"transfer empty", ValidateTransfer, "", false},
		{"transfer to tiles", ValidateTransfer, "target-to-tiles", false},
		{"transfer to target", ValidateTransfer, "tiles-to-target", false},
		{"transfer bogus", ValidateTransfer, "both", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(tt.value); (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"png", "jpeg"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"png", "svg"}); err == nil {
		t.Error("svg should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	opts := Options{Target: "t.png", TileDir: "tiles"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if opts.Solver != DefaultSolver || opts.Metric != DefaultMetric || opts.MaxOccurrences != DefaultMaxOccurrences {
		t.Errorf("defaults not applied: %+v", opts)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Second call should be idempotent
	before := opts.String()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.String() != before {
		t.Errorf("options changed on second call: %s vs %s", opts.String(), before)
	}
}

func TestOptionsValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"no target", Options{TileDir: "d"}, errs.ErrCodeInvalidInput},
		{"no tiles", Options{Target: "t"}, errs.ErrCodeInvalidInput},
		{"half grid", Options{Target: "t", TileDir: "d", GridWidth: 4}, errs.ErrCodeInvalidGrid},
		{"huge grid", Options{Target: "t", TileDir: "d", GridWidth: 1000, GridHeight: 1000}, errs.ErrCodeInvalidGrid},
		{"negative max", Options{Target: "t", TileDir: "d", MaxOccurrences: -1}, errs.ErrCodeInvalidInput},
		{"bad solver", Options{Target: "t", TileDir: "d", Solver: "x"}, errs.ErrCodeInvalidSolver},
		{"bad metric", Options{Target: "t", TileDir: "d", Metric: "x"}, errs.ErrCodeInvalidMetric},
		{"bad format", Options{Target: "t", TileDir: "d", Formats: []string{"pdf"}}, errs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errs.Is(err, tt.code) {
				t.Errorf("got %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestExecute(t *testing.T) {
	target, tileDir := fixture(t)
	r := quietRunner(nil)

	res, err := r.Execute(context.Background(), Options{
		Target:     target,
		TileDir:    tileDir,
		GridWidth:  2,
		GridHeight: 2,
		Formats:    []string{"png"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for i, c := range res.Plan.Cells {
		if c.TileIndex != i {
			t.Errorf("cell %d got tile %d, want %d", i, c.TileIndex, i)
		}
	}
	if res.Stats.Cost != 0 {
		t.Errorf("cost = %d, want 0", res.Stats.Cost)
	}
	if res.Stats.Cells != 4 || res.Stats.Tiles != 4 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if got := res.TileNames; len(got) != 4 || got[0] != "a.png" {
		t.Errorf("tile names = %v", got)
	}
	if res.PlanHash == "" {
		t.Error("PlanHash should be set")
	}

	img, err := imaging.Decode(bytes.NewReader(res.Artifacts["png"]))
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 40 {
		t.Errorf("artifact size = %v", img.Bounds())
	}
	if got := color.NRGBAModel.Convert(img.At(30, 30)); got != white {
		t.Errorf("pixel (30,30) = %v, want white", got)
	}
}

func TestExecuteDefaultGrid(t *testing.T) {
	target, tileDir := fixture(t)
	res, err := quietRunner(nil).Execute(context.Background(), Options{Target: target, TileDir: tileDir})
	if err != nil {
		t.Fatal(err)
	}
	// round(sqrt(0.8 * 4)) = 2
	if res.Plan.GridWidth != 2 || res.Plan.GridHeight != 2 {
		t.Errorf("grid = %dx%d, want 2x2", res.Plan.GridWidth, res.Plan.GridHeight)
	}
	if res.Artifacts != nil {
		t.Error("no formats requested, expected no artifacts")
	}
}

func TestExecuteCaching(t *testing.T) {
	target, tileDir := fixture(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(fc)
	opts := Options{Target: target, TileDir: tileDir, GridWidth: 2, GridHeight: 2, Formats: []string{"png"}}

	first, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.MatrixHit || first.CacheInfo.PlanHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.MatrixHit || !second.CacheInfo.PlanHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if second.PlanHash != first.PlanHash {
		t.Error("cached plan differs from computed plan")
	}

	opts.Solver = "greedy"
	third, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.MatrixHit || third.CacheInfo.PlanHit {
		t.Errorf("solver change should reuse matrix only: %+v", third.CacheInfo)
	}

	opts.Refresh = true
	fourth, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.MatrixHit || fourth.CacheInfo.PlanHit || fourth.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass cache: %+v", fourth.CacheInfo)
	}
}

func TestExecuteErrors(t *testing.T) {
	target, tileDir := fixture(t)

	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{
			"insufficient tiles",
			Options{Target: target, TileDir: tileDir, GridWidth: 3, GridHeight: 3, TileMode: "resize"},
			errs.ErrCodeInsufficientTiles,
		},
		{
			"tile size mismatch",
			Options{Target: target, TileDir: tileDir, GridWidth: 4, GridHeight: 4},
			errs.ErrCodeTileSizeMismatch,
		},
		{
			"grid larger than target",
			Options{Target: target, TileDir: tileDir, GridWidth: 41, GridHeight: 1},
			errs.ErrCodeInvalidGrid,
		},
		{
			"missing target",
			Options{Target: filepath.Join(tileDir, "nope.png"), TileDir: tileDir, GridWidth: 2, GridHeight: 2},
			errs.ErrCodeFileNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := quietRunner(nil).Execute(context.Background(), tt.opts)
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q (%v), want %q", got, err, tt.code)
			}
		})
	}
}

func TestExecuteCanceled(t *testing.T) {
	target, tileDir := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietRunner(nil).Execute(ctx, Options{Target: target, TileDir: tileDir, GridWidth: 2, GridHeight: 2})
	if !errs.Is(err, errs.ErrCodeCanceled) {
		t.Errorf("got %v, want CANCELED", err)
	}
}

func TestRenderPlan(t *testing.T) {
	target, tileDir := fixture(t)
	r := quietRunner(nil)
	opts := Options{Target: target, TileDir: tileDir, GridWidth: 2, GridHeight: 2}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := r.RenderPlan(context.Background(), res.Plan, Options{
		Target:  target,
		TileDir: tileDir,
		Formats: []string{"jpeg", "png"},
	})
	if err != nil {
		t.Fatalf("RenderPlan: %v", err)
	}
	if len(artifacts["jpeg"]) == 0 || len(artifacts["png"]) == 0 {
		t.Errorf("missing artifacts: %d formats", len(artifacts))
	}

	bad := res.Plan
	bad.Cells = append([]plan.Cell(nil), bad.Cells...)
	bad.Cells[0].TileIndex = 9
	if _, err := r.RenderPlan(context.Background(), bad, Options{Target: target, TileDir: tileDir}); err == nil {
		t.Error("plan referencing a missing tile should fail")
	}
}
