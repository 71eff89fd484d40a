package usage

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/tessellate/pkg/core/plan"
)

// 3x2 grid:
//
//	0 1 0
//	1 0 2
func samplePlan() plan.Plan {
	idx := []int{0, 1, 0, 1, 0, 2}
	p := plan.Plan{CellWidth: 1, CellHeight: 1, GridWidth: 3, GridHeight: 2}
	for i, t := range idx {
		p.Cells = append(p.Cells, plan.Cell{TileIndex: t, X: i % 3, Y: i / 3})
	}
	return p
}

func TestToDOTNodes(t *testing.T) {
	dot := ToDOT(samplePlan(), []string{"sky.png", "sea.png", "sand.png", "rock.png"}, Options{})

	for _, want := range []string{
		`t0 [label="sky.png\n×3", fillcolor=grey45, fontcolor=white]`,
		`t1 [label="sea.png\n×2", fillcolor=grey70, fontcolor=black]`,
		`t2 [label="sand.png\n×1", fillcolor=grey95, fontcolor=black]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "rock.png") {
		t.Error("unused tile should be hidden by default")
	}
	if strings.Contains(dot, "--") {
		t.Error("edges should be off by default")
	}
}

func TestToDOTUnusedAndFallbackNames(t *testing.T) {
	dot := ToDOT(samplePlan(), []string{"sky.png"}, Options{ShowUnused: true})
	if !strings.Contains(dot, `label="#1`) || !strings.Contains(dot, `label="#2`) {
		t.Errorf("missing fallback labels:\n%s", dot)
	}

	dot = ToDOT(samplePlan(), []string{"a", "b", "c", "d"}, Options{ShowUnused: true})
	if !strings.Contains(dot, `t3 [label="d", style="rounded,dashed"`) {
		t.Errorf("unused tile should be dashed:\n%s", dot)
	}
}

func TestNeighbors(t *testing.T) {
	edges := neighbors(samplePlan())
	// Horizontal: (0,1) (1,0) (1,0) (0,2); vertical: (0,1) (1,0) (0,2).
	want := map[pair]int{{0, 1}: 5, {0, 2}: 2}
	if len(edges) != len(want) {
		t.Fatalf("edges = %v, want %v", edges, want)
	}
	for k, v := range want {
		if edges[k] != v {
			t.Errorf("edge %v = %d, want %d", k, edges[k], v)
		}
	}

	dot := ToDOT(samplePlan(), nil, Options{Neighbors: true, MinEdge: 3})
	if !strings.Contains(dot, `t0 -- t1 [label="5"`) {
		t.Errorf("missing heavy edge:\n%s", dot)
	}
	if strings.Contains(dot, "t0 -- t2") {
		t.Error("edge below MinEdge should be hidden")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(samplePlan(), nil, Options{Neighbors: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("output is not SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("unexpected root: %s", out)
	}
}
