// Package usage renders how a plan uses its tiles as a Graphviz diagram.
//
// Each used tile becomes a node labelled with its file name and the number
// of cells it fills; heavier use gives a darker fill. Tiles placed in
// neighbouring cells are joined by an edge labelled with how often that
// pairing occurs, which makes repeated patches easy to spot when tile
// reuse is allowed.
package usage

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/tessellate/pkg/core/plan"
)

// Options configures the diagram.
type Options struct {
	// ShowUnused adds dashed nodes for tiles no cell uses.
	ShowUnused bool

	// Neighbors draws edges between tiles in adjacent cells.
	Neighbors bool

	// MinEdge hides neighbour edges seen fewer than MinEdge times.
	MinEdge int
}

type pair struct{ a, b int }

// ToDOT converts p's tile usage to Graphviz DOT. names maps tile indices
// to labels; missing names fall back to "#index".
func ToDOT(p plan.Plan, names []string, opts Options) string {
	usage := p.Usage()
	maxUse := 0
	for _, n := range usage {
		maxUse = max(maxUse, n)
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=14];\n")
	buf.WriteString("\n")

	count := len(names)
	if m := p.MaxTileIndex() + 1; m > count {
		count = m
	}
	for i := range count {
		n := usage[i]
		if n == 0 && !opts.ShowUnused {
			continue
		}
		fmt.Fprintf(&buf, "  t%d [%s];\n", i, nodeAttrs(label(names, i), n, maxUse))
	}

	if opts.Neighbors {
		edges := neighbors(p)
		buf.WriteString("\n")
		for _, e := range slices.SortedFunc(maps.Keys(edges), func(x, y pair) int {
			if c := cmp.Compare(x.a, y.a); c != 0 {
				return c
			}
			return cmp.Compare(x.b, y.b)
		}) {
			n := edges[e]
			if n < max(opts.MinEdge, 1) {
				continue
			}
			fmt.Fprintf(&buf, "  t%d -- t%d [label=\"%d\", penwidth=%.1f];\n", e.a, e.b, n, 1+float64(n)/2)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return "#" + strconv.Itoa(i)
}

func nodeAttrs(name string, n, maxUse int) string {
	if n == 0 {
		return fmt.Sprintf("label=%q, style=\"rounded,dashed\", fontcolor=grey", name)
	}
	// Grey level from 95% (rarely used) down to 45% (most used).
	level := 95
	if maxUse > 1 {
		level = 95 - 50*(n-1)/(maxUse-1)
	}
	font := "black"
	if level < 60 {
		font = "white"
	}
	return fmt.Sprintf("label=\"%s\\n×%d\", fillcolor=grey%d, fontcolor=%s", escape(name), n, level, font)
}

func escape(s string) string {
	q := strconv.Quote(s)
	return q[1 : len(q)-1]
}

// neighbors counts unordered tile pairs in horizontally or vertically
// adjacent cells. Pairs of a tile with itself are included.
func neighbors(p plan.Plan) map[pair]int {
	edges := make(map[pair]int)
	if len(p.Cells) != p.GridWidth*p.GridHeight {
		return edges
	}
	at := func(col, row int) int { return p.Cells[row*p.GridWidth+col].TileIndex }
	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		edges[pair{a, b}]++
	}
	for row := range p.GridHeight {
		for col := range p.GridWidth {
			if col+1 < p.GridWidth {
				add(at(col, row), at(col+1, row))
			}
			if row+1 < p.GridHeight {
				add(at(col, row), at(col, row+1))
			}
		}
	}
	return edges
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with one
// sized in pixels so browsers scale it consistently.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
