package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/katalvlaran/hamgraph/gen"
	"github.com/katalvlaran/hamgraph/gvar"
)

// ToDOT converts an instance to Graphviz DOT, drawing tour arcs bold and the
// remaining envelope arcs dashed grey. A nil tour draws the plain instance.
func ToDOT(in gen.Instance, tour []int) string {
	var (
		directed = in.Kind == gvar.Directed
		onTour   = make(map[gvar.Arc]bool, len(tour))
		edgeOp   = "--"
		buf      bytes.Buffer
	)
	for i := 0; i+1 < len(tour); i++ {
		u, v := tour[i], tour[i+1]
		if !directed && u > v {
			u, v = v, u
		}
		onTour[gvar.Arc{From: u, To: v}] = true
	}

	if directed {
		edgeOp = "->"
		buf.WriteString("digraph G {\n")
	} else {
		buf.WriteString("graph G {\n")
	}
	buf.WriteString("  layout=circo;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for v := 0; v < in.N; v++ {
		fmt.Fprintf(&buf, "  %d;\n", v)
	}
	buf.WriteString("\n")
	for _, a := range in.Arcs {
		if onTour[a] {
			fmt.Fprintf(&buf, "  %d %s %d [color=black, penwidth=3];\n", a.From, edgeOp, a.To)
			continue
		}
		fmt.Fprintf(&buf, "  %d %s %d [color=grey, style=dashed];\n", a.From, edgeOp, a.To)
	}
	buf.WriteString("}\n")
	return buf.String()
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
	return buf.Bytes(), nil
}
