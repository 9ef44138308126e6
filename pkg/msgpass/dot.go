package msgpass

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// ToDOT converts the graph to Graphviz DOT format. Roots are drawn with a
// double outline and finished nodes are filled.
func (g *Graph[M, R]) ToDOT() string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, n := range g.nodes {
		attrs := []string{fmt.Sprintf("label=%q", n.name)}
		if n.root {
			attrs = append(attrs, "peripheries=2")
		}
		if n.finished {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.edges {
		fmt.Fprintf(&buf, "  %q -- %q;\n", e.a.name, e.b.name)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders ToDOT with Graphviz.
func (g *Graph[M, R]) RenderSVG(ctx context.Context) ([]byte, error) {
	return RenderDOT(ctx, g.ToDOT())
}

// RenderDOT renders a DOT document to SVG.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, parsed, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
