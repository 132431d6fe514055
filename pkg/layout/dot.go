package layout

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/modulab/dungen/pkg/errors"
)

// DOTOptions configures connection-graph rendering.
type DOTOptions struct {
	// Detailed includes world position and category in node labels.
	// When false, only the asset name and instance number are shown.
	Detailed bool
}

// ToDOT converts a layout's connection graph to Graphviz DOT format. The
// resulting DOT string can be rendered with [RenderSVG] or [RenderPNG].
//
// Loop connections are drawn dashed and without direction to distinguish
// them from the placement tree.
func ToDOT(l *Layout, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("graph dungeon {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("\n")

	for _, m := range l.Modules {
		label := fmtLabel(m, opts.Detailed)
		// Positions scale down to keep neato from exploding the canvas.
		fmt.Fprintf(&buf, "  %d [label=%q, pos=\"%.2f,%.2f!\"];\n",
			m.Instance, label, m.Pos[0]/2, m.Pos[1]/2)
	}

	buf.WriteString("\n")
	for _, link := range l.Links {
		if link.Loop {
			fmt.Fprintf(&buf, "  %d -- %d [style=dashed];\n", link.From, link.To)
			continue
		}
		fmt.Fprintf(&buf, "  %d -- %d;\n", link.From, link.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(m Module, detailed bool) string {
	if !detailed {
		return fmt.Sprintf("%s #%d", m.Asset, m.Instance)
	}
	parts := []string{
		fmt.Sprintf("%s #%d", m.Asset, m.Instance),
		m.Category,
		fmt.Sprintf("(%.1f, %.1f) %.0f°", m.Pos[0], m.Pos[1], m.Angle),
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.SVG)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer func() { _ = g.Close() }()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return buf.Bytes(), nil
}
