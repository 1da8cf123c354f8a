// Package topograph draws a model's object tree and its topology as a
// Graphviz node-link diagram, for inspecting what a script built.
package topograph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gilesp1729/loftycad/pkg/topo"
)

// Options configures diagram rendering.
type Options struct {
	// Points includes edge endpoints. They are left out by default as
	// they dominate the diagram.
	Points bool
	// Detailed adds types, operators and positions to node labels.
	Detailed bool
}

// ToDOT converts the model to Graphviz DOT format. The object tree hangs
// from a single "model" node; below it groups own members, volumes own
// faces and faces own edges in walk order.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(m *topo.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
	buf.WriteString("  \"model\" [shape=plaintext, style=\"\"];\n")

	seen := make(map[topo.Ref]bool)
	var links []string
	var visit func(parent string, r topo.Ref)
	visit = func(parent string, r topo.Ref) {
		id := nodeID(r)
		links = append(links, fmt.Sprintf("  %q -> %q;\n", parent, id))
		if seen[r] {
			return
		}
		seen[r] = true
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(fmtAttrs(m, r, opts.Detailed), ", "))
		for _, c := range m.Children(r) {
			if c.Kind == topo.KindPoint && !opts.Points {
				continue
			}
			visit(id, c)
		}
	}
	for _, r := range m.Roots {
		if m.Exists(r) {
			visit("model", r)
		}
	}

	buf.WriteString("\n")
	for _, l := range links {
		buf.WriteString(l)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(r topo.Ref) string {
	return fmt.Sprintf("%s%d", r.Kind, r.ID)
}

func fmtLabel(m *topo.Model, r topo.Ref, detailed bool) string {
	label := r.String()
	if !detailed {
		return label
	}
	var parts []string
	switch r.Kind {
	case topo.KindPoint:
		p := m.Pos(topo.PointID(r.ID))
		parts = append(parts, fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z))
	case topo.KindEdge:
		e := m.Edge(topo.EdgeID(r.ID))
		parts = append(parts, e.Kind().String())
		if e.Steps > 0 {
			parts = append(parts, fmt.Sprintf("steps: %d", e.Steps))
		}
	case topo.KindFace:
		f := m.Face(topo.FaceID(r.ID))
		parts = append(parts, f.Type.String(), fmt.Sprintf("contours: %d", len(f.Contours)))
	case topo.KindVolume:
		v := m.Volume(topo.VolumeID(r.ID))
		parts = append(parts, v.Op.String(), fmt.Sprintf("max: %s", v.MaxFaceType))
	case topo.KindGroup:
		g := m.Group(topo.GroupID(r.ID))
		if g.Title != "" {
			parts = append(parts, strconv.Quote(g.Title))
		}
		if g.Op != topo.OpNone {
			parts = append(parts, g.Op.String())
		}
		if g.Loft != nil {
			parts = append(parts, "loft")
		}
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(m *topo.Model, r topo.Ref, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(m, r, detailed))}
	switch r.Kind {
	case topo.KindVolume:
		attrs = append(attrs, "fillcolor=lightblue")
	case topo.KindGroup:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case topo.KindEdge:
		if e := m.Edge(topo.EdgeID(r.ID)); e != nil && e.Corner {
			attrs = append(attrs, "fillcolor=lightyellow")
		}
	case topo.KindPoint:
		attrs = append(attrs, "shape=ellipse", "fontsize=10")
	}
	return attrs
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

// normalizeViewBox rewrites the root element so the drawing scales from
// its origin.
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

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
