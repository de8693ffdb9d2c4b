// Package render draws a scene as an SVG image. Connections are painted
// first so nodes sit on top of the wires, with the draft connection on
// the very top where the pointer is.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
	"github.com/patchwire/patchwire/pkg/scene"
)

const (
	canvasMargin   = 40.0
	portRadius     = 5.0
	wireWidth      = 2.0
	wireOffset     = 40.0 // minimum control point reach for the cubic
	fontFamily     = "monospace"
	captionSize    = 12
	labelSize      = 10
	nodeFill       = "#2b2b2b"
	nodeStroke     = "#666666"
	captionFill    = "#e0e0e0"
	portFill       = "#8ab4f8"
	defaultWire    = "#999999"
	draftWire      = "#cccccc"
	labelFill      = "#bbbbbb"
	backgroundFill = "#1e1e1e"
)

// RenderSVG renders the scene into a complete SVG document.
func RenderSVG(s *scene.Scene) string {
	var svg strings.Builder

	viewBox := sceneBounds(s)
	fmt.Fprintf(&svg, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.2f %.2f %.2f %.2f">`,
		viewBox.Origin.X, viewBox.Origin.Y, viewBox.Size.Width, viewBox.Size.Height)
	svg.WriteString("\n")
	fmt.Fprintf(&svg, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`,
		viewBox.Origin.X, viewBox.Origin.Y, viewBox.Size.Width, viewBox.Size.Height, backgroundFill)
	svg.WriteString("\n")

	r := Renderer{Nodes: SVGNodePainter{}, Connections: SVGConnectionPainter{}}
	r.Paint(&svg, s)

	svg.WriteString("</svg>\n")
	return svg.String()
}

// sceneBounds computes a viewBox covering every node plus a margin.
func sceneBounds(s *scene.Scene) geometry.Rect {
	var box geometry.Rect
	first := true
	s.NodeVisuals(func(v *scene.NodeVisual) {
		if first {
			box = v.Bounds()
			first = false
			return
		}
		box = box.Union(v.Bounds())
	})
	if first {
		return geometry.Rect{Size: geometry.Size{Width: 2 * canvasMargin, Height: 2 * canvasMargin}}
	}
	box.Origin.X -= canvasMargin
	box.Origin.Y -= canvasMargin
	box.Size.Width += 2 * canvasMargin
	box.Size.Height += 2 * canvasMargin
	return box
}

// SVGNodePainter is the default node painter: rounded rect, centered
// caption, a circle per port.
type SVGNodePainter struct{}

func (SVGNodePainter) PaintNode(w io.Writer, s *scene.Scene, v *scene.NodeVisual) {
	b := v.Bounds()
	fmt.Fprintf(w, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" stroke="%s" rx="4" ry="4"/>`,
		b.Origin.X, b.Origin.Y, b.Size.Width, b.Size.Height, nodeFill, nodeStroke)
	io.WriteString(w, "\n")

	fmt.Fprintf(w, `  <text x="%.2f" y="%.2f" font-family="%s" font-size="%d" fill="%s" text-anchor="middle">`,
		b.Origin.X+b.Size.Width/2, b.Origin.Y+16, fontFamily, captionSize, captionFill)
	io.WriteString(w, escapeXML(v.Caption()))
	io.WriteString(w, "</text>\n")

	for _, pt := range []graph.PortType{graph.PortIn, graph.PortOut} {
		for idx := 0; idx < v.PortCount(pt); idx++ {
			p := v.PortAnchor(pt, graph.PortIndex(idx))
			fmt.Fprintf(w, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`,
				p.X, p.Y, portRadius, portFill)
			io.WriteString(w, "\n")
		}
	}
}

// SVGConnectionPainter is the default wire painter: a cubic path, dashed
// for drafts, with the optional label at the wire midpoint.
type SVGConnectionPainter struct{}

func (SVGConnectionPainter) PaintConnection(w io.Writer, s *scene.Scene, v *scene.ConnectionVisual) {
	out, in, ok := v.Endpoints()
	if !ok {
		return
	}

	color := v.Color()
	dash := ""
	if v.IsDraft() {
		if color == "" {
			color = draftWire
		}
		dash = ` stroke-dasharray="6 4"`
	} else if color == "" {
		color = defaultWire
	}

	c1, c2 := wireControlPoints(out, in, s.Orientation())
	fmt.Fprintf(w, `  <path d="M %.2f %.2f C %.2f %.2f, %.2f %.2f, %.2f %.2f" fill="none" stroke="%s" stroke-width="%.2f"%s/>`,
		out.X, out.Y, c1.X, c1.Y, c2.X, c2.Y, in.X, in.Y, color, wireWidth, dash)
	io.WriteString(w, "\n")

	if label := v.Label(); label != "" {
		mid := out.Mid(in)
		fmt.Fprintf(w, `  <text x="%.2f" y="%.2f" font-family="%s" font-size="%d" fill="%s" text-anchor="middle">`,
			mid.X, mid.Y-4, fontFamily, labelSize, labelFill)
		io.WriteString(w, escapeXML(label))
		io.WriteString(w, "</text>\n")
	}
}

// wireControlPoints places the cubic handles along the flow axis, so
// wires leave and enter nodes perpendicular to the port edge.
func wireControlPoints(out, in geometry.Point, o scene.Orientation) (c1, c2 geometry.Point) {
	if o == scene.Horizontal {
		reach := max(wireOffset, abs(in.X-out.X)/2)
		return geometry.Point{X: out.X + reach, Y: out.Y},
			geometry.Point{X: in.X - reach, Y: in.Y}
	}
	reach := max(wireOffset, abs(in.Y-out.Y)/2)
	return geometry.Point{X: out.X, Y: out.Y + reach},
		geometry.Point{X: in.X, Y: in.Y - reach}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
