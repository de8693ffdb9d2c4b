package scene

import (
	"unicode/utf8"

	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
)

// Orientation selects which node geometry variant is active: ports on the
// left/right edges (Horizontal) or on the top/bottom edges (Vertical).
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation maps a config/API string to an Orientation.
func ParseOrientation(s string) (Orientation, bool) {
	switch s {
	case "horizontal", "":
		return Horizontal, true
	case "vertical":
		return Vertical, true
	}
	return Horizontal, false
}

// NodeGeometry computes a node's size and port anchor points from its
// store data. Implementations must be deterministic and side-effect free;
// the NodeVisual owns the cache, not the strategy.
type NodeGeometry interface {
	// RecomputeSize derives the node's size from its caption, port
	// counts, and embedded content dimensions.
	RecomputeSize(id graph.NodeID) geometry.Size

	// PortAnchor returns the wire attachment point for a port, relative
	// to the node's top-left corner, given the node's current size.
	PortAnchor(id graph.NodeID, sz geometry.Size, pt graph.PortType, idx graph.PortIndex) geometry.Point
}

// Layout metrics shared by both variants. Caption width is estimated from
// rune count; there are no font metrics at this layer.
const (
	portSpacing   = 24.0
	captionHeight = 24.0
	nodePadding   = 8.0
	charWidth     = 8.0
	minNodeWidth  = 80.0
	minBodyExtent = 24.0
)

func captionWidth(caption string) float64 {
	return float64(utf8.RuneCountInString(caption)) * charWidth
}

// newNodeGeometry returns the strategy variant for the orientation.
func newNodeGeometry(o Orientation, store graph.Store) NodeGeometry {
	if o == Vertical {
		return &verticalGeometry{store: store}
	}
	return &horizontalGeometry{store: store}
}

// horizontalGeometry places In ports on the left edge and Out ports on
// the right edge, stacked top to bottom under the caption.
type horizontalGeometry struct {
	store graph.Store
}

func (g *horizontalGeometry) RecomputeSize(id graph.NodeID) geometry.Size {
	content := g.store.ContentSize(id)
	maxPorts := max(g.store.PortCount(id, graph.PortIn), g.store.PortCount(id, graph.PortOut))

	width := max(captionWidth(g.store.Caption(id))+2*nodePadding, content.Width+2*nodePadding, minNodeWidth)
	body := max(float64(maxPorts)*portSpacing, content.Height, minBodyExtent)
	return geometry.Size{Width: width, Height: captionHeight + body + nodePadding}
}

func (g *horizontalGeometry) PortAnchor(id graph.NodeID, sz geometry.Size, pt graph.PortType, idx graph.PortIndex) geometry.Point {
	x := 0.0
	if pt == graph.PortOut {
		x = sz.Width
	}
	return geometry.Point{X: x, Y: captionHeight + (float64(idx)+0.5)*portSpacing}
}

// verticalGeometry places In ports on the top edge and Out ports on the
// bottom edge, centered left to right.
type verticalGeometry struct {
	store graph.Store
}

func (g *verticalGeometry) RecomputeSize(id graph.NodeID) geometry.Size {
	content := g.store.ContentSize(id)
	maxPorts := max(g.store.PortCount(id, graph.PortIn), g.store.PortCount(id, graph.PortOut))

	width := max(
		captionWidth(g.store.Caption(id))+2*nodePadding,
		float64(maxPorts)*portSpacing,
		content.Width+2*nodePadding,
		minNodeWidth,
	)
	body := max(content.Height, minBodyExtent)
	return geometry.Size{Width: width, Height: captionHeight + body + nodePadding}
}

func (g *verticalGeometry) PortAnchor(id graph.NodeID, sz geometry.Size, pt graph.PortType, idx graph.PortIndex) geometry.Point {
	count := g.store.PortCount(id, pt)
	start := (sz.Width - float64(count)*portSpacing) / 2
	x := start + (float64(idx)+0.5)*portSpacing
	y := 0.0
	if pt == graph.PortOut {
		y = sz.Height
	}
	return geometry.Point{X: x, Y: y}
}
