package render

import (
	"io"

	"github.com/patchwire/patchwire/pkg/scene"
)

// NodePainter draws one node visual.
type NodePainter interface {
	PaintNode(w io.Writer, s *scene.Scene, v *scene.NodeVisual)
}

// ConnectionPainter draws one connection visual, draft included.
type ConnectionPainter interface {
	PaintConnection(w io.Writer, s *scene.Scene, v *scene.ConnectionVisual)
}

// Renderer walks a scene and paints it with pluggable painters.
// Connections go first, then nodes, then the draft on top.
type Renderer struct {
	Nodes       NodePainter
	Connections ConnectionPainter
}

// Paint draws the scene body (no document envelope) to w.
func (r Renderer) Paint(w io.Writer, s *scene.Scene) {
	s.ConnectionVisuals(func(v *scene.ConnectionVisual) {
		r.Connections.PaintConnection(w, s, v)
	})
	s.NodeVisuals(func(v *scene.NodeVisual) {
		r.Nodes.PaintNode(w, s, v)
	})
	if draft := s.DraftConnection(); draft != nil {
		r.Connections.PaintConnection(w, s, draft)
	}
}
