package scene

import (
	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
)

// ConnectionVisual is the engine-owned projection of one connection. It
// stores no endpoint coordinates: both ends are derived on demand from
// the attached NodeVisuals' port anchors, so a moved or resized node never
// leaves a wire behind.
//
// A draft visual (IsDraft true) has one side bound to a real port and one
// free end driven by the interaction layer. Drafts live in the scene's
// single draft slot, never in the connection mapping.
type ConnectionVisual struct {
	scene *Scene
	id    graph.ConnectionID
	draft bool

	freeEnd geometry.Point

	label string
	color string

	lastOut, lastIn geometry.Point
	hasLast         bool
	positionFns     []func()
}

// ID returns the connection this visual projects. For drafts the id is
// incomplete until the drag finishes.
func (v *ConnectionVisual) ID() graph.ConnectionID {
	return v.id
}

// IsDraft reports whether this is the transient draft connection.
func (v *ConnectionVisual) IsDraft() bool {
	return v.draft
}

// Endpoints returns the out-side and in-side attachment points. ok is
// false when either endpoint's node visual is gone (a stale reference
// mid-deletion); callers must skip rendering then rather than treat it as
// a fault. A draft's unbound side resolves to its free end instead.
func (v *ConnectionVisual) Endpoints() (out, in geometry.Point, ok bool) {
	out, ok = v.endpoint(graph.PortOut)
	if !ok {
		return geometry.Point{}, geometry.Point{}, false
	}
	in, ok = v.endpoint(graph.PortIn)
	if !ok {
		return geometry.Point{}, geometry.Point{}, false
	}
	if v.hasLast && (out != v.lastOut || in != v.lastIn) {
		for _, fn := range v.positionFns {
			fn()
		}
	}
	v.lastOut, v.lastIn = out, in
	v.hasLast = true
	return out, in, true
}

func (v *ConnectionVisual) endpoint(pt graph.PortType) (geometry.Point, bool) {
	id := v.id.NodeAt(pt)
	if !id.Valid() {
		if v.draft {
			return v.freeEnd, true
		}
		return geometry.Point{}, false
	}
	nv := v.scene.NodeVisual(id)
	if nv == nil {
		return geometry.Point{}, false
	}
	return nv.PortAnchor(pt, v.id.PortAt(pt)), true
}

// SetFreeEnd moves the draft's unbound end to track the pointer. Ignored
// for model-backed connections.
func (v *ConnectionVisual) SetFreeEnd(p geometry.Point) {
	if !v.draft {
		return
	}
	v.freeEnd = p
}

// FixedSide returns the side of a draft that is bound to a real port.
// For a complete connection the notion is meaningless and PortOut is
// returned.
func (v *ConnectionVisual) FixedSide() graph.PortType {
	if v.id.OutNodeID.Valid() {
		return graph.PortOut
	}
	return graph.PortIn
}

// HandlePositionChanged registers a callback fired when either computed
// endpoint differs from the previous Endpoints query. Decorative overlays
// (wire labels) use this to follow the wire.
func (v *ConnectionVisual) HandlePositionChanged(fn func()) {
	v.positionFns = append(v.positionFns, fn)
}

// SetLabel attaches an annotation that renderers draw near the in-side
// endpoint.
func (v *ConnectionVisual) SetLabel(label string) {
	v.label = label
}

// Label returns the wire annotation, empty when unset.
func (v *ConnectionVisual) Label() string {
	return v.label
}

// SetColor overrides the wire color; renderers fall back to a default
// when empty.
func (v *ConnectionVisual) SetColor(color string) {
	v.color = color
}

// Color returns the wire color override, empty when unset.
func (v *ConnectionVisual) Color() string {
	return v.color
}
