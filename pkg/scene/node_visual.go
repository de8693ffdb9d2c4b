package scene

import (
	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
)

// NodeVisual is the engine-owned projection of one node: its cached
// position (a mirror of the store's authoritative value) and its computed
// size. Exactly one NodeVisual exists per live node; the scene's node
// mapping owns it.
type NodeVisual struct {
	scene *Scene
	id    graph.NodeID

	position      geometry.Point
	size          geometry.Size
	geometryValid bool
}

// ID returns the node this visual projects.
func (v *NodeVisual) ID() graph.NodeID {
	return v.id
}

// Position returns the cached node position in scene coordinates.
func (v *NodeVisual) Position() geometry.Point {
	return v.position
}

// Size returns the node's size, recomputing it through the active
// geometry strategy if the cache is stale.
func (v *NodeVisual) Size() geometry.Size {
	v.ensureGeometry()
	return v.size
}

// Bounds returns the node's rectangle in scene coordinates.
func (v *NodeVisual) Bounds() geometry.Rect {
	return geometry.Rect{Origin: v.Position(), Size: v.Size()}
}

// PortAnchor returns the absolute attachment point of a port. Reading an
// anchor revalidates geometry first; anchors are never derived from a
// stale size.
func (v *NodeVisual) PortAnchor(pt graph.PortType, idx graph.PortIndex) geometry.Point {
	v.ensureGeometry()
	return v.position.Add(v.scene.geometry.PortAnchor(v.id, v.size, pt, idx))
}

// PortCount reports the node's port count on one side, straight from the
// store.
func (v *NodeVisual) PortCount(pt graph.PortType) int {
	return v.scene.store.PortCount(v.id, pt)
}

// Caption returns the node's display label from the store.
func (v *NodeVisual) Caption() string {
	return v.scene.store.Caption(v.id)
}

// GeometryValid reports whether the cached size is current.
func (v *NodeVisual) GeometryValid() bool {
	return v.geometryValid
}

// SetGeometryChanged marks the cached geometry stale. The next size or
// anchor query recomputes it.
func (v *NodeVisual) SetGeometryChanged() {
	v.geometryValid = false
}

func (v *NodeVisual) ensureGeometry() {
	if v.geometryValid {
		return
	}
	v.size = v.scene.geometry.RecomputeSize(v.id)
	v.geometryValid = true
}
