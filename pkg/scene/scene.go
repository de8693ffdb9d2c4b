// Package scene keeps a visual projection of a graph store consistent
// with the store as it mutates: one NodeVisual per live node, one
// ConnectionVisual per live connection, plus a single transient draft
// connection for interactive wire creation.
//
// The engine is single-threaded by contract: store notifications and
// input callbacks re-enter it synchronously and in order, and the id to
// visual mappings are mutated only here. It is built to never fault on
// an inconsistent event stream; unknown ids, duplicate events, and stale
// references all degrade to no-ops, and a model reset repairs the
// mappings wholesale.
package scene

import (
	"github.com/patchwire/patchwire/pkg/geometry"
	"github.com/patchwire/patchwire/pkg/graph"
	"github.com/patchwire/patchwire/pkg/logging"
)

// Scene is the synchronization engine. It owns the id to visual mappings
// exclusively; external components read through the accessors and never
// insert or erase directly.
type Scene struct {
	store       graph.Store
	unsubscribe func()

	geometry    NodeGeometry
	orientation Orientation

	nodes       map[graph.NodeID]*NodeVisual
	connections map[graph.ConnectionID]*ConnectionVisual
	draft       *ConnectionVisual

	// nodeDrag is set by position updates and consumed by OnNodeClicked
	// to tell a completed drag apart from a plain click.
	nodeDrag bool

	modifiedFns  []func()
	nodeMovedFns []func(graph.NodeID, geometry.Point)
}

// New builds a scene over the store and populates it from the current
// store contents. If the store implements graph.Notifier the scene
// subscribes itself; otherwise the host drives the On* handlers directly.
func New(store graph.Store) *Scene {
	s := &Scene{
		store:       store,
		orientation: Horizontal,
		nodes:       make(map[graph.NodeID]*NodeVisual),
		connections: make(map[graph.ConnectionID]*ConnectionVisual),
	}
	s.geometry = newNodeGeometry(Horizontal, store)
	if n, ok := store.(graph.Notifier); ok {
		s.unsubscribe = n.Subscribe(s)
	}
	s.InitialBuild()
	return s
}

// Close deregisters the scene from the store's notifications. The scene
// must not be used afterwards.
func (s *Scene) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// InitialBuild populates both mappings from the store in two passes:
// first a NodeVisual for every node, then a ConnectionVisual for every
// connection discovered from its source side. Discovering only from Out
// ports visits each connection once; walking both sides would list every
// connection twice. Cost O(V + E).
func (s *Scene) InitialBuild() {
	ids := s.store.AllNodeIDs()
	for _, id := range ids {
		s.nodes[id] = s.newNodeVisual(id)
	}
	for _, id := range ids {
		outPorts := s.store.PortCount(id, graph.PortOut)
		for idx := graph.PortIndex(0); int(idx) < outPorts; idx++ {
			for _, c := range s.store.Connections(id, graph.PortOut, idx) {
				if _, exists := s.connections[c]; exists {
					continue
				}
				s.connections[c] = s.newConnectionVisual(c, false)
			}
		}
	}
	logging.Debug("scene populated", "nodes", len(s.nodes), "connections", len(s.connections))
}

// OnNodeCreated inserts a visual for the node. A duplicate event for an
// already-present node is a no-op.
func (s *Scene) OnNodeCreated(id graph.NodeID) {
	if _, exists := s.nodes[id]; exists {
		return
	}
	s.nodes[id] = s.newNodeVisual(id)
	s.emitModified()
}

// OnNodeDeleted removes the node's visual if present. Connections still
// referencing the node are not swept here: their own deletion events
// remove them, and until then endpoint lookups degrade to "render
// nothing" instead of dereferencing the missing visual.
func (s *Scene) OnNodeDeleted(id graph.NodeID) {
	if _, exists := s.nodes[id]; !exists {
		return
	}
	delete(s.nodes, id)
	s.emitModified()
}

// OnConnectionCreated inserts a visual for the connection and invalidates
// both attached nodes' geometry, so port-occupancy-dependent sizing can
// react. A duplicate event is a no-op.
func (s *Scene) OnConnectionCreated(c graph.ConnectionID) {
	if _, exists := s.connections[c]; exists {
		return
	}
	s.connections[c] = s.newConnectionVisual(c, false)
	s.updateAttachedNode(c, graph.PortOut)
	s.updateAttachedNode(c, graph.PortIn)
}

// OnConnectionDeleted removes the connection's visual. Removing an
// already-absent id is a no-op for the mapping, but attached-node
// invalidation and the modified signal still fire. A draft carrying the
// same id is cleared too.
func (s *Scene) OnConnectionDeleted(c graph.ConnectionID) {
	delete(s.connections, c)

	if s.draft != nil && s.draft.id == c {
		s.draft = nil
	}

	s.updateAttachedNode(c, graph.PortOut)
	s.updateAttachedNode(c, graph.PortIn)
	s.emitModified()
}

// OnNodePositionUpdated refreshes the cached position from the store and
// flags a drag in progress. Attached connections recompute their
// endpoints lazily on the next query; there is nothing to push.
func (s *Scene) OnNodePositionUpdated(id graph.NodeID) {
	nv := s.nodes[id]
	if nv == nil {
		return
	}
	nv.position = s.store.PositionOf(id)
	s.nodeDrag = true
}

// OnNodeUpdated marks the node's geometry stale and recomputes it
// immediately through the active strategy.
func (s *Scene) OnNodeUpdated(id graph.NodeID) {
	nv := s.nodes[id]
	if nv == nil {
		return
	}
	nv.SetGeometryChanged()
	nv.ensureGeometry()
}

// OnNodeClicked is called by the interaction layer on pointer release
// over a node. If position updates arrived since the last click the whole
// gesture was a drag: exactly one nodeMoved and one modified fire, no
// matter how many intermediate updates there were.
func (s *Scene) OnNodeClicked(id graph.NodeID) {
	if s.nodeDrag {
		pos := s.store.PositionOf(id)
		for _, fn := range s.nodeMovedFns {
			fn(id, pos)
		}
		s.emitModified()
	}
	s.nodeDrag = false
}

// OnModelReset discards every visual and repopulates from the store. This
// is also the repair mechanism for any inconsistency the event stream
// left behind. The draft connection survives: its lifecycle is explicit,
// never store-driven.
func (s *Scene) OnModelReset() {
	s.nodes = make(map[graph.NodeID]*NodeVisual)
	s.connections = make(map[graph.ConnectionID]*ConnectionVisual)
	s.InitialBuild()
}

// Orientation returns the active layout orientation.
func (s *Scene) Orientation() Orientation {
	return s.orientation
}

// SetOrientation swaps the geometry strategy for the other variant and
// rebuilds the scene so every node's size is recomputed under it. Setting
// the current orientation is a no-op.
func (s *Scene) SetOrientation(o Orientation) {
	if s.orientation == o {
		return
	}
	s.orientation = o
	s.geometry = newNodeGeometry(o, s.store)
	logging.Debug("orientation changed", "orientation", o.String())
	s.OnModelReset()
}

// MakeDraftConnection starts tracking a draft wire for the incomplete id.
// At most one draft is live; an existing one is discarded first. The
// returned visual is the caller's handle for driving the free end.
func (s *Scene) MakeDraftConnection(provisional graph.ConnectionID) *ConnectionVisual {
	draft := s.newConnectionVisual(provisional, true)
	if p, ok := draft.endpoint(draft.FixedSide()); ok {
		draft.freeEnd = p
	}
	s.draft = draft
	return draft
}

// ResetDraftConnection destroys the draft if present. Idempotent.
func (s *Scene) ResetDraftConnection() {
	s.draft = nil
}

// DraftConnection returns the live draft, or nil.
func (s *Scene) DraftConnection() *ConnectionVisual {
	return s.draft
}

// NodeVisual returns the visual for the node, or nil if the id is
// unknown. Unknown ids are never a fault.
func (s *Scene) NodeVisual(id graph.NodeID) *NodeVisual {
	return s.nodes[id]
}

// ConnectionVisual returns the visual for the connection, or nil.
func (s *Scene) ConnectionVisual(c graph.ConnectionID) *ConnectionVisual {
	return s.connections[c]
}

// NodeVisuals calls fn for every node visual. The mapping must not be
// mutated from fn.
func (s *Scene) NodeVisuals(fn func(*NodeVisual)) {
	for _, nv := range s.nodes {
		fn(nv)
	}
}

// ConnectionVisuals calls fn for every model-backed connection visual.
// The draft is not included.
func (s *Scene) ConnectionVisuals(fn func(*ConnectionVisual)) {
	for _, cv := range s.connections {
		fn(cv)
	}
}

// NodeCount returns the number of node visuals.
func (s *Scene) NodeCount() int {
	return len(s.nodes)
}

// ConnectionCount returns the number of model-backed connection visuals.
func (s *Scene) ConnectionCount() int {
	return len(s.connections)
}

// HandleModified registers a callback fired after any mutation the host
// should consider for dirty-tracking or undo recording.
func (s *Scene) HandleModified(fn func()) {
	s.modifiedFns = append(s.modifiedFns, fn)
}

// HandleNodeMoved registers a callback fired once per completed node
// drag, with the final position.
func (s *Scene) HandleNodeMoved(fn func(graph.NodeID, geometry.Point)) {
	s.nodeMovedFns = append(s.nodeMovedFns, fn)
}

func (s *Scene) newNodeVisual(id graph.NodeID) *NodeVisual {
	return &NodeVisual{
		scene:    s,
		id:       id,
		position: s.store.PositionOf(id),
	}
}

func (s *Scene) newConnectionVisual(c graph.ConnectionID, draft bool) *ConnectionVisual {
	return &ConnectionVisual{scene: s, id: c, draft: draft}
}

// updateAttachedNode invalidates the geometry of the node on one side of
// the connection, if its visual still exists.
func (s *Scene) updateAttachedNode(c graph.ConnectionID, pt graph.PortType) {
	if nv := s.nodes[c.NodeAt(pt)]; nv != nil {
		nv.SetGeometryChanged()
	}
}

func (s *Scene) emitModified() {
	for _, fn := range s.modifiedFns {
		fn()
	}
}
