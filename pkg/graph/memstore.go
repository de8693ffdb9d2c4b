package graph

import (
	"fmt"
	"sort"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/patchwire/patchwire/pkg/geometry"
)

// NodeSpec describes a node for creation or snapshot exchange.
type NodeSpec struct {
	ID       NodeID         `json:"id"`
	Caption  string         `json:"caption"`
	InPorts  int            `json:"inPorts"`
	OutPorts int            `json:"outPorts"`
	Position geometry.Point `json:"position"`
	Content  geometry.Size  `json:"content,omitempty"`
}

// Snapshot is the full store contents, used by document import/export and
// bulk replacement.
type Snapshot struct {
	Nodes       []NodeSpec     `json:"nodes"`
	Connections []ConnectionID `json:"connections"`
}

type nodeRecord struct {
	caption  string
	inPorts  int
	outPorts int
	position geometry.Point
	content  geometry.Size
	gnode    gonum.Node
}

// connLine tags a gonum line with the connection it represents, so edge
// queries can recover ConnectionIDs without a reverse index.
type connLine struct {
	multi.Line
	conn ConnectionID
}

// MemStore is the in-memory reference implementation of Store and
// Notifier, with a mutation API for hosts, documents, and tests. The edge
// set is mirrored in a gonum directed multigraph: a multigraph because two
// connections may join the same node pair on different ports.
//
// MemStore is not internally synchronized; callers that mutate it from
// multiple goroutines (the web layer does) must serialize access.
type MemStore struct {
	emitter
	nodes map[NodeID]*nodeRecord
	conns map[ConnectionID]connLine
	edges *multi.DirectedGraph
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[NodeID]*nodeRecord),
		conns: make(map[ConnectionID]connLine),
		edges: multi.NewDirectedGraph(),
	}
}

// AllNodeIDs implements Store.
func (s *MemStore) AllNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HasNode implements Store.
func (s *MemStore) HasNode(id NodeID) bool {
	_, ok := s.nodes[id]
	return ok
}

// Connections implements Store.
func (s *MemStore) Connections(id NodeID, pt PortType, idx PortIndex) []ConnectionID {
	var out []ConnectionID
	for _, cl := range s.attachedLines(id, pt) {
		if cl.conn.PortAt(pt) == idx {
			out = append(out, cl.conn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// PortCount implements Store.
func (s *MemStore) PortCount(id NodeID, pt PortType) int {
	rec := s.nodes[id]
	if rec == nil {
		return 0
	}
	if pt == PortIn {
		return rec.inPorts
	}
	return rec.outPorts
}

// PositionOf implements Store.
func (s *MemStore) PositionOf(id NodeID) geometry.Point {
	if rec := s.nodes[id]; rec != nil {
		return rec.position
	}
	return geometry.Point{}
}

// Caption implements Store.
func (s *MemStore) Caption(id NodeID) string {
	if rec := s.nodes[id]; rec != nil {
		return rec.caption
	}
	return ""
}

// ContentSize implements Store.
func (s *MemStore) ContentSize(id NodeID) geometry.Size {
	if rec := s.nodes[id]; rec != nil {
		return rec.content
	}
	return geometry.Size{}
}

// AddNode creates a node and returns its id. A zero spec.ID mints a fresh
// one; an explicit id that already exists is an error.
func (s *MemStore) AddNode(spec NodeSpec) (NodeID, error) {
	id := spec.ID
	if !id.Valid() {
		id = NewNodeID()
	}
	if _, exists := s.nodes[id]; exists {
		return InvalidNodeID, fmt.Errorf("node %s already exists", id)
	}
	s.insertNode(id, spec)
	s.emit(func(l Listener) { l.OnNodeCreated(id) })
	return id, nil
}

func (s *MemStore) insertNode(id NodeID, spec NodeSpec) {
	gnode := s.edges.NewNode()
	s.edges.AddNode(gnode)
	s.nodes[id] = &nodeRecord{
		caption:  spec.Caption,
		inPorts:  spec.InPorts,
		outPorts: spec.OutPorts,
		position: spec.Position,
		content:  spec.Content,
		gnode:    gnode,
	}
}

// DeleteNode removes a node and every connection attached to it. The
// attached connections' deletion events are emitted before the node's own,
// which is the ordering the scene engine relies on (and stays defensive
// about). Deleting an unknown node is a no-op.
func (s *MemStore) DeleteNode(id NodeID) {
	rec := s.nodes[id]
	if rec == nil {
		return
	}
	attached := s.attachedLines(id, PortOut)
	for _, cl := range s.attachedLines(id, PortIn) {
		if cl.conn.OutNodeID != id { // self-loops already collected
			attached = append(attached, cl)
		}
	}
	for _, cl := range attached {
		s.removeLine(cl)
	}
	s.edges.RemoveNode(rec.gnode.ID())
	delete(s.nodes, id)

	for _, cl := range attached {
		conn := cl.conn
		s.emit(func(l Listener) { l.OnConnectionDeleted(conn) })
	}
	s.emit(func(l Listener) { l.OnNodeDeleted(id) })
}

// Connect creates the connection described by c. Both endpoints must exist
// and the port indexes must be in range.
func (s *MemStore) Connect(c ConnectionID) error {
	if !c.Complete() {
		return fmt.Errorf("incomplete connection id %s", c)
	}
	outRec := s.nodes[c.OutNodeID]
	inRec := s.nodes[c.InNodeID]
	if outRec == nil || inRec == nil {
		return fmt.Errorf("connection %s references a missing node", c)
	}
	if int(c.OutPortIndex) >= outRec.outPorts || int(c.InPortIndex) >= inRec.inPorts ||
		c.OutPortIndex < 0 || c.InPortIndex < 0 {
		return fmt.Errorf("connection %s references a port out of range", c)
	}
	if _, exists := s.conns[c]; exists {
		return fmt.Errorf("connection %s already exists", c)
	}
	s.insertConnection(c, outRec, inRec)
	s.emit(func(l Listener) { l.OnConnectionCreated(c) })
	return nil
}

func (s *MemStore) insertConnection(c ConnectionID, outRec, inRec *nodeRecord) {
	line := s.edges.NewLine(outRec.gnode, inRec.gnode).(multi.Line)
	cl := connLine{Line: line, conn: c}
	s.edges.SetLine(cl)
	s.conns[c] = cl
}

// Disconnect removes the connection if it exists; unknown ids are a no-op.
func (s *MemStore) Disconnect(c ConnectionID) {
	cl, ok := s.conns[c]
	if !ok {
		return
	}
	s.removeLine(cl)
	s.emit(func(l Listener) { l.OnConnectionDeleted(c) })
}

func (s *MemStore) removeLine(cl connLine) {
	s.edges.RemoveLine(cl.From().ID(), cl.To().ID(), cl.ID())
	delete(s.conns, cl.conn)
}

// SetPosition moves a node. Unknown nodes are ignored.
func (s *MemStore) SetPosition(id NodeID, p geometry.Point) {
	rec := s.nodes[id]
	if rec == nil {
		return
	}
	rec.position = p
	s.emit(func(l Listener) { l.OnNodePositionUpdated(id) })
}

// SetCaption relabels a node, which may change its rendered size.
func (s *MemStore) SetCaption(id NodeID, caption string) {
	rec := s.nodes[id]
	if rec == nil {
		return
	}
	rec.caption = caption
	s.emit(func(l Listener) { l.OnNodeUpdated(id) })
}

// SetContentSize resizes a node's embedded content.
func (s *MemStore) SetContentSize(id NodeID, sz geometry.Size) {
	rec := s.nodes[id]
	if rec == nil {
		return
	}
	rec.content = sz
	s.emit(func(l Listener) { l.OnNodeUpdated(id) })
}

// SetPortCounts changes a node's port counts. Connections attached to
// ports that no longer exist are disconnected first.
func (s *MemStore) SetPortCounts(id NodeID, inPorts, outPorts int) {
	rec := s.nodes[id]
	if rec == nil {
		return
	}
	var orphaned []connLine
	for _, cl := range s.attachedLines(id, PortOut) {
		if int(cl.conn.OutPortIndex) >= outPorts {
			orphaned = append(orphaned, cl)
		}
	}
	for _, cl := range s.attachedLines(id, PortIn) {
		if int(cl.conn.InPortIndex) >= inPorts {
			orphaned = append(orphaned, cl)
		}
	}
	for _, cl := range orphaned {
		s.removeLine(cl)
	}
	rec.inPorts = inPorts
	rec.outPorts = outPorts

	for _, cl := range orphaned {
		conn := cl.conn
		s.emit(func(l Listener) { l.OnConnectionDeleted(conn) })
	}
	s.emit(func(l Listener) { l.OnNodeUpdated(id) })
}

// Reset empties the store and emits a single model reset.
func (s *MemStore) Reset() {
	s.clear()
	s.emit(func(l Listener) { l.OnModelReset() })
}

// Replace swaps the whole store contents for the snapshot and emits a
// single model reset. The snapshot is validated first; on error the store
// is left untouched.
func (s *MemStore) Replace(snap Snapshot) error {
	staged := NewMemStore()
	for _, spec := range snap.Nodes {
		if !spec.ID.Valid() {
			return fmt.Errorf("snapshot node without id")
		}
		if staged.HasNode(spec.ID) {
			return fmt.Errorf("snapshot has duplicate node %s", spec.ID)
		}
		staged.insertNode(spec.ID, spec)
	}
	for _, c := range snap.Connections {
		outRec := staged.nodes[c.OutNodeID]
		inRec := staged.nodes[c.InNodeID]
		if outRec == nil || inRec == nil {
			return fmt.Errorf("snapshot connection %s references a missing node", c)
		}
		if int(c.OutPortIndex) >= outRec.outPorts || int(c.InPortIndex) >= inRec.inPorts {
			return fmt.Errorf("snapshot connection %s references a port out of range", c)
		}
		if _, exists := staged.conns[c]; exists {
			return fmt.Errorf("snapshot has duplicate connection %s", c)
		}
		staged.insertConnection(c, outRec, inRec)
	}

	s.nodes = staged.nodes
	s.conns = staged.conns
	s.edges = staged.edges
	s.emit(func(l Listener) { l.OnModelReset() })
	return nil
}

// Snapshot exports the store contents in a stable order.
func (s *MemStore) Snapshot() Snapshot {
	snap := Snapshot{
		Nodes:       make([]NodeSpec, 0, len(s.nodes)),
		Connections: make([]ConnectionID, 0, len(s.conns)),
	}
	for _, id := range s.AllNodeIDs() {
		rec := s.nodes[id]
		snap.Nodes = append(snap.Nodes, NodeSpec{
			ID:       id,
			Caption:  rec.caption,
			InPorts:  rec.inPorts,
			OutPorts: rec.outPorts,
			Position: rec.position,
			Content:  rec.content,
		})
	}
	for c := range s.conns {
		snap.Connections = append(snap.Connections, c)
	}
	sort.Slice(snap.Connections, func(i, j int) bool {
		return snap.Connections[i].String() < snap.Connections[j].String()
	})
	return snap
}

// ConnectionCount returns the number of live connections.
func (s *MemStore) ConnectionCount() int {
	return len(s.conns)
}

func (s *MemStore) clear() {
	s.nodes = make(map[NodeID]*nodeRecord)
	s.conns = make(map[ConnectionID]connLine)
	s.edges = multi.NewDirectedGraph()
}

// attachedLines collects the gonum lines touching the node on one side.
func (s *MemStore) attachedLines(id NodeID, pt PortType) []connLine {
	rec := s.nodes[id]
	if rec == nil {
		return nil
	}
	gid := rec.gnode.ID()
	var out []connLine
	if pt == PortOut {
		it := s.edges.From(gid)
		for it.Next() {
			lines := s.edges.Lines(gid, it.Node().ID())
			for lines.Next() {
				out = append(out, lines.Line().(connLine))
			}
		}
	} else {
		it := s.edges.To(gid)
		for it.Next() {
			lines := s.edges.Lines(it.Node().ID(), gid)
			for lines.Next() {
				out = append(out, lines.Line().(connLine))
			}
		}
	}
	return out
}
