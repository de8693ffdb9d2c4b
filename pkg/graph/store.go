package graph

import "github.com/patchwire/patchwire/pkg/geometry"

// Store is the read-only contract the scene engine consumes. Node positions
// and attributes are authoritative here; the scene only mirrors them.
type Store interface {
	// AllNodeIDs returns the ids of every live node, in unspecified order.
	AllNodeIDs() []NodeID

	// HasNode reports whether the node exists.
	HasNode(id NodeID) bool

	// Connections returns every connection attached to the given port.
	// A connection is listed from both of its sides, so enumerating all
	// ports of all nodes visits each connection twice.
	Connections(id NodeID, pt PortType, idx PortIndex) []ConnectionID

	// PortCount returns how many ports the node has on the given side.
	// Unknown nodes have zero ports.
	PortCount(id NodeID, pt PortType) int

	// PositionOf returns the node's authoritative position. Unknown nodes
	// sit at the origin.
	PositionOf(id NodeID) geometry.Point

	// Caption returns the node's display label.
	Caption(id NodeID) string

	// ContentSize returns the dimensions of content embedded in the node
	// body, or a zero size for plain nodes.
	ContentSize(id NodeID) geometry.Size
}

// Listener receives store change notifications. Delivery is synchronous and
// strictly ordered; see Notifier.
type Listener interface {
	OnNodeCreated(id NodeID)
	OnNodeDeleted(id NodeID)
	OnConnectionCreated(c ConnectionID)
	OnConnectionDeleted(c ConnectionID)
	OnNodePositionUpdated(id NodeID)
	OnNodeUpdated(id NodeID)
	OnModelReset()
}

// Notifier is implemented by stores that push change notifications.
// Listeners are invoked in subscription order, one event at a time; an
// event emitted from inside a handler is queued and delivered after the
// current one finishes, never recursively.
type Notifier interface {
	// Subscribe registers the listener and returns a function that
	// deregisters it. Deregistering twice is harmless.
	Subscribe(l Listener) (unsubscribe func())
}
