// Package graph defines the authoritative graph model the scene engine
// projects: node and connection identities, the read-only store contract,
// the change-notification contract, and an in-memory reference store.
package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// NodeID identifies a node for its whole lifetime. IDs are opaque; the
// in-memory store mints UUIDs, other stores may use whatever is stable.
type NodeID string

// InvalidNodeID marks an unbound connection side (e.g. the free end of a
// draft connection).
const InvalidNodeID NodeID = ""

// NewNodeID mints a fresh node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// Valid reports whether the id refers to a node at all.
func (id NodeID) Valid() bool {
	return id != InvalidNodeID
}

// PortType distinguishes the two sides of a node.
type PortType int

const (
	PortIn PortType = iota
	PortOut
)

// Opposite returns the other port side.
func (pt PortType) Opposite() PortType {
	if pt == PortIn {
		return PortOut
	}
	return PortIn
}

func (pt PortType) String() string {
	if pt == PortIn {
		return "in"
	}
	return "out"
}

// PortIndex addresses a port within a node, per side, starting at 0.
type PortIndex int

// ConnectionID identifies a directed port-to-port connection. Equality is
// structural: two values with the same fields are the same connection.
type ConnectionID struct {
	OutNodeID    NodeID    `json:"outNode"`
	OutPortIndex PortIndex `json:"outPort"`
	InNodeID     NodeID    `json:"inNode"`
	InPortIndex  PortIndex `json:"inPort"`
}

// NodeAt returns the node on the given side of the connection.
func (c ConnectionID) NodeAt(pt PortType) NodeID {
	if pt == PortOut {
		return c.OutNodeID
	}
	return c.InNodeID
}

// PortAt returns the port index on the given side of the connection.
func (c ConnectionID) PortAt(pt PortType) PortIndex {
	if pt == PortOut {
		return c.OutPortIndex
	}
	return c.InPortIndex
}

// Complete reports whether both sides are bound to a node. Draft
// connections carry an incomplete id until the drag finishes.
func (c ConnectionID) Complete() bool {
	return c.OutNodeID.Valid() && c.InNodeID.Valid()
}

func (c ConnectionID) String() string {
	return fmt.Sprintf("%s.%d->%s.%d", c.OutNodeID, c.OutPortIndex, c.InNodeID, c.InPortIndex)
}
