package graph

import (
	"testing"
)

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := NewMemStore()
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec)

	s.AddNode(NodeSpec{ID: "a"})
	unsubscribe()
	s.AddNode(NodeSpec{ID: "b"})

	if len(rec.events) != 1 || rec.events[0] != "nodeCreated:a" {
		t.Errorf("events = %v", rec.events)
	}
}

func TestMultipleListenersInOrder(t *testing.T) {
	s := NewMemStore()
	var order []string
	s.Subscribe(&funcListener{created: func(id NodeID) { order = append(order, "first:"+string(id)) }})
	s.Subscribe(&funcListener{created: func(id NodeID) { order = append(order, "second:"+string(id)) }})

	s.AddNode(NodeSpec{ID: "a"})

	if len(order) != 2 || order[0] != "first:a" || order[1] != "second:a" {
		t.Errorf("order = %v", order)
	}
}

// TestReentrantMutationQueuesEvents has a listener create a second node
// from inside its handler. The triggered event must be delivered after
// the current one finishes, never nested inside it.
func TestReentrantMutationQueuesEvents(t *testing.T) {
	s := NewMemStore()
	rec := &recorder{}

	depth := 0
	maxDepth := 0
	s.Subscribe(&funcListener{created: func(id NodeID) {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		if id == "a" {
			if _, err := s.AddNode(NodeSpec{ID: "follower"}); err != nil {
				t.Errorf("reentrant add failed: %v", err)
			}
		}
		depth--
	}})
	s.Subscribe(rec)

	s.AddNode(NodeSpec{ID: "a"})

	if maxDepth != 1 {
		t.Errorf("handler nesting depth = %d, want 1", maxDepth)
	}
	want := []string{"nodeCreated:a", "nodeCreated:follower"}
	if len(rec.events) != 2 || rec.events[0] != want[0] || rec.events[1] != want[1] {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
	if !s.HasNode("follower") {
		t.Error("reentrant mutation was lost")
	}
}

func TestUnsubscribeDuringDelivery(t *testing.T) {
	s := NewMemStore()
	var unsubscribe func()
	calls := 0
	unsubscribe = s.Subscribe(&funcListener{created: func(NodeID) {
		calls++
		unsubscribe()
	}})

	s.AddNode(NodeSpec{ID: "a"})
	s.AddNode(NodeSpec{ID: "b"})

	if calls != 1 {
		t.Errorf("listener called %d times after self-unsubscribe, want 1", calls)
	}
}

// funcListener adapts bare funcs to the Listener interface; unset
// callbacks are no-ops.
type funcListener struct {
	created func(NodeID)
}

func (f *funcListener) OnNodeCreated(id NodeID) {
	if f.created != nil {
		f.created(id)
	}
}
func (f *funcListener) OnNodeDeleted(NodeID)             {}
func (f *funcListener) OnConnectionCreated(ConnectionID) {}
func (f *funcListener) OnConnectionDeleted(ConnectionID) {}
func (f *funcListener) OnNodePositionUpdated(NodeID)     {}
func (f *funcListener) OnNodeUpdated(NodeID)             {}
func (f *funcListener) OnModelReset()                    {}
