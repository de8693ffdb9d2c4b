// Package pubsub fans scene notifications out to subscribers, with an SSE
// bridge for browser hosts.
package pubsub

import (
	"context"
	"encoding/json"
)

// Event is one published notification.
type Event struct {
	Topic   string          `json:"topic"`   // e.g. "scene", "node_moved"
	Type    string          `json:"type"`    // e.g. "modified", "reset", "moved"
	Data    json.RawMessage `json:"data"`    // payload
	Version int             `json:"version"` // per-topic ordering counter
}

// Subscription is one client's view of a topic.
type Subscription interface {
	// Topic returns the subscribed topic.
	Topic() string

	// Events returns the channel events arrive on.
	Events() <-chan Event

	// Close detaches the subscription. Idempotent.
	Close() error
}

// Publisher manages subscriptions and event delivery.
type Publisher interface {
	// Subscribe attaches to a topic; cancelling ctx closes the
	// subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to every subscriber of the topic.
	Publish(topic, eventType string, data interface{}) error

	// Close shuts the publisher and all subscriptions down.
	Close() error
}

// SceneSummary is the payload for "scene" events: enough for a host to
// decide whether to refetch the snapshot.
type SceneSummary struct {
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
	Orientation string `json:"orientation"`
}

// NodeMoved is the payload for "node_moved" events, fired once per
// completed drag.
type NodeMoved struct {
	Node string  `json:"node"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}
