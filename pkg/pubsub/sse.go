package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/patchwire/patchwire/pkg/logging"
)

// TopicConfig sets replay behavior for a topic.
type TopicConfig struct {
	BufferSize int  // events kept for replay to new subscribers (0 = none)
	ReplayAll  bool // replay the whole buffer instead of only the last event
}

// SSEPublisher is a Publisher whose events are also writable as
// Server-Sent Events. Safe for concurrent use.
type SSEPublisher struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscription]struct{}
	version map[string]int
	buffers map[string][]Event
	configs map[string]TopicConfig
	closed  bool
}

// NewSSEPublisher creates an empty publisher.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subs:    make(map[string]map[*subscription]struct{}),
		version: make(map[string]int),
		buffers: make(map[string][]Event),
		configs: make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets the replay buffer for a topic.
func (p *SSEPublisher) ConfigureTopic(topic string, cfg TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configs[topic] = cfg
}

// Subscribe implements Publisher.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &subscription{
		topic:     topic,
		events:    make(chan Event, 64),
		publisher: p,
	}
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[*subscription]struct{})
	}
	p.subs[topic][sub] = struct{}{}

	replay := make([]Event, len(p.buffers[topic]))
	copy(replay, p.buffers[topic])
	cfg := p.configs[topic]
	p.mu.Unlock()

	if len(replay) > 0 && !cfg.ReplayAll {
		replay = replay[len(replay)-1:]
	}
	for _, ev := range replay {
		select {
		case sub.events <- ev:
		default:
			logging.Warn("dropped replay event", "topic", topic)
		}
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// Publish implements Publisher. Delivery never blocks; a subscriber with
// a full channel loses the event.
func (p *SSEPublisher) Publish(topic, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event data: %w", err)
	}

	p.version[topic]++
	ev := Event{Topic: topic, Type: eventType, Data: raw, Version: p.version[topic]}

	if cfg := p.configs[topic]; cfg.BufferSize > 0 {
		buf := append(p.buffers[topic], ev)
		if len(buf) > cfg.BufferSize {
			buf = buf[len(buf)-cfg.BufferSize:]
		}
		p.buffers[topic] = buf
	}

	for sub := range p.subs[topic] {
		select {
		case sub.events <- ev:
		default:
			logging.Warn("subscriber channel full, dropping event", "topic", topic)
		}
	}
	return nil
}

// Close implements Publisher.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	for _, subs := range p.subs {
		for sub := range subs {
			close(sub.events)
		}
	}
	p.subs = make(map[string]map[*subscription]struct{})
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subs := p.subs[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subs, sub.topic)
		}
	}
}

type subscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher
	closeOnce sync.Once
}

func (s *subscription) Topic() string {
	return s.topic
}

func (s *subscription) Events() <-chan Event {
	return s.events
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.publisher.unsubscribe(s)
	})
	return nil
}

// WriteSSE writes one event in SSE wire format: "data: {json}\n\n".
func WriteSSE(w io.Writer, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", raw)
	return err
}
