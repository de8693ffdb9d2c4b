package pubsub

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	sub, err := p.Subscribe(context.Background(), "scene")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	if err := p.Publish("scene", "updated", SceneSummary{Nodes: 2, Connections: 1}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case ev := <-sub.Events():
		if ev.Topic != "scene" || ev.Type != "updated" {
			t.Errorf("got event %s/%s, want scene/updated", ev.Topic, ev.Type)
		}
		if ev.Version != 1 {
			t.Errorf("got version %d, want 1", ev.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestVersionIncrementsPerTopic(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	sub, _ := p.Subscribe(context.Background(), "scene")
	defer sub.Close()

	for i := 0; i < 3; i++ {
		if err := p.Publish("scene", "updated", nil); err != nil {
			t.Fatalf("Publish %d failed: %v", i, err)
		}
	}
	if err := p.Publish("node_moved", "moved", nil); err != nil {
		t.Fatalf("Publish to second topic failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		ev := <-sub.Events()
		if ev.Version != i {
			t.Errorf("event %d: got version %d", i, ev.Version)
		}
	}
}

func TestReplayLastEvent(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()
	p.ConfigureTopic("scene", TopicConfig{BufferSize: 10})

	p.Publish("scene", "updated", SceneSummary{Nodes: 1})
	p.Publish("scene", "updated", SceneSummary{Nodes: 2})

	sub, err := p.Subscribe(context.Background(), "scene")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	select {
	case ev := <-sub.Events():
		if ev.Version != 2 {
			t.Errorf("got version %d, want latest (2)", ev.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a replayed event")
	}

	select {
	case ev := <-sub.Events():
		t.Errorf("unexpected second replay event: version %d", ev.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReplayAll(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()
	p.ConfigureTopic("scene", TopicConfig{BufferSize: 10, ReplayAll: true})

	for i := 0; i < 3; i++ {
		p.Publish("scene", "updated", nil)
	}

	sub, _ := p.Subscribe(context.Background(), "scene")
	defer sub.Close()

	for want := 1; want <= 3; want++ {
		select {
		case ev := <-sub.Events():
			if ev.Version != want {
				t.Errorf("got version %d, want %d", ev.Version, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing replay event %d", want)
		}
	}
}

func TestBufferTrimsToConfiguredSize(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()
	p.ConfigureTopic("scene", TopicConfig{BufferSize: 2, ReplayAll: true})

	for i := 0; i < 5; i++ {
		p.Publish("scene", "updated", nil)
	}

	sub, _ := p.Subscribe(context.Background(), "scene")
	defer sub.Close()

	ev := <-sub.Events()
	if ev.Version != 4 {
		t.Errorf("first replayed version = %d, want 4", ev.Version)
	}
	ev = <-sub.Events()
	if ev.Version != 5 {
		t.Errorf("second replayed version = %d, want 5", ev.Version)
	}
}

func TestContextCancelUnsubscribes(t *testing.T) {
	p := NewSSEPublisher()
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := p.Subscribe(ctx, "scene")
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		p.mu.RLock()
		n := len(p.subs["scene"])
		p.mu.RUnlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("subscription not removed after context cancellation")
	_ = sub
}

func TestPublishAfterClose(t *testing.T) {
	p := NewSSEPublisher()
	p.Close()

	if err := p.Publish("scene", "updated", nil); err == nil {
		t.Error("Publish after Close should fail")
	}
	if _, err := p.Subscribe(context.Background(), "scene"); err == nil {
		t.Error("Subscribe after Close should fail")
	}
}

func TestWriteSSEFormat(t *testing.T) {
	var b strings.Builder
	ev := Event{Topic: "scene", Type: "updated", Version: 7}
	if err := WriteSSE(&b, ev); err != nil {
		t.Fatalf("WriteSSE failed: %v", err)
	}
	out := b.String()
	if !strings.HasPrefix(out, "data: ") {
		t.Errorf("output missing data prefix: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("output missing blank-line terminator: %q", out)
	}
	if !strings.Contains(out, `"version":7`) {
		t.Errorf("output missing version field: %q", out)
	}
}
