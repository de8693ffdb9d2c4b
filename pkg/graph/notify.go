package graph

// emitter delivers store events to subscribed listeners in order. Events
// emitted while a delivery is in progress (a listener mutating the store
// from inside its handler) are queued and drained afterwards, so no
// handler ever runs nested inside another.
type emitter struct {
	subs     []*subscription
	queue    []func(Listener)
	draining bool
}

type subscription struct {
	l Listener
}

// Subscribe implements Notifier.
func (e *emitter) Subscribe(l Listener) func() {
	sub := &subscription{l: l}
	e.subs = append(e.subs, sub)
	return func() {
		sub.l = nil
	}
}

func (e *emitter) emit(ev func(Listener)) {
	e.queue = append(e.queue, ev)
	if e.draining {
		return
	}
	e.draining = true
	defer func() { e.draining = false }()

	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue = e.queue[1:]
		for _, sub := range e.subs {
			if sub.l != nil {
				next(sub.l)
			}
		}
	}
	e.compact()
}

// compact drops deregistered subscriptions. Only safe between drains.
func (e *emitter) compact() {
	live := e.subs[:0]
	for _, sub := range e.subs {
		if sub.l != nil {
			live = append(live, sub)
		}
	}
	e.subs = live
}
