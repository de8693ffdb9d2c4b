package watcher

import (
	"context"
	"time"

	"github.com/patchwire/patchwire/pkg/logging"
)

// Debouncer coalesces bursts of change events. An event is released after
// quietPeriod with no further activity, or after maxWait from the first
// event of a burst, whichever comes first.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		pending  *ChangeEvent
		quiet    *time.Timer
		deadline *time.Timer
		count    int
	)

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	flush := func() {
		if pending == nil {
			return
		}
		logging.Debug("flushing change events", "coalesced", count)
		d.output <- *pending
		pending = nil
		count = 0
		if quiet != nil {
			quiet.Stop()
			quiet = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadline = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			ev := event
			pending = &ev
			count++
			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(d.quietPeriod)
			}
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			quiet = nil
			flush()

		case <-timerC(deadline):
			deadline = nil
			flush()
		}
	}
}

// Output returns the channel of debounced events.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
