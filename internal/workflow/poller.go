package workflow

import (
	"context"
	"sync"
	"time"
)

// poller runs a step immediately and then once per interval until the step
// returns false, Stop is called, or the context ends. Steps never overlap.
type poller struct {
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func startPoller(ctx context.Context, interval time.Duration, step func(context.Context) bool) *poller {
	p := &poller{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.loop(ctx, step)
	return p
}

func (p *poller) loop(ctx context.Context, step func(context.Context) bool) {
	defer close(p.done)

	for {
		if !step(ctx) {
			return
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		select {
		case <-p.stop:
			return
		default:
		}
	}
}

// Stop prevents further steps. A step already running is not interrupted.
func (p *poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Done is closed once the loop has exited.
func (p *poller) Done() <-chan struct{} {
	return p.done
}
