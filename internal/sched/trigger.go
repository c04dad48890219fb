// Package sched provides a handle-based periodic trigger.
package sched

import (
	"context"
	"time"
)

// Trigger invokes an action at a fixed wall-clock interval until stopped.
// Firings run sequentially on the trigger's own goroutine; an action that
// outruns the interval delays subsequent firings, it is the caller's job to
// debounce or offload slow work.
type Trigger struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Every starts a new trigger and returns its cancellation handle.
// The context passed to action is cancelled when Stop is called.
func Every(interval time.Duration, action func(context.Context)) *Trigger {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Trigger{cancel: cancel, done: make(chan struct{})}
	go t.loop(ctx, interval, action)
	return t
}

func (t *Trigger) loop(ctx context.Context, interval time.Duration, action func(context.Context)) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A tick may already be pending when Stop races with the
			// ticker; never fire after cancellation.
			select {
			case <-ctx.Done():
				return
			default:
			}
			action(ctx)
		}
	}
}

// Stop cancels the trigger and waits for any in-progress firing to return.
// After Stop, no further firings occur. Stop is idempotent.
func (t *Trigger) Stop() {
	t.cancel()
	<-t.done
}
