package searchbar

import (
	"context"
	"sync"
	"time"
)

// Debouncer runs the most recent of a burst of jobs once the burst has been
// quiet for delay. Scheduling a new job cancels the context of the previous
// one, whether it is still waiting or already running.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	base    context.Context
	stop    context.CancelFunc
	timer   *time.Timer
	cancel  context.CancelFunc
	pending sync.WaitGroup
	closed  bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	base, stop := context.WithCancel(context.Background())
	return &Debouncer{delay: delay, base: base, stop: stop}
}

// Trigger schedules fn after the quiet period.
func (d *Debouncer) Trigger(fn func(ctx context.Context)) {
	d.schedule(d.delay, fn)
}

// TriggerNow runs fn immediately, still superseding earlier jobs.
func (d *Debouncer) TriggerNow(fn func(ctx context.Context)) {
	d.schedule(0, fn)
}

func (d *Debouncer) schedule(delay time.Duration, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.supersedeLocked()

	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel
	d.pending.Add(1)
	run := func() {
		defer d.pending.Done()
		defer cancel()
		if ctx.Err() != nil {
			return
		}
		fn(ctx)
	}

	if delay <= 0 {
		d.timer = nil
		go run()
		return
	}
	d.timer = time.AfterFunc(delay, run)
}

// supersedeLocked stops a waiting job and cancels a running one.
func (d *Debouncer) supersedeLocked() {
	if d.timer != nil && d.timer.Stop() {
		// the job will never run; balance its Add
		d.pending.Done()
	}
	d.timer = nil
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Close cancels outstanding work and waits for running jobs to return.
// Later triggers are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.supersedeLocked()
	d.stop()
	d.mu.Unlock()

	d.pending.Wait()
}
