package speech

import (
	"sync"
	"time"
)

// reaper runs delayed deletion tasks for transient clips. Tasks fire once
// after their delay; Stop cancels everything still pending, so a shutdown
// does not leave orphan timers running.
type reaper struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newReaper() *reaper {
	return &reaper{timers: make(map[string]*time.Timer)}
}

// schedule arranges for fn to run after delay, keyed by name. Scheduling the
// same name twice replaces the earlier task.
func (r *reaper) schedule(name string, delay time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if old, ok := r.timers[name]; ok {
		old.Stop()
	}
	r.timers[name] = time.AfterFunc(delay, func() {
		r.mu.Lock()
		delete(r.timers, name)
		r.mu.Unlock()
		fn()
	})
}

// stop cancels all pending tasks.
func (r *reaper) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for name, t := range r.timers {
		t.Stop()
		delete(r.timers, name)
	}
}

// pending reports how many deletion tasks are scheduled.
func (r *reaper) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
