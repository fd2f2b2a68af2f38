package firing

import (
	"sync"
	"time"
)

// OneShot is a Timer backed by time.AfterFunc.
type OneShot struct {
	mu sync.Mutex
	t  *time.Timer
}

// NewTimer creates an unarmed one-shot timer.
func NewTimer() *OneShot {
	return &OneShot{}
}

// Start schedules f to run once after d on its own goroutine, replacing any
// earlier schedule.
func (o *OneShot) Start(d time.Duration, f func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.t != nil {
		o.t.Stop()
	}
	o.t = time.AfterFunc(d, f)
}

// Stop cancels a pending expiry. The lock is not held while f runs, so f may
// call Stop.
func (o *OneShot) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.t != nil {
		o.t.Stop()
		o.t = nil
	}
}
