package controller

import "sync"

// Tracker remembers the most recently constructed controllers. Only the
// last Cap() controllers are retained; Total counts every one.
type Tracker struct {
	buf   []*Controller
	next  int
	full  bool
	total uint64
	mu    sync.Mutex
}

// NewTracker creates a tracker retaining up to capacity controllers.
// A capacity of zero or less keeps none and only counts.
func NewTracker(capacity int) *Tracker {
	if capacity < 0 {
		capacity = 0
	}
	return &Tracker{buf: make([]*Controller, capacity)}
}

// Track records c.
func (t *Tracker) Track(c *Controller) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if len(t.buf) == 0 {
		return
	}
	t.buf[t.next] = c
	t.next = (t.next + 1) % len(t.buf)
	if t.next == 0 {
		t.full = true
	}
}

// Constructed returns the retained controllers, oldest first.
func (t *Tracker) Constructed() []*Controller {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full {
		out := make([]*Controller, t.next)
		copy(out, t.buf[:t.next])
		return out
	}
	out := make([]*Controller, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	return append(out, t.buf[:t.next]...)
}

// Find returns a retained controller by id.
func (t *Tracker) Find(id string) (*Controller, bool) {
	for _, c := range t.Constructed() {
		if c.ID() == id {
			return c, true
		}
	}
	return nil, false
}

// Len returns how many controllers are retained.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.full {
		return len(t.buf)
	}
	return t.next
}

// Total returns how many controllers were ever tracked.
func (t *Tracker) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Cap returns the retention limit.
func (t *Tracker) Cap() int {
	return len(t.buf)
}
