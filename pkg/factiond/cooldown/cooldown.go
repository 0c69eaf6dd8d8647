package cooldown

import (
	"sync"
	"time"
)

// Standard windows used by the engine.
const (
	CommandWindow = 3 * time.Second
	StrikeWindow  = 24 * time.Hour
)

// Tracker records the last time a keyed event happened and answers whether
// the key is still inside its window. Entries are evicted lazily on read,
// so the map only grows with distinct active keys.
type Tracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewTracker creates a tracker with the given window.
func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// NewTrackerWithClock creates a tracker whose notion of time comes from
// now, for tests.
func NewTrackerWithClock(window time.Duration, now func() time.Time) *Tracker {
	t := NewTracker(window)
	t.now = now
	return t
}

// Remaining reports how long the key stays on cooldown. Zero means the key
// is usable. Expired entries are removed as a side effect.
func (t *Tracker) Remaining(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.last[key]
	if !ok {
		return 0
	}
	elapsed := t.now().Sub(at)
	if elapsed >= t.window {
		delete(t.last, key)
		return 0
	}
	return t.window - elapsed
}

// Active reports whether the key is currently on cooldown.
func (t *Tracker) Active(key string) bool {
	return t.Remaining(key) > 0
}

// Touch marks the key as used now, starting its window.
func (t *Tracker) Touch(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[key] = t.now()
}

// Clear removes the key regardless of its window, used when the state the
// cooldown guards is itself reset.
func (t *Tracker) Clear(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, key)
}

// Len returns the number of tracked entries, including expired entries not
// yet evicted.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}

// PairKey builds the conventional key for actor/target windows.
func PairKey(actorID, targetID string) string {
	return actorID + ":" + targetID
}
