// Package relay implements the live event relay core: one upstream
// connection per streamer, a per-streamer event buffer with time-based
// eviction, poll cursors for pull consumers, and push-subscriber fan-out.
package relay

import (
	"sort"
	"sync"
	"time"

	"github.com/livecast/relay/internal/event"
)

// DefaultRetention is how long buffered events stay queryable.
const DefaultRetention = 30 * time.Minute

// Buffer is one streamer's append-only, time-ordered event log. Eviction is
// lazy: entries older than the retention window are swept at query time, so
// no background timer is needed.
type Buffer struct {
	retention time.Duration
	now       func() time.Time

	mu     sync.Mutex
	events []event.Envelope
}

func NewBuffer(retention time.Duration) *Buffer {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Buffer{retention: retention, now: time.Now}
}

// Append adds an event. The caller guarantees non-decreasing timestamps for
// this streamer; append order equals upstream delivery order.
func (b *Buffer) Append(env event.Envelope) {
	b.mu.Lock()
	b.events = append(b.events, env)
	b.mu.Unlock()
}

// Query sweeps entries older than the retention window, then returns the
// events with timestamp > sinceExclusive in append order. The returned slice
// is a copy and safe to retain.
func (b *Buffer) Query(sinceExclusive int64) []event.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweepLocked()

	// Timestamps are non-decreasing, so the tail newer than the cursor is
	// contiguous.
	i := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Timestamp > sinceExclusive
	})
	if i == len(b.events) {
		return nil
	}
	out := make([]event.Envelope, len(b.events)-i)
	copy(out, b.events[i:])
	return out
}

// Len reports the number of buffered events without sweeping.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *Buffer) sweepLocked() {
	cutoff := b.now().Add(-b.retention).UnixMilli()
	i := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Timestamp >= cutoff
	})
	if i == 0 {
		return
	}
	// Copy to a fresh slice so evicted entries are actually released.
	kept := make([]event.Envelope, len(b.events)-i)
	copy(kept, b.events[i:])
	b.events = kept
}
