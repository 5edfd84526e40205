package relay

import (
	"sync"
	"time"
)

// CursorTracker records each pull requester's last-seen timestamp. A fresh
// requester is baselined at the current time, so it never receives history
// accumulated before its first poll. A requester that stops polling for
// longer than the retention window permanently loses the events it missed.
type CursorTracker struct {
	now func() time.Time

	mu       sync.Mutex
	lastSeen map[string]int64
}

func NewCursorTracker() *CursorTracker {
	return &CursorTracker{
		now:      time.Now,
		lastSeen: make(map[string]int64),
	}
}

// Register returns the requester's cursor and whether it was just created.
// A new cursor is baselined to now; the caller must translate isNew into an
// empty-result response rather than replaying history.
func (t *CursorTracker) Register(requesterID string) (since int64, isNew bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if since, ok := t.lastSeen[requesterID]; ok {
		return since, false
	}
	now := t.now().UnixMilli()
	t.lastSeen[requesterID] = now
	return now, true
}

// Advance moves the requester's cursor to now. Called after every poll
// regardless of how many events were returned, which makes polling
// deliberately non-idempotent.
func (t *CursorTracker) Advance(requesterID string) {
	t.mu.Lock()
	t.lastSeen[requesterID] = t.now().UnixMilli()
	t.mu.Unlock()
}
