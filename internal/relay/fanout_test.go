package relay

import (
	"errors"
	"sync"
	"testing"
)

// recordingSub collects deliveries; failing makes every Deliver error.
// Safe for concurrent use so pump-driven broadcasts can be asserted on.
type recordingSub struct {
	mu      sync.Mutex
	got     []string
	failing bool
}

func (s *recordingSub) Deliver(kind string, data any) error {
	if s.failing {
		return errors.New("send failed")
	}
	s.mu.Lock()
	s.got = append(s.got, kind)
	s.mu.Unlock()
	return nil
}

func (s *recordingSub) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func (s *recordingSub) countOf(kind string) int {
	n := 0
	for _, k := range s.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func TestFanoutJoinIdempotent(t *testing.T) {
	f := NewFanout()
	sub := &recordingSub{}

	f.Join("alice", sub)
	f.Join("alice", sub)

	if n := f.Count("alice"); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	f.Broadcast("alice", "chat", nil)
	if len(sub.got) != 1 {
		t.Errorf("deliveries = %d, want 1", len(sub.got))
	}
}

func TestFanoutJoinMovesSubscriber(t *testing.T) {
	f := NewFanout()
	sub := &recordingSub{}

	f.Join("alice", sub)
	f.Join("bob", sub)

	if n := f.Count("alice"); n != 0 {
		t.Errorf("alice count = %d, want 0", n)
	}
	if n := f.Count("bob"); n != 1 {
		t.Errorf("bob count = %d, want 1", n)
	}

	f.Broadcast("alice", "chat", nil)
	f.Broadcast("bob", "gift", nil)
	if len(sub.got) != 1 || sub.got[0] != "gift" {
		t.Errorf("deliveries = %v, want [gift]", sub.got)
	}
}

func TestFanoutLeaveTwiceSafe(t *testing.T) {
	f := NewFanout()
	sub := &recordingSub{}

	f.Join("alice", sub)
	f.Leave(sub)
	f.Leave(sub) // must be a no-op
	f.Leave(&recordingSub{}) // never joined

	f.Broadcast("alice", "chat", nil)
	if len(sub.got) != 0 {
		t.Errorf("removed subscriber still received %v", sub.got)
	}
}

func TestFanoutBroadcastSwallowsDeliveryFailure(t *testing.T) {
	f := NewFanout()
	bad := &recordingSub{failing: true}
	good := &recordingSub{}

	f.Join("alice", bad)
	f.Join("alice", good)

	f.Broadcast("alice", "chat", nil)

	if len(good.got) != 1 {
		t.Errorf("healthy subscriber deliveries = %d, want 1", len(good.got))
	}
	// The failing subscriber stays joined; delivery failure is per-message.
	if n := f.Count("alice"); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestFanoutBroadcastUnknownStreamer(t *testing.T) {
	f := NewFanout()
	f.Broadcast("nobody", "chat", nil) // must not panic
}
