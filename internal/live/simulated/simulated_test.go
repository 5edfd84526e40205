package simulated

import (
	"context"
	"testing"
	"time"

	"github.com/livecast/relay/internal/event"
	"github.com/livecast/relay/internal/live"
)

func TestCreateRejectsEmptyStreamerID(t *testing.T) {
	if _, err := New().Create("", live.Options{}); err == nil {
		t.Fatal("expected error for empty streamer id")
	}
}

func TestConnectEmitsCatalogueEvents(t *testing.T) {
	src := New()
	src.Interval = time.Millisecond

	h, err := src.Create("alice", live.Options{})
	if err != nil {
		t.Fatal(err)
	}
	state, err := h.Connect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.StreamerID != "alice" || state.RoomID == "" {
		t.Errorf("connect state = %+v", state)
	}

	known := make(map[event.Kind]bool)
	for _, k := range event.Catalogue {
		known[k] = true
	}

	timeout := time.After(2 * time.Second)
	for i := 0; i < 20; i++ {
		select {
		case ev := <-h.Events():
			if !known[ev.Kind] {
				t.Fatalf("emitted kind %q is not in the catalogue", ev.Kind)
			}
		case <-timeout:
			t.Fatal("timed out waiting for simulated events")
		}
	}
}

func TestConnectHonorsCancelledContext(t *testing.T) {
	src := New()
	h, err := src.Create("alice", live.Options{})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Connect(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
