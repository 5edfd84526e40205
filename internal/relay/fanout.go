package relay

import "sync"

// Subscriber is a push-channel handle. Deliver sends one message; a non-nil
// error marks the delivery failed for this subscriber only.
type Subscriber interface {
	Deliver(kind string, data any) error
}

// Push-channel lifecycle message types emitted by the relay.
const (
	MsgConnected    = "connected"
	MsgDisconnected = "disconnected"
)

// DisconnectNotice is the payload of a disconnected message.
type DisconnectNotice struct {
	Reason string `json:"reason"`
}

// Fanout tracks push-subscriber membership per streamer. A subscriber is
// joined to at most one streamer at a time; joining another moves it.
type Fanout struct {
	mu      sync.Mutex
	members map[string]map[Subscriber]struct{}
	joined  map[Subscriber]string
}

func NewFanout() *Fanout {
	return &Fanout{
		members: make(map[string]map[Subscriber]struct{}),
		joined:  make(map[Subscriber]string),
	}
}

// Join adds sub to streamerID's set. Idempotent; if sub was joined to a
// different streamer it is removed from that set first.
func (f *Fanout) Join(streamerID string, sub Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.joined[sub]; ok {
		if prev == streamerID {
			return
		}
		f.removeLocked(prev, sub)
	}
	set, ok := f.members[streamerID]
	if !ok {
		set = make(map[Subscriber]struct{})
		f.members[streamerID] = set
	}
	set[sub] = struct{}{}
	f.joined[sub] = streamerID
}

// Leave removes sub from whatever streamer it is joined to. Safe to call
// repeatedly and for subscribers that never joined.
func (f *Fanout) Leave(sub Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	streamerID, ok := f.joined[sub]
	if !ok {
		return
	}
	f.removeLocked(streamerID, sub)
	delete(f.joined, sub)
}

// Broadcast delivers one message to every subscriber currently joined to
// streamerID. Best-effort: per-subscriber failures are swallowed and there is
// no ordering guarantee across subscribers.
func (f *Fanout) Broadcast(streamerID, kind string, data any) {
	f.mu.Lock()
	subs := make([]Subscriber, 0, len(f.members[streamerID]))
	for sub := range f.members[streamerID] {
		subs = append(subs, sub)
	}
	f.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Deliver(kind, data)
	}
}

// Count reports how many subscribers are joined to streamerID.
func (f *Fanout) Count(streamerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[streamerID])
}

func (f *Fanout) removeLocked(streamerID string, sub Subscriber) {
	if set, ok := f.members[streamerID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(f.members, streamerID)
		}
	}
}
