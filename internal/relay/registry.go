package relay

import (
	"context"
	"sync"
	"time"

	"github.com/livecast/relay/internal/live"
)

// Session is one streamer's relay state: the upstream handle, its connect
// state, and the event buffer late consumers catch up from. The subscriber
// set lives in the Fanout and is keyed by the same streamer identifier.
type Session struct {
	StreamerID string
	Handle     live.Handle
	State      live.ConnectState
	Buffer     *Buffer
}

// Registry is the composition root mapping streamer identifiers to relay
// state. It is the single source of truth: every other component receives
// references from it rather than constructing its own.
type Registry struct {
	mux       *Multiplexer
	retention time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
	buffers  map[string]*Buffer
}

func NewRegistry(mux *Multiplexer, retention time.Duration) *Registry {
	return &Registry{
		mux:       mux,
		retention: retention,
		sessions:  make(map[string]*Session),
		buffers:   make(map[string]*Buffer),
	}
}

// GetOrCreate returns the streamer's session, lazily creating its buffer and
// delegating handle acquisition to the multiplexer. A failed connect caches
// no session; the buffer it would have used is kept for the retry.
func (r *Registry) GetOrCreate(ctx context.Context, streamerID string, opts live.Options) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[streamerID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	r.mu.Lock()
	buf, ok := r.buffers[streamerID]
	if !ok {
		buf = NewBuffer(r.retention)
		r.buffers[streamerID] = buf
	}
	r.mu.Unlock()

	handle, state, err := r.mux.Acquire(ctx, streamerID, opts, buf)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[streamerID]; ok {
		return s, nil
	}
	s = &Session{StreamerID: streamerID, Handle: handle, State: state, Buffer: buf}
	r.sessions[streamerID] = s
	return s, nil
}

// Get returns the session if one exists.
func (r *Registry) Get(streamerID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[streamerID]
	return s, ok
}

// Count reports the number of established streamer sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
