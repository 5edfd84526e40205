package relay

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/livecast/relay/internal/event"
	"github.com/livecast/relay/internal/live"
	"github.com/livecast/relay/internal/metrics"
)

// connPhase is the lifecycle of one upstream connection. Each edge produces
// exactly one fan-out notification.
type connPhase int

const (
	phaseConnecting connPhase = iota
	phaseConnected
	phaseDisconnected
)

// upstream is the multiplexer's record for one streamer's connection.
type upstream struct {
	ready chan struct{} // closed once connect resolved

	// Written by the initiating goroutine before ready closes.
	handle live.Handle
	state  live.ConnectState
	err    error

	mu    sync.Mutex
	phase connPhase
}

// transition advances the phase and reports whether the edge was taken.
func (u *upstream) transition(to connPhase) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if to <= u.phase {
		return false
	}
	u.phase = to
	return true
}

// Multiplexer owns the singleton upstream handle per streamer identifier.
// Handles are created lazily on first access and are never torn down,
// regardless of how many subscribers or pollers remain.
type Multiplexer struct {
	source     live.Source
	credential string // server-wide credential, overrides caller options
	fanout     *Fanout
	log        zerolog.Logger

	mu    sync.Mutex
	conns map[string]*upstream
}

func NewMultiplexer(source live.Source, credential string, fanout *Fanout, log zerolog.Logger) *Multiplexer {
	return &Multiplexer{
		source:     source,
		credential: credential,
		fanout:     fanout,
		log:        log,
		conns:      make(map[string]*upstream),
	}
}

// Acquire returns the upstream handle for streamerID, creating and
// connecting it on first access. Events received on the handle are
// transformed, appended to buf, and broadcast to the streamer's subscribers.
//
// A cache hit returns the existing handle unconditionally; opts supplied on
// that call are ignored (first-writer-wins). On a miss, opts are sanitized
// before the driver sees them. Concurrent acquires for one streamer coalesce
// onto a single connect; a failed connect caches nothing, so the next call
// retries from scratch.
func (m *Multiplexer) Acquire(ctx context.Context, streamerID string, opts live.Options, buf *Buffer) (live.Handle, live.ConnectState, error) {
	m.mu.Lock()
	if up, ok := m.conns[streamerID]; ok {
		m.mu.Unlock()
		select {
		case <-up.ready:
		case <-ctx.Done():
			return nil, live.ConnectState{}, ctx.Err()
		}
		if up.err != nil {
			return nil, live.ConnectState{}, up.err
		}
		return up.handle, up.state, nil
	}
	up := &upstream{ready: make(chan struct{})}
	m.conns[streamerID] = up
	m.mu.Unlock()

	clean := opts.Sanitized()
	if m.credential != "" {
		clean.Credential = m.credential
	}

	handle, err := m.source.Create(streamerID, clean)
	var state live.ConnectState
	if err == nil {
		state, err = handle.Connect(ctx)
	}
	if err != nil {
		cerr := &ConnectError{StreamerID: streamerID, Err: err}
		m.mu.Lock()
		up.err = cerr
		delete(m.conns, streamerID)
		m.mu.Unlock()
		close(up.ready)
		metrics.ConnectFailures.Inc()
		m.log.Warn().Str("streamer_id", streamerID).Err(err).Msg("upstream connect failed")
		return nil, live.ConnectState{}, cerr
	}

	up.handle = handle
	up.state = state
	close(up.ready)

	if up.transition(phaseConnected) {
		m.fanout.Broadcast(streamerID, MsgConnected, state)
	}
	metrics.UpstreamConnections.Inc()
	m.log.Info().Str("streamer_id", streamerID).Str("room_id", state.RoomID).Msg("upstream connected")

	go m.pump(streamerID, up, buf)
	return handle, state, nil
}

// Len reports the number of live upstream connections.
func (m *Multiplexer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// pump relays content events until the upstream disconnects. Exactly one
// pump runs per handle, so per-streamer append and broadcast order equals
// upstream delivery order.
func (m *Multiplexer) pump(streamerID string, up *upstream, buf *Buffer) {
	var lastTS int64
	for ev := range up.handle.Events() {
		env := event.Transform(ev.Kind, ev.Payload)
		// Buffer appends require non-decreasing timestamps; clamp
		// against wall-clock regression.
		if env.Timestamp < lastTS {
			env.Timestamp = lastTS
		}
		lastTS = env.Timestamp

		buf.Append(env)
		m.fanout.Broadcast(streamerID, string(env.Kind), env.Data)
		metrics.EventsRelayed.WithLabelValues(string(env.Kind)).Inc()
	}

	if up.transition(phaseDisconnected) {
		reason := "stream ended"
		if err := up.handle.Err(); err != nil {
			reason = err.Error()
		}
		m.fanout.Broadcast(streamerID, MsgDisconnected, DisconnectNotice{Reason: reason})
		metrics.UpstreamConnections.Dec()
		m.log.Info().Str("streamer_id", streamerID).Str("reason", reason).Msg("upstream disconnected")
	}
}
