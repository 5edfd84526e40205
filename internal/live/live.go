// Package live defines the contract between the relay and an upstream
// live-content source. The actual wire protocol lives in a driver; the relay
// only sees handles that emit a fixed catalogue of content events.
package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/livecast/relay/internal/event"
)

// Source creates upstream handles for streamer identifiers. Implementations
// wrap a concrete live-protocol client (or a simulation of one).
//
// Create must not connect; it only constructs the handle. The options it
// receives have already been sanitized by the multiplexer.
type Source interface {
	Create(streamerID string, opts Options) (Handle, error)
}

// Handle is a single upstream connection, exclusively owned by the
// multiplexer. It connects at most once and is never reconnected: a new
// handle is created instead.
type Handle interface {
	// Connect establishes the upstream session. It blocks the calling
	// request until the connection is live or has failed; any connect-time
	// limits are the driver's responsibility.
	Connect(ctx context.Context) (ConnectState, error)

	// Events returns the stream of content events in upstream delivery
	// order. The channel is closed when the upstream disconnects, which
	// happens at most once per handle.
	Events() <-chan ContentEvent

	// Err reports the disconnect reason once Events is closed. Nil means
	// the stream ended cleanly.
	Err() error
}

// ContentEvent is one raw upstream event plus its kind tag.
type ContentEvent struct {
	Kind    event.Kind
	Payload event.RawPayload
}

// ConnectState describes an established upstream connection. It is the
// payload of the push channel's connected message.
type ConnectState struct {
	StreamerID string `json:"streamerId"`
	RoomID     string `json:"roomId,omitempty"`
}

// Options tune the upstream connection. Callers of the relay may supply
// them on subscribe/poll; transport override fields are stripped before a
// driver ever sees them.
type Options struct {
	// Credential is a session credential for the upstream service. A
	// server-wide credential, when configured, takes precedence over
	// anything supplied by a caller.
	Credential string `json:"credential,omitempty" yaml:"credential"`

	// PreferredLanguage hints the upstream at a content language.
	PreferredLanguage string `json:"preferredLanguage,omitempty" yaml:"preferred_language"`

	// ExtendedGiftInfo requests full gift metadata where supported.
	ExtendedGiftInfo bool `json:"extendedGiftInfo,omitempty" yaml:"extended_gift_info"`

	// RequestHeaders and WebSocketHeaders let embedding code redirect the
	// driver's transport. They are a security boundary: the multiplexer
	// strips both from caller-supplied options.
	RequestHeaders   map[string]string `json:"requestHeaders,omitempty" yaml:"-"`
	WebSocketHeaders map[string]string `json:"webSocketHeaders,omitempty" yaml:"-"`
}

// Sanitized returns a copy with the transport override fields stripped.
func (o Options) Sanitized() Options {
	o.RequestHeaders = nil
	o.WebSocketHeaders = nil
	return o
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Source)
)

// Register makes a source available under a driver name. It panics on a
// duplicate name, mirroring database/sql.
func Register(name string, src Source) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[name]; dup {
		panic("live: Register called twice for driver " + name)
	}
	drivers[name] = src
}

// Open returns the source registered under name.
func Open(name string) (Source, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	src, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("live: unknown driver %q", name)
	}
	return src, nil
}
