package ws

import (
	"encoding/json"

	"github.com/livecast/relay/internal/live"
	"github.com/livecast/relay/internal/relay"
)

// Message types beyond the normalized event kinds (whose kind names are
// used as message types directly).
const (
	MsgSubscribe    = "subscribe"
	MsgConnected    = relay.MsgConnected
	MsgDisconnected = relay.MsgDisconnected
	MsgStatistic    = "statistic"
)

// Message is the framing for every push-channel message, both directions.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// inbound defers payload decoding until the type is known.
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload is the client's subscribe request.
type SubscribePayload struct {
	StreamerID string       `json:"streamerId"`
	Options    live.Options `json:"options"`
}

// StatisticPayload is broadcast to every push session on a fixed interval.
type StatisticPayload struct {
	GlobalConnectionCount int     `json:"globalConnectionCount"`
	StreamerCount         int     `json:"streamerCount"`
	CPUPercent            float64 `json:"cpuPercent"`
	MemoryMB              float64 `json:"memoryMb"`
}

// PollEvent is one buffered event in a pull response.
type PollEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// PollResponse is the pull endpoint's body.
type PollResponse struct {
	Events  []PollEvent `json:"events"`
	Message string      `json:"message,omitempty"`
}
