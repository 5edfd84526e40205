// Package simulated is an in-process live source that emits plausible
// chat/gift/like traffic. It backs `relay serve` when no real upstream
// driver is wired, and doubles as a development fixture.
package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/livecast/relay/internal/event"
	"github.com/livecast/relay/internal/live"
)

var nicknames = []string{
	"NightOwl", "PixelFan", "MossyStone", "TurboSnail", "QuietStorm",
	"LateJoiner", "GiftGoblin", "FirstRow", "EchoEcho", "Wanderer",
}

var gifts = []struct {
	id       int64
	name     string
	diamonds int
	streak   bool
}{
	{5655, "Rose", 1, true},
	{5269, "GG", 1, false},
	{6064, "Perfume", 20, true},
	{5879, "Paper Crane", 99, false},
	{6149, "Galaxy", 1000, false},
}

// Source generates synthetic events for any streamer identifier.
type Source struct {
	// Interval between generated events. Defaults to 800ms.
	Interval time.Duration
}

func New() *Source {
	return &Source{Interval: 800 * time.Millisecond}
}

func (s *Source) Create(streamerID string, opts live.Options) (live.Handle, error) {
	if streamerID == "" {
		return nil, fmt.Errorf("simulated: empty streamer id")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	return &handle{
		streamerID: streamerID,
		interval:   interval,
		events:     make(chan live.ContentEvent, 16),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

type handle struct {
	streamerID string
	interval   time.Duration
	events     chan live.ContentEvent
	rng        *rand.Rand
	viewers    int
	likes      int64
}

func (h *handle) Connect(ctx context.Context) (live.ConnectState, error) {
	select {
	case <-ctx.Done():
		return live.ConnectState{}, ctx.Err()
	default:
	}
	h.viewers = 50 + h.rng.Intn(400)
	state := live.ConnectState{
		StreamerID: h.streamerID,
		RoomID:     fmt.Sprintf("sim-%s-%d", h.streamerID, h.rng.Int31()),
	}
	go h.run()
	return state, nil
}

func (h *handle) Events() <-chan live.ContentEvent { return h.events }

// Err always reports nil: the simulated stream never ends on its own.
func (h *handle) Err() error { return nil }

// run emits events for the process lifetime, matching the relay's model of
// upstream handles that are never torn down.
func (h *handle) run() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for range ticker.C {
		h.events <- h.next()
	}
}

func (h *handle) next() live.ContentEvent {
	sender := h.sender()
	switch h.rng.Intn(10) {
	case 0, 1:
		h.viewers += h.rng.Intn(21) - 10
		if h.viewers < 1 {
			h.viewers = 1
		}
		return live.ContentEvent{
			Kind:    event.KindViewerCount,
			Payload: event.RawPayload{ViewerCount: h.viewers},
		}
	case 2:
		count := 1 + h.rng.Intn(15)
		h.likes += int64(count)
		return live.ContentEvent{
			Kind: event.KindLike,
			Payload: event.RawPayload{
				LikeCount:      count,
				TotalLikeCount: h.likes,
				Sender:         sender,
			},
		}
	case 3:
		g := gifts[h.rng.Intn(len(gifts))]
		giftType := 0
		if g.streak {
			giftType = 1
		}
		return live.ContentEvent{
			Kind: event.KindGift,
			Payload: event.RawPayload{
				GiftID:       g.id,
				GiftName:     g.name,
				GiftType:     giftType,
				DiamondCount: g.diamonds,
				RepeatCount:  1 + h.rng.Intn(5),
				RepeatEnd:    true,
				Sender:       sender,
			},
		}
	case 4:
		return live.ContentEvent{
			Kind:    event.KindMember,
			Payload: event.RawPayload{MemberCount: h.viewers, Sender: sender},
		}
	case 5:
		return live.ContentEvent{
			Kind:    event.KindFollow,
			Payload: event.RawPayload{Sender: sender},
		}
	default:
		comments := []string{
			"hello from the sim", "what game is this?", "W stream",
			"first time here", "greetings from berlin", "lol",
		}
		return live.ContentEvent{
			Kind: event.KindChat,
			Payload: event.RawPayload{
				Comment:         comments[h.rng.Intn(len(comments))],
				ContentLanguage: "en",
				Sender:          sender,
			},
		}
	}
}

func (h *handle) sender() event.Sender {
	nick := nicknames[h.rng.Intn(len(nicknames))]
	return event.Sender{
		UserID:            uuid.NewString(),
		UniqueID:          nick,
		Nickname:          nick,
		ProfilePictureURL: "https://example.invalid/avatar/" + nick + ".png",
	}
}
