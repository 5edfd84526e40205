// Package event defines the normalized event envelope relayed to consumers
// and the projection from raw upstream payloads into it.
package event

// Kind classifies a live event. The values double as push-channel message
// types, so they are stable wire names.
type Kind string

const (
	KindIntro       Kind = "intro"
	KindMember      Kind = "member"
	KindViewerCount Kind = "viewerCount"
	KindChat        Kind = "chat"
	KindGift        Kind = "gift"
	KindLike        Kind = "like"
	KindFollow      Kind = "follow"
	KindShare       Kind = "share"
	KindEmote       Kind = "emote"
	KindEnvelope    Kind = "envelope"
	KindSubscribe   Kind = "subscribe"
	KindSuperFan    Kind = "superFan"
	KindStreamEnd   Kind = "streamEnd"
)

// Catalogue is the fixed set of content-event kinds an upstream handle emits.
var Catalogue = []Kind{
	KindIntro, KindMember, KindViewerCount, KindChat, KindGift, KindLike,
	KindFollow, KindShare, KindEmote, KindEnvelope, KindSubscribe,
	KindSuperFan, KindStreamEnd,
}

// Envelope is the normalized record stored in a buffer and forwarded to
// subscribers. Timestamp is wall-clock milliseconds, non-decreasing per
// streamer; timestamps across streamers are unordered relative to each other.
type Envelope struct {
	Kind      Kind  `json:"kind"`
	Timestamp int64 `json:"timestamp"`
	Data      any   `json:"data"`
}

// User is the public projection of the sender of an event.
type User struct {
	UserID            string `json:"userId"`
	UniqueID          string `json:"uniqueId"`
	Nickname          string `json:"nickname"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// Sender carries the sender fields of a raw upstream payload. Only the four
// User fields are projected into envelopes; the rest stay internal.
type Sender struct {
	UserID            string `json:"userId,omitempty"`
	UniqueID          string `json:"uniqueId,omitempty"`
	Nickname          string `json:"nickname,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	FollowRole        int    `json:"followRole,omitempty"`
	IsModerator       bool   `json:"isModerator,omitempty"`
	IsSubscriber      bool   `json:"isSubscriber,omitempty"`
}

// RawPayload is the union of fields heterogeneous upstream payloads carry.
// Kinds without a dedicated projection pass the whole payload through.
type RawPayload struct {
	ViewerCount     int    `json:"viewerCount,omitempty"`
	MemberCount     int    `json:"memberCount,omitempty"`
	LikeCount       int    `json:"likeCount,omitempty"`
	TotalLikeCount  int64  `json:"totalLikeCount,omitempty"`
	ShareCount      int    `json:"shareCount,omitempty"`
	Comment         string `json:"comment,omitempty"`
	ContentLanguage string `json:"contentLanguage,omitempty"`

	GiftID         int64  `json:"giftId,omitempty"`
	GiftName       string `json:"giftName,omitempty"`
	GiftType       int    `json:"giftType,omitempty"`
	GiftPictureURL string `json:"giftPictureUrl,omitempty"`
	DiamondCount   int    `json:"diamondCount,omitempty"`
	RepeatCount    int    `json:"repeatCount,omitempty"`
	RepeatEnd      bool   `json:"repeatEnd,omitempty"`

	Action string `json:"action,omitempty"`
	Sender Sender `json:"sender"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Per-kind envelope data.

type ViewerCountData struct {
	ViewerCount int `json:"viewerCount"`
}

type LikeData struct {
	LikeCount      int   `json:"likeCount"`
	TotalLikeCount int64 `json:"totalLikeCount"`
	User           User  `json:"user"`
}

type ChatData struct {
	Comment         string `json:"comment"`
	ContentLanguage string `json:"contentLanguage,omitempty"`
	User            User   `json:"user"`
}

type GiftData struct {
	GiftID         int64  `json:"giftId"`
	GiftName       string `json:"giftName"`
	GiftType       int    `json:"giftType"`
	GiftPictureURL string `json:"giftPictureUrl,omitempty"`
	DiamondCount   int    `json:"diamondCount"`
	User           User   `json:"user"`
}

// MemberData reports the room's total viewer count at join time, not a delta.
type MemberData struct {
	MemberCount int  `json:"memberCount"`
	User        User `json:"user"`
}

type ShareData struct {
	ShareCount int  `json:"shareCount"`
	User       User `json:"user"`
}

// UserData is the envelope data for kinds whose payload carries no other
// public field (follow, subscribe, superFan).
type UserData struct {
	User User `json:"user"`
}

// RawData tags an unregistered kind's payload with its kind and timestamp.
type RawData struct {
	Kind      Kind       `json:"kind"`
	Timestamp int64      `json:"timestamp"`
	Payload   RawPayload `json:"payload"`
}
