package event

import "time"

// nowMillis is replaced in tests to pin envelope timestamps.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

// Transform projects a raw upstream payload into a normalized envelope.
// It is stateless: identical input differs only by timestamp. Unregistered
// kinds fall through to a tagged pass-through of the whole payload.
func Transform(kind Kind, raw RawPayload) Envelope {
	ts := nowMillis()

	var data any
	switch kind {
	case KindViewerCount:
		data = ViewerCountData{ViewerCount: raw.ViewerCount}
	case KindLike:
		data = LikeData{
			LikeCount:      raw.LikeCount,
			TotalLikeCount: raw.TotalLikeCount,
			User:           projectUser(raw.Sender),
		}
	case KindChat:
		data = ChatData{
			Comment:         raw.Comment,
			ContentLanguage: raw.ContentLanguage,
			User:            projectUser(raw.Sender),
		}
	case KindGift:
		data = GiftData{
			GiftID:         raw.GiftID,
			GiftName:       raw.GiftName,
			GiftType:       raw.GiftType,
			GiftPictureURL: raw.GiftPictureURL,
			DiamondCount:   giftDiamonds(raw),
			User:           projectUser(raw.Sender),
		}
	case KindMember:
		data = MemberData{
			MemberCount: raw.MemberCount,
			User:        projectUser(raw.Sender),
		}
	case KindShare:
		data = ShareData{
			ShareCount: raw.ShareCount,
			User:       projectUser(raw.Sender),
		}
	case KindFollow, KindSubscribe, KindSuperFan:
		data = UserData{User: projectUser(raw.Sender)}
	case KindStreamEnd:
		data = raw
	default:
		data = RawData{Kind: kind, Timestamp: ts, Payload: raw}
	}

	return Envelope{Kind: kind, Timestamp: ts, Data: data}
}

// giftDiamonds computes the diamond value of a gift event. A non-terminal
// streak frame (streak-type gift whose streak has not ended) counts zero so
// a streak is only billed once, on its final frame.
func giftDiamonds(raw RawPayload) int {
	if raw.GiftType == 1 && !raw.RepeatEnd {
		return 0
	}
	if raw.DiamondCount <= 0 {
		return 0
	}
	repeat := raw.RepeatCount
	if repeat < 1 {
		repeat = 1
	}
	return raw.DiamondCount * repeat
}

func projectUser(s Sender) User {
	return User{
		UserID:            s.UserID,
		UniqueID:          s.UniqueID,
		Nickname:          s.Nickname,
		ProfilePictureURL: s.ProfilePictureURL,
	}
}
