package conversation

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Ref identifies where a menu is rendered: a chat and the message being edited.
type Ref struct {
	ChatID    int64
	MessageID int
}

// IsZero reports whether the reference points nowhere.
func (r Ref) IsZero() bool {
	return r.ChatID == 0 && r.MessageID == 0
}

// Key returns a stable key for per-conversation bookkeeping.
func (r Ref) Key() string {
	return strconv.FormatInt(r.ChatID, 10) + ":" + strconv.Itoa(r.MessageID)
}

// Editable converts the reference into a Telebot editable message.
func (r Ref) Editable() tele.Editable {
	return tele.StoredMessage{
		MessageID: strconv.Itoa(r.MessageID),
		ChatID:    r.ChatID,
	}
}

// FromMessage builds a Ref from a sent or received message.
func FromMessage(msg *tele.Message) (Ref, bool) {
	if msg == nil || msg.Chat == nil {
		return Ref{}, false
	}
	return Ref{ChatID: msg.Chat.ID, MessageID: msg.ID}, true
}

// FromContext resolves the menu message an update refers to. Callback
// updates point at the message carrying the pressed button.
func FromContext(c tele.Context) (Ref, bool) {
	if c == nil {
		return Ref{}, false
	}
	if cb := c.Callback(); cb != nil {
		return FromMessage(cb.Message)
	}
	return FromMessage(c.Message())
}
