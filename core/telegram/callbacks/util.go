package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits callback data in Telebot's "\f<unique>|<payload>" encoding.
// Data without the leading form feed is treated as a bare key.
func Parse(cb *tele.Callback) (unique, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// Key returns the callback's unique key, or "" for non-callback updates.
func Key(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}
