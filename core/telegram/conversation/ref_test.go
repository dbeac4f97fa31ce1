package conversation

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestRefKeyAndEditable(t *testing.T) {
	r := Ref{ChatID: -100123, MessageID: 77}
	if r.Key() != "-100123:77" {
		t.Fatalf("key = %q", r.Key())
	}
	msgID, chatID := r.Editable().MessageSig()
	if msgID != "77" || chatID != -100123 {
		t.Fatalf("editable = %s/%d", msgID, chatID)
	}
	if r.IsZero() || !(Ref{}).IsZero() {
		t.Fatal("IsZero mismatch")
	}
}

func TestFromMessage(t *testing.T) {
	if _, ok := FromMessage(nil); ok {
		t.Fatal("nil message must not resolve")
	}
	if _, ok := FromMessage(&tele.Message{ID: 1}); ok {
		t.Fatal("message without chat must not resolve")
	}
	r, ok := FromMessage(&tele.Message{ID: 5, Chat: &tele.Chat{ID: 9}})
	if !ok || r != (Ref{ChatID: 9, MessageID: 5}) {
		t.Fatalf("ref = %+v ok=%v", r, ok)
	}
}
