package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

// wrapped hides the inner error text; tele.FloodError cannot format itself
// without an API payload.
type wrapped struct{ err error }

func (w wrapped) Error() string { return "send failed" }
func (w wrapped) Unwrap() error { return w.err }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"timeout", timeoutErr{}, true},
		{"url timeout", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, true},
		{"url wrapping dial", &url.Error{Op: "Post", Err: &net.OpError{Op: "dial", Err: errors.New("x")}}, true},
		{"flood", wrapped{tele.FloodError{RetryAfter: 3}}, true},
		{"cancelled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldRetry(tc.err); got != tc.want {
				t.Fatalf("ShouldRetry = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRetryAfter(t *testing.T) {
	d, ok := RetryAfter(wrapped{tele.FloodError{RetryAfter: 7}})
	if !ok || d != 7*time.Second {
		t.Fatalf("RetryAfter = %v %v", d, ok)
	}
	if _, ok := RetryAfter(errors.New("other")); ok {
		t.Fatal("plain error has no retry-after")
	}
}

func TestEditErrorClassification(t *testing.T) {
	notModified := errors.New("telegram: Bad Request: message is not modified: specified new message content and reply markup are exactly the same (400)")
	if !IsNotModified(notModified) || IsNotModified(nil) {
		t.Fatal("IsNotModified mismatch")
	}
	if !IsMessageGone(errors.New("telegram: Bad Request: message to edit not found (400)")) {
		t.Fatal("IsMessageGone mismatch")
	}
	if IsMessageGone(notModified) {
		t.Fatal("not-modified is not gone")
	}
}
