// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Context records outbound calls instead of talking to Telegram. Methods
// it does not override panic through the nil embedded interface.
type Context struct {
	tele.Context

	U tele.Update

	// SendErr and EditErr are returned by Send and Edit when set.
	SendErr error
	EditErr error

	mu        sync.Mutex
	store     map[string]any
	sent      []any
	edits     []any
	responses []*tele.CallbackResponse
}

// NewCallback builds a context for a button press by userID on the menu
// message msgID in chatID.
func NewCallback(updateID int, userID, chatID int64, msgID int, unique string) *Context {
	return &Context{U: tele.Update{
		ID: updateID,
		Callback: &tele.Callback{
			ID:     "cb",
			Sender: &tele.User{ID: userID},
			Unique: unique,
			Data:   "\f" + unique,
			Message: &tele.Message{
				ID:   msgID,
				Chat: &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
			},
		},
	}}
}

// NewMessage builds a context for a text message.
func NewMessage(updateID int, userID, chatID int64, text string) *Context {
	return &Context{U: tele.Update{
		ID: updateID,
		Message: &tele.Message{
			ID:     updateID,
			Text:   text,
			Sender: &tele.User{ID: userID},
			Chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
		},
	}}
}

func (c *Context) Update() tele.Update { return c.U }

func (c *Context) Message() *tele.Message {
	if c.U.Callback != nil {
		return c.U.Callback.Message
	}
	return c.U.Message
}

func (c *Context) Callback() *tele.Callback { return c.U.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.U.Callback != nil:
		return c.U.Callback.Sender
	case c.U.Message != nil:
		return c.U.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if m := c.Message(); m != nil {
		return m.Text
	}
	return ""
}

func (c *Context) Args() []string {
	if c.U.Message == nil {
		return nil
	}
	fields := strings.Fields(c.U.Message.Text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

func (c *Context) Send(what any, _ ...any) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, what)
	return nil
}

func (c *Context) Edit(what any, _ ...any) error {
	if c.EditErr != nil {
		return c.EditErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits = append(c.edits, what)
	return nil
}

func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.responses = append(c.responses, resp...)
	return nil
}

// Sent returns what was passed to Send.
func (c *Context) Sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.sent...)
}

// Edits returns what was passed to Edit.
func (c *Context) Edits() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.edits...)
}

// Responses returns every callback answer.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}
