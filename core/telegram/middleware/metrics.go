package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const (
	counterMessages = "messages"
	counterKB       = "kb"
)

// metricsContext counts outbound messages made through the context.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(opts []any) {
	n, _ := m.Get(counterMessages).(int)
	m.Set(counterMessages, n+1)
	if hasKeyboard(opts) {
		m.Set(counterKB, true)
	}
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.count(opts)
	}
	return err
}

func (m metricsContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.count(opts)
	}
	return err
}

func (m metricsContext) Edit(what any, opts ...any) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		m.count(opts)
	}
	return err
}

// Respond counts callback answers that carry a visible notice.
func (m metricsContext) Respond(resp ...*tele.CallbackResponse) error {
	err := m.Context.Respond(resp...)
	if err == nil && len(resp) > 0 && resp[0] != nil && resp[0].Text != "" {
		m.count(nil)
	}
	return err
}

// MessageMetricsMiddleware wraps the context so handler summaries can
// report how many messages were produced and whether a keyboard was sent.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(counterMessages, 0)
		c.Set(counterKB, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads the message count and keyboard flag.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(counterMessages).(int)
	kb, _ := c.Get(counterKB).(bool)
	return msgs, kb
}
