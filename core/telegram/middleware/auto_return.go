package middleware

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/deferred"
	"github.com/m3rciful/menubot/core/telegram/conversation"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
)

// ReturnScheduler re-arms the inactivity timer for a menu message.
type ReturnScheduler interface {
	OnHandled(ctx context.Context, ref conversation.Ref) *deferred.Task
}

// AutoReturnMiddleware re-arms s after next returns, whether or not it
// failed. Updates that do not point at a message are passed through.
func AutoReturnMiddleware(s ReturnScheduler) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			err := next(c)
			if s == nil {
				return err
			}
			if ref, ok := conversation.FromContext(c); ok {
				s.OnHandled(tghelpers.BuildContext(c), ref)
			}
			return err
		}
	}
}
