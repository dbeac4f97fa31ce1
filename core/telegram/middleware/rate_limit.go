package middleware

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/logger"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
)

// Limiter decides whether a user may interact right now.
type Limiter interface {
	Admit(userID int64) bool
	Remaining(userID int64) time.Duration
}

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Limiter Limiter
	// Exclude lists update kinds that bypass the limiter.
	Exclude map[string]struct{}
	// OnLimited runs instead of the handler for rejected updates.
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware drops updates from users still in their cooldown.
// Rejected updates never reach next and do not extend the cooldown.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Limiter == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c.Update())]; skip {
				return next(c)
			}
			if opts.Limiter.Admit(user.ID) {
				return next(c)
			}

			logger.LogEvent(tghelpers.BuildContext(c), logger.Throttle, slog.LevelWarn, "tg.rate_limit",
				slog.String("outcome", "rate_limited"),
				slog.Duration("remaining", opts.Limiter.Remaining(user.ID)),
			)
			if opts.OnLimited != nil {
				if err := opts.OnLimited(c); err != nil {
					logger.LogEvent(tghelpers.BuildContext(c), logger.Throttle, slog.LevelDebug, "tg.rate_limit.notice_failed",
						slog.String("err", err.Error()),
					)
				}
			}
			return nil
		}
	}
}

// UpdateKind names an update for exclusion lists.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	case upd.Query != nil:
		return coreconfig.UpdateInlineQuery
	}
	return "other"
}
