package telegram

import (
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/menubot/core/config"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
	"github.com/m3rciful/menubot/core/telegram/middleware"
	tgsender "github.com/m3rciful/menubot/core/telegram/sender"
)

// DefaultMiddlewares builds the shared chain: panic recovery, update
// logging, message counters, then the per-user cooldown. A nil limiter
// disables the cooldown. onLimited defaults to the configured notice.
func DefaultMiddlewares(cfg *coreconfig.Config, limiter middleware.Limiter, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
	if cfg == nil || limiter == nil {
		return mws
	}

	ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		ex[kind] = struct{}{}
	}
	if onLimited == nil {
		notice := cfg.RateLimit.Notice
		onLimited = func(c tele.Context) error { return tghelpers.Notify(c, notice) }
	}
	return append(mws, Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
			Limiter:   limiter,
			Exclude:   ex,
			OnLimited: onLimited,
		}),
	})
}

// DispatcherOptionsFrom maps the sender section onto dispatcher options.
func DispatcherOptionsFrom(cfg *coreconfig.Config) tgsender.Options {
	if cfg == nil {
		return tgsender.Options{}
	}
	s := cfg.Sender
	return tgsender.Options{
		QueueSize:     s.QueueSize,
		Workers:       s.Workers,
		MaxRetries:    s.MaxRetries,
		RetryBackoff:  time.Duration(s.RetryBackoffMS) * time.Millisecond,
		MaxDuration:   time.Duration(s.MaxDurationMS) * time.Millisecond,
		RatePerSecond: s.RatePerSecond,
		Burst:         s.Burst,
	}
}
