package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/callbacks"
)

// CallbackOptions customises callback routing.
type CallbackOptions struct {
	// NotFound handles keys missing from the registry when the registry
	// has no fallback of its own.
	NotFound tele.HandlerFunc
	// Wrap decorates matched handlers only, innermost last.
	Wrap []tele.MiddlewareFunc
}

// CallbackRoute answers every callback query and routes it through the
// registry by its unique key.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		key, _ := callbacks.Parse(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		// Stops the client-side spinner; a press can be answered only once.
		_ = c.Respond()

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			if fallback == nil {
				fallback = opts.NotFound
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		wrapped := chain(cbHandler, opts.Wrap)
		return handleWithSummary(c, name, start, func() error {
			return wrapped(c)
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}

func chain(h tele.HandlerFunc, mws []tele.MiddlewareFunc) tele.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
