package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes returns a route per registered command and alias, with
// admin-only commands guarded.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		h := def.Handler
		if def.AdminOnly {
			h = admin(h)
		}
		handlerName := "command." + normalizeHandlerName(name)
		summarized := func(c tele.Context) error {
			return handleWithSummary(c, handlerName, time.Now(), func() error { return h(c) })
		}
		for _, ep := range def.Endpoints(name) {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: summarized})
		}
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
