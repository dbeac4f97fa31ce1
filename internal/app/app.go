// Package app wires the menu bot: configuration, shared infrastructure,
// handlers and Telegram routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/bootstrap"
	"github.com/m3rciful/menubot/core/buildinfo"
	"github.com/m3rciful/menubot/core/clock"
	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/logger"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/commands"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
	"github.com/m3rciful/menubot/core/telegram/middleware"
	"github.com/m3rciful/menubot/core/telegram/router"
	"github.com/m3rciful/menubot/internal/menu"
)

// Options override infrastructure defaults, mostly for tests.
type Options struct {
	LoggerInit func(*coreconfig.Config) error
	Clock      clock.Clock
}

// App owns everything the bot needs between startup and shutdown.
type App struct {
	cfg *Config

	infra    *bootstrap.Result
	tracker  *menu.Tracker
	renderer *menu.Renderer
	handlers *menu.Handlers
	registry *tg.Registry

	closeOnce sync.Once
	closeErr  error
}

// New builds the app from a normalized configuration.
func New(cfg *Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	tracker, err := menu.NewTracker(cfg.Menu.TrackedChats)
	if err != nil {
		return nil, err
	}
	renderer := menu.NewRenderer(&cfg.Menu, tracker)
	handlers := menu.NewHandlers(renderer, cfg.Telegram.ChannelID)

	infra, err := bootstrap.Run(bootstrap.Options{
		Config:       cfg.CoreConfig(),
		LoggerInit:   opts.LoggerInit,
		Clock:        opts.Clock,
		ReturnAction: handlers.ReturnToMain,
	})
	if err != nil {
		tracker.Close()
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := registerHandlers(reg, handlers); err != nil {
		tracker.Close()
		return nil, errors.Join(fmt.Errorf("app: register handlers: %w", err), infra.Close())
	}

	return &App{
		cfg:      cfg,
		infra:    infra,
		tracker:  tracker,
		renderer: renderer,
		handlers: handlers,
		registry: reg,
	}, nil
}

func registerHandlers(reg *tg.Registry, handlers *menu.Handlers) error {
	if err := handlers.Register(reg); err != nil {
		return err
	}
	return reg.RegisterCommand("/version", commands.Command{
		Handler:     version,
		Description: "Версия бота",
		AdminOnly:   true,
		Hidden:      true,
	})
}

func version(c tele.Context) error {
	return tghelpers.SendHTML(c, "<code>"+html.EscapeString(buildinfo.Summary())+"</code>", nil)
}

// Renderer returns the menu renderer. It is bound to the bot on start.
func (a *App) Renderer() *menu.Renderer {
	return a.renderer
}

// Infra returns the shared limiter and scheduler.
func (a *App) Infra() *bootstrap.Result {
	return a.infra
}

// Middlewares returns the global middleware chain.
func (a *App) Middlewares() []tg.Middleware {
	return tg.DefaultMiddlewares(a.cfg.CoreConfig(), a.infra.Limiter, nil)
}

// Routes returns the command routes and the callback route. Only matched
// button presses re-arm the auto-return timer.
func (a *App) Routes() []tg.Route {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	var wrap []tele.MiddlewareFunc
	if a.infra.AutoReturn != nil {
		wrap = append(wrap, middleware.AutoReturnMiddleware(a.infra.AutoReturn))
	}
	return append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{Wrap: wrap}))
}

// TelegramRunOptions assembles the options for tg.RunTelegram.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:            core,
		Registry:          a.registry,
		DispatcherOptions: tg.DispatcherOptionsFrom(core),
		Middlewares:       a.Middlewares(),
		Routes:            a.Routes(),
		OnStart:           a.onStart,
		OnStop:            a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if rt.Bot != nil {
		a.renderer.Bind(rt.Bot)
	}
	if !a.cfg.Telegram.PostMenuOnStart {
		return nil
	}
	ref, err := a.handlers.PostChannel(ctx)
	if err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Menu, slog.LevelInfo, "menu.posted",
		slog.Int64("chat_id", ref.ChatID),
		slog.Int("message_id", ref.MessageID),
	)
	return nil
}

// onStop cancels pending auto-returns while the dispatcher is still open.
func (a *App) onStop(context.Context, tg.Runtime) error {
	if a.infra.AutoReturn != nil {
		a.infra.AutoReturn.Close()
	}
	return nil
}

// Close releases the limiter, the scheduler and the view tracker. It is
// safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = a.infra.Close()
		a.tracker.Close()
	})
	return a.closeErr
}
