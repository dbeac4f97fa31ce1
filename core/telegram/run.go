package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/logger"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
	tgsender "github.com/m3rciful/menubot/core/telegram/sender"
)

// Middleware is a global bot middleware registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to an endpoint accepted by tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	DisableWebhookCleanup   bool
	DisableHelperDispatcher bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot        *tele.Bot
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
}

// RunTelegram composes and runs the bot until ctx is done.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	poller := BuildPoller(PollerOptionsFrom(cfg))
	buildStart := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:     cfg.Telegram.Token,
		Poller:    poller,
		Client:    BuildHTTPClient(HTTPOptions{Timeout: pollClientTimeout(cfg)}),
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			ctx := context.Background()
			if c != nil {
				ctx = tghelpers.BuildContext(c)
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.handler_error",
				slog.String("err", logger.SanitizeLimit(err.Error(), 512)),
			)
		},
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, poller, cfg, time.Since(buildStart))

	if _, isWebhook := poller.(*tele.Webhook); !isWebhook && !opts.DisableWebhookCleanup {
		drop := cfg.Telegram.DropPending()
		if err := bot.RemoveWebhook(drop); err != nil {
			// url.Error embeds the request URL, which carries the token.
			var uerr *url.Error
			if errors.As(err, &uerr) {
				err = uerr.Err
			}
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		} else {
			logger.TG.Info("webhook deleted",
				slog.String("event", "delete_webhook"),
				slog.Bool("drop_pending", drop),
			)
		}
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	useHelperDispatcher := !opts.DisableHelperDispatcher
	if useHelperDispatcher {
		tghelpers.SetDispatcher(dispatcher)
	}
	teardown := func() {
		if useHelperDispatcher {
			tghelpers.SetDispatcher(nil)
		}
		dispatcher.Close()
	}

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	SetupCommands(bot, reg)

	rt := Runtime{Bot: bot, Dispatcher: dispatcher, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			teardown()
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		runErr = ctx.Err()
	case <-runDone:
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	teardown()

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// pollClientTimeout keeps the HTTP timeout above the long-poll timeout.
func pollClientTimeout(cfg *coreconfig.Config) time.Duration {
	poll := defaultLongPollTimeout
	if s := cfg.Telegram.LongPollTimeoutSeconds; s > 0 {
		poll = time.Duration(s) * time.Second
	}
	return poll + 20*time.Second
}

func logMode(ctx context.Context, poller tele.Poller, cfg *coreconfig.Config, took time.Duration) {
	switch p := poller.(type) {
	case *tele.Webhook:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", took),
		)
	case *tele.LongPoller:
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "mode",
			slog.String("mode", cfg.Telegram.RunMode),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", took),
		)
	}
}
