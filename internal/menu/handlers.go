package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/commands"
	"github.com/m3rciful/menubot/core/telegram/conversation"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
)

// ErrNoChannel is returned by PostToChannel when no channel is configured.
var ErrNoChannel = errors.New("menu: telegram.channel_id is not configured")

// Outcome describes what a handler did to the menu message.
type Outcome struct {
	View    View
	Changed bool
}

// Handle is a menu handler that reports its outcome.
type Handle func(c tele.Context) (Outcome, error)

// Adapt turns h into a telebot handler. An edit that left the message as
// it was is logged with the "unchanged" outcome.
func Adapt(name string, h Handle) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.WithHandler(c, name)
		out, err := h(c)
		if err != nil {
			return err
		}
		if !out.Changed {
			c.Set(tghelpers.OutcomeKey, "unchanged")
		}
		logger.LogEvent(ctx, logger.Menu, slog.LevelDebug, "menu.view",
			slog.String("view", out.View.String()),
			slog.Bool("changed", out.Changed),
		)
		return nil
	}
}

// Handlers serves the menu commands and buttons.
type Handlers struct {
	renderer  *Renderer
	channelID int64
}

// NewHandlers returns handlers rendering through r. channelID is the
// target of /post and may be zero.
func NewHandlers(r *Renderer, channelID int64) *Handlers {
	return &Handlers{renderer: r, channelID: channelID}
}

// ShowView edits the pressed menu message into v.
func (h *Handlers) ShowView(v View) Handle {
	return func(c tele.Context) (Outcome, error) {
		changed, err := h.renderer.RenderIn(c, v)
		if err != nil {
			return Outcome{View: v}, fmt.Errorf("menu: show %s: %w", v, err)
		}
		return Outcome{View: v, Changed: changed}, nil
	}
}

// Start posts a fresh menu into the chat the command came from.
func (h *Handlers) Start(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := h.renderer.Post(ctx, chat); err != nil {
		return fmt.Errorf("menu: post to chat %d: %w", chat.ID, err)
	}
	return nil
}

// PostToChannel publishes the menu to the configured channel and confirms
// to the caller.
func (h *Handlers) PostToChannel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	ref, err := h.PostChannel(ctx)
	if err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.Menu, slog.LevelInfo, "menu.posted",
		slog.Int64("chat_id", ref.ChatID),
		slog.Int("message_id", ref.MessageID),
	)
	return c.Send("Меню опубликовано")
}

// PostChannel sends a new menu message to the configured channel.
func (h *Handlers) PostChannel(ctx context.Context) (conversation.Ref, error) {
	if h.channelID == 0 {
		return conversation.Ref{}, ErrNoChannel
	}
	ref, err := h.renderer.Post(ctx, &tele.Chat{ID: h.channelID, Type: tele.ChatChannel})
	if err != nil {
		return conversation.Ref{}, fmt.Errorf("menu: post to channel %d: %w", h.channelID, err)
	}
	return ref, nil
}

// ReturnToMain renders MainMenu into ref. It is the auto-return action and
// goes through the outbound dispatcher.
func (h *Handlers) ReturnToMain(ctx context.Context, ref conversation.Ref) error {
	return tghelpers.Dispatch(ctx, "menu.return", "editMessageMedia", func() error {
		return h.renderer.Render(ctx, MainMenu, ref)
	})
}

// Register adds the menu commands and one callback per view to reg.
func (h *Handlers) Register(reg *tg.Registry) error {
	if err := reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Показать меню",
		Aliases:     []string{"/menu"},
	}); err != nil {
		return err
	}
	if err := reg.RegisterCommand("/post", commands.Command{
		Handler:     h.PostToChannel,
		Description: "Опубликовать меню в канал",
		AdminOnly:   true,
		Hidden:      true,
	}); err != nil {
		return err
	}
	for _, v := range Views {
		if err := reg.RegisterCallback(v.String(), Adapt("menu."+v.String(), h.ShowView(v))); err != nil {
			return err
		}
	}
	return nil
}
