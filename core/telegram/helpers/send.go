package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/sender"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by Dispatch. A nil
// dispatcher makes Dispatch run calls inline.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Dispatch hands run to the outbound dispatcher. When no dispatcher is
// wired, or its queue is full or closed, run executes on the caller's
// goroutine instead so the call is never lost.
func Dispatch(ctx context.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	err := disp.Enqueue(ctx, action, endpoint, run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// Notify shows a short notice to the user behind c: a callback answer for
// button presses, a plain message otherwise.
func Notify(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text})
	}
	return c.Send(text)
}

// SendHTML sends text with HTML parse mode through the dispatcher.
func SendHTML(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
	return Dispatch(BuildContext(c), "send.text", "sendMessage", func() error {
		return c.Send(text, opts)
	})
}
