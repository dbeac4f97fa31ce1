package menu

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/conversation"
	"github.com/m3rciful/menubot/core/telegram/keyboard"
	"github.com/m3rciful/menubot/core/telegram/netutil"
)

// ErrNotBound is returned by Render and Post before Bind.
var ErrNotBound = errors.New("menu: renderer is not bound to a bot")

// Editor is the part of *tele.Bot the renderer needs.
type Editor interface {
	Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error)
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
}

// Renderer swaps the menu photo and caption in a single API call.
type Renderer struct {
	content *Config
	markup  *tele.ReplyMarkup
	tracker *Tracker

	mu     sync.RWMutex
	editor Editor
	// fileIDs caches uploaded photos so each image is sent from disk once.
	fileIDs map[View]string
}

// NewRenderer builds a renderer for normalized content.
func NewRenderer(content *Config, tracker *Tracker) *Renderer {
	return &Renderer{
		content: content,
		markup:  Keyboard(content),
		tracker: tracker,
		fileIDs: make(map[View]string, len(Views)),
	}
}

// Keyboard builds the menu keyboard: both screen buttons on the first row,
// then one link per row.
func Keyboard(content *Config) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{{
		{Text: content.Buttons.About, Unique: About.String()},
		{Text: content.Buttons.Services, Unique: Services.String()},
	}}
	for _, l := range content.Links {
		rows = append(rows, []keyboard.InlineBtn{{Text: l.Text, URL: l.URL}})
	}
	return keyboard.InlineButtonsRows(rows...)
}

// Bind sets the bot used by Render and Post.
func (r *Renderer) Bind(e Editor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editor = e
}

// Tracker returns the view tracker.
func (r *Renderer) Tracker() *Tracker {
	return r.tracker
}

// Render shows view in the menu message at ref. An edit that changes
// nothing counts as success.
func (r *Renderer) Render(ctx context.Context, view View, ref conversation.Ref) error {
	r.mu.RLock()
	editor := r.editor
	r.mu.RUnlock()
	if editor == nil {
		return ErrNotBound
	}
	photo, opts, err := r.media(view)
	if err != nil {
		return err
	}
	msg, err := editor.Edit(ref.Editable(), photo, opts)
	if err != nil && !netutil.IsNotModified(err) {
		return err
	}
	r.remember(view, msg)
	r.rendered(ctx, view, ref.ChatID, err == nil)
	return nil
}

// RenderIn shows view in the message that carries the pressed button.
// It reports whether the message actually changed.
func (r *Renderer) RenderIn(c tele.Context, view View) (bool, error) {
	photo, opts, err := r.media(view)
	if err != nil {
		return false, err
	}
	err = c.Edit(photo, opts)
	if err != nil && !netutil.IsNotModified(err) {
		return false, err
	}
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	r.rendered(context.Background(), view, chatID, err == nil)
	return err == nil, nil
}

// Post sends a new MainMenu message to chat.
func (r *Renderer) Post(ctx context.Context, chat tele.Recipient) (conversation.Ref, error) {
	r.mu.RLock()
	editor := r.editor
	r.mu.RUnlock()
	if editor == nil {
		return conversation.Ref{}, ErrNotBound
	}
	photo, opts, err := r.media(MainMenu)
	if err != nil {
		return conversation.Ref{}, err
	}
	msg, err := editor.Send(chat, photo, opts)
	if err != nil {
		return conversation.Ref{}, err
	}
	r.remember(MainMenu, msg)
	ref, _ := conversation.FromMessage(msg)
	r.rendered(ctx, MainMenu, ref.ChatID, true)
	return ref, nil
}

func (r *Renderer) media(view View) (*tele.Photo, *tele.SendOptions, error) {
	screen, err := r.content.Screen(view)
	if err != nil {
		return nil, nil, err
	}
	file := tele.FromDisk(screen.Image)
	r.mu.RLock()
	if id := r.fileIDs[view]; id != "" {
		file = tele.File{FileID: id}
	}
	r.mu.RUnlock()
	photo := &tele.Photo{File: file, Caption: screen.Caption}
	return photo, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: r.markup}, nil
}

func (r *Renderer) remember(view View, msg *tele.Message) {
	if msg == nil || msg.Photo == nil || msg.Photo.FileID == "" {
		return
	}
	r.mu.Lock()
	r.fileIDs[view] = msg.Photo.FileID
	r.mu.Unlock()
}

func (r *Renderer) rendered(ctx context.Context, view View, chatID int64, changed bool) {
	if chatID != 0 && r.tracker != nil {
		r.tracker.Set(chatID, view)
	}
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.Menu, slog.LevelDebug, "menu.rendered",
			slog.String("view", view.String()),
			slog.Int64("chat_id", chatID),
			slog.Bool("changed", changed),
		)
	}
}
