package menu

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/conversation"
	tghelpers "github.com/m3rciful/menubot/core/telegram/helpers"
	"github.com/m3rciful/menubot/core/telegram/teletest"
)

type editCall struct {
	msgID  string
	chatID int64
	photo  *tele.Photo
	opts   *tele.SendOptions
}

// fakeBot stands in for *tele.Bot.
type fakeBot struct {
	mu      sync.Mutex
	edits   []editCall
	sends   []editCall
	editErr error
	nextID  int
}

func (b *fakeBot) Edit(msg tele.Editable, what any, opts ...any) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editErr != nil {
		return nil, b.editErr
	}
	msgID, chatID := msg.MessageSig()
	call := record(msgID, chatID, what, opts)
	b.edits = append(b.edits, call)
	id, _ := strconv.Atoi(msgID)
	return reply(id, chatID, call.photo), nil
}

func (b *fakeBot) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chatID, _ := strconv.ParseInt(to.Recipient(), 10, 64)
	b.nextID++
	call := record(strconv.Itoa(b.nextID), chatID, what, opts)
	b.sends = append(b.sends, call)
	return reply(b.nextID, chatID, call.photo), nil
}

func record(msgID string, chatID int64, what any, opts []any) editCall {
	call := editCall{msgID: msgID, chatID: chatID}
	call.photo, _ = what.(*tele.Photo)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			call.opts = so
		}
	}
	return call
}

func reply(id int, chatID int64, p *tele.Photo) *tele.Message {
	msg := &tele.Message{ID: id, Chat: &tele.Chat{ID: chatID}}
	if p != nil {
		msg.Photo = &tele.Photo{File: tele.File{FileID: "fid-" + filepath.Base(p.FileLocal)}}
	}
	return msg
}

func testContent(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		MediaDir: "media",
		Main:     Screen{Image: "Menu.png"},
		About:    Screen{Image: "Me.png", Caption: "<b>about</b>"},
		Services: Screen{Image: "Service.png", Caption: "<b>services</b>"},
		Links: []Link{
			{Text: "blog", URL: "https://t.me/example_live"},
			{Text: "dm", URL: "https://t.me/example_dev"},
		},
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return cfg
}

func newTestRenderer(t *testing.T) (*Renderer, *fakeBot) {
	t.Helper()
	tracker, err := NewTracker(16)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(tracker.Close)
	r := NewRenderer(testContent(t), tracker)
	bot := &fakeBot{}
	r.Bind(bot)
	return r, bot
}

func TestParseView(t *testing.T) {
	for _, v := range Views {
		got, err := ParseView(v.String())
		if err != nil || got != v {
			t.Fatalf("ParseView(%q) = %v, %v", v, got, err)
		}
	}
	if _, err := ParseView("contacts"); !errors.Is(err, ErrUnknownView) {
		t.Fatalf("err = %v", err)
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := testContent(t)
	if cfg.Main.Caption != defaultMainCaption {
		t.Fatalf("main caption = %q", cfg.Main.Caption)
	}
	if cfg.Buttons.About != defaultAboutButton || cfg.Buttons.Services != defaultServicesButton {
		t.Fatalf("buttons = %+v", cfg.Buttons)
	}
	if cfg.About.Image != filepath.Join("media", "Me.png") {
		t.Fatalf("about image = %q", cfg.About.Image)
	}
	if cfg.TrackedChats != defaultTrackedChats {
		t.Fatalf("tracked = %d", cfg.TrackedChats)
	}

	missing := &Config{Main: Screen{Image: "a.png"}, About: Screen{Image: "b.png"}}
	if err := missing.Normalize(); err == nil || !strings.Contains(err.Error(), "services.image") {
		t.Fatalf("err = %v", err)
	}

	badLink := &Config{
		Main: Screen{Image: "a"}, About: Screen{Image: "b"}, Services: Screen{Image: "c"},
		Links: []Link{{Text: "x", URL: "javascript:alert(1)"}},
	}
	if err := badLink.Normalize(); err == nil {
		t.Fatal("expected link validation error")
	}
}

func TestKeyboardLayout(t *testing.T) {
	kb := Keyboard(testContent(t))
	rows := kb.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if len(rows[0]) != 2 || rows[0][0].Unique != "about" || rows[0][1].Unique != "services" {
		t.Fatalf("first row = %+v", rows[0])
	}
	if rows[1][0].URL != "https://t.me/example_live" || rows[2][0].Text != "dm" {
		t.Fatalf("link rows = %+v %+v", rows[1], rows[2])
	}
}

func TestRenderRequiresBind(t *testing.T) {
	r := NewRenderer(testContent(t), nil)
	err := r.Render(context.Background(), MainMenu, conversation.Ref{ChatID: 1, MessageID: 2})
	if !errors.Is(err, ErrNotBound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := r.Post(context.Background(), &tele.Chat{ID: 1}); !errors.Is(err, ErrNotBound) {
		t.Fatalf("post err = %v", err)
	}
}

func TestRenderEditsMediaAndCachesFileID(t *testing.T) {
	r, bot := newTestRenderer(t)
	ref := conversation.Ref{ChatID: 5, MessageID: 42}
	ctx := context.Background()

	if err := r.Render(ctx, About, ref); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(ctx, About, ref); err != nil {
		t.Fatal(err)
	}
	if len(bot.edits) != 2 {
		t.Fatalf("edits = %d", len(bot.edits))
	}
	first, second := bot.edits[0], bot.edits[1]
	if first.msgID != "42" || first.chatID != 5 {
		t.Fatalf("edited %s/%d", first.msgID, first.chatID)
	}
	if first.photo.Caption != "<b>about</b>" || first.photo.FileLocal != filepath.Join("media", "Me.png") {
		t.Fatalf("photo = %+v", first.photo)
	}
	if first.opts == nil || first.opts.ParseMode != tele.ModeHTML || first.opts.ReplyMarkup == nil {
		t.Fatalf("opts = %+v", first.opts)
	}
	if second.photo.FileID != "fid-Me.png" || second.photo.FileLocal != "" {
		t.Fatalf("second upload not served from cache: %+v", second.photo.File)
	}
	if got := r.Tracker().Current(5); got != About {
		t.Fatalf("tracked view = %v", got)
	}
}

func TestRenderTreatsNotModifiedAsSuccess(t *testing.T) {
	r, bot := newTestRenderer(t)
	bot.editErr = errors.New("telegram: Bad Request: message is not modified (400)")
	if err := r.Render(context.Background(), MainMenu, conversation.Ref{ChatID: 3, MessageID: 1}); err != nil {
		t.Fatalf("err = %v", err)
	}

	bot.editErr = errors.New("telegram: Bad Request: message to edit not found (400)")
	if err := r.Render(context.Background(), MainMenu, conversation.Ref{ChatID: 3, MessageID: 1}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTrackerDefaultsToMainMenu(t *testing.T) {
	tr, err := NewTracker(0)
	if err != nil {
		t.Fatal(err)
	}
	defer tr.Close()
	if tr.Current(99) != MainMenu {
		t.Fatal("unknown chat must read as MainMenu")
	}
	tr.Set(99, Services)
	if tr.Current(99) != Services {
		t.Fatal("view not recorded")
	}
}

func TestShowViewEditsPressedMessage(t *testing.T) {
	r, _ := newTestRenderer(t)
	h := NewHandlers(r, 0)
	handler := Adapt("menu.services", h.ShowView(Services))

	c := teletest.NewCallback(1, 7, 9, 100, "services")
	if err := handler(c); err != nil {
		t.Fatal(err)
	}
	edits := c.Edits()
	if len(edits) != 1 {
		t.Fatalf("edits = %d", len(edits))
	}
	if p, ok := edits[0].(*tele.Photo); !ok || p.Caption != "<b>services</b>" {
		t.Fatalf("edit = %#v", edits[0])
	}
	if c.Get(tghelpers.OutcomeKey) != nil {
		t.Fatal("changed edit must keep the default outcome")
	}
	if r.Tracker().Current(9) != Services {
		t.Fatal("tracker not updated")
	}

	same := teletest.NewCallback(2, 7, 9, 100, "services")
	same.EditErr = errors.New("message is not modified")
	if err := handler(same); err != nil {
		t.Fatal(err)
	}
	if same.Get(tghelpers.OutcomeKey) != "unchanged" {
		t.Fatalf("outcome = %v", same.Get(tghelpers.OutcomeKey))
	}

	failing := teletest.NewCallback(3, 7, 9, 100, "services")
	failing.EditErr = errors.New("message can't be edited")
	if err := handler(failing); err == nil {
		t.Fatal("expected error")
	}
}

func TestStartPostsMainMenu(t *testing.T) {
	r, bot := newTestRenderer(t)
	h := NewHandlers(r, 0)
	if err := h.Start(teletest.NewMessage(1, 7, 7, "/start")); err != nil {
		t.Fatal(err)
	}
	if len(bot.sends) != 1 || bot.sends[0].chatID != 7 {
		t.Fatalf("sends = %+v", bot.sends)
	}
	if p := bot.sends[0].photo; p.Caption != defaultMainCaption {
		t.Fatalf("caption = %q", p.Caption)
	}
}

func TestPostToChannel(t *testing.T) {
	r, bot := newTestRenderer(t)
	if _, err := NewHandlers(r, 0).PostChannel(context.Background()); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("err = %v", err)
	}

	h := NewHandlers(r, -1001)
	c := teletest.NewMessage(1, 7, 7, "/post")
	if err := h.PostToChannel(c); err != nil {
		t.Fatal(err)
	}
	if len(bot.sends) != 1 || bot.sends[0].chatID != -1001 {
		t.Fatalf("sends = %+v", bot.sends)
	}
	if len(c.Sent()) != 1 {
		t.Fatal("caller was not told about the post")
	}
}

func TestReturnToMainRendersInline(t *testing.T) {
	r, bot := newTestRenderer(t)
	h := NewHandlers(r, 0)
	ref := conversation.Ref{ChatID: 9, MessageID: 100}
	if err := h.ReturnToMain(context.Background(), ref); err != nil {
		t.Fatal(err)
	}
	if len(bot.edits) != 1 || bot.edits[0].photo.FileLocal != filepath.Join("media", "Menu.png") {
		t.Fatalf("edits = %+v", bot.edits)
	}
	if r.Tracker().Current(9) != MainMenu {
		t.Fatal("tracker not reset")
	}
}

func TestRegister(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := tg.NewRegistry()
	if err := NewHandlers(r, 0).Register(reg); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(reg.ListCallbacks(), ",")
	if got != "about,main,services" {
		t.Fatalf("callbacks = %s", got)
	}
	if _, cmd, ok := reg.LookupCommand("/post"); !ok || !cmd.AdminOnly || !cmd.Hidden {
		t.Fatalf("post = %+v ok=%v", cmd, ok)
	}
	if key, _, ok := reg.LookupCommand("menu"); !ok || key != "/start" {
		t.Fatalf("alias resolved to %q ok=%v", key, ok)
	}
	if visible := reg.ListCommands(true); len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible = %+v", visible)
	}
	if err := NewHandlers(r, 0).Register(reg); err == nil {
		t.Fatal("duplicate registration must fail")
	}
}
