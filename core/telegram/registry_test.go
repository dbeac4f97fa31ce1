package telegram

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegisterCommand(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Menu", Aliases: []string{"menu"}}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCommand("/post", commands.Command{Handler: noop, Description: "Post", AdminOnly: true, Hidden: true}); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "x"}); !errors.Is(err, commands.ErrNoSlash) {
		t.Fatalf("no slash: %v", err)
	}
	if err := reg.RegisterCommand("/empty", commands.Command{Description: "x"}); !errors.Is(err, commands.ErrNoHandler) {
		t.Fatalf("no handler: %v", err)
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate: %v", err)
	}
	if err := reg.RegisterCommand("/menu", commands.Command{Handler: noop, Description: "clash"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("alias clash: %v", err)
	}

	if len(reg.Commands()) != 2 {
		t.Fatalf("commands = %d", len(reg.Commands()))
	}
	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "/start" || visible[0].Description != "Menu" {
		t.Fatalf("visible = %+v", visible)
	}
	for _, name := range []string{"menu", "/menu", "start"} {
		if key, _, ok := reg.LookupCommand(name); !ok || key != "/start" {
			t.Fatalf("lookup %q = %q %v", name, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("/help"); ok {
		t.Fatal("unknown command resolved")
	}
}

func TestRegisterCallback(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("about", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("about", noop); err == nil {
		t.Fatal("duplicate must fail")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("empty key must fail")
	}
	if _, ok := reg.GetCallback("about"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "about" {
		t.Fatalf("callbacks = %v", got)
	}
}
