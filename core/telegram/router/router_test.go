package router

import (
	"context"
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/menubot/core/deferred"
	tg "github.com/m3rciful/menubot/core/telegram"
	"github.com/m3rciful/menubot/core/telegram/commands"
	"github.com/m3rciful/menubot/core/telegram/conversation"
	"github.com/m3rciful/menubot/core/telegram/middleware"
	"github.com/m3rciful/menubot/core/telegram/teletest"
)

type armCounter struct{ n int }

func (a *armCounter) OnHandled(context.Context, conversation.Ref) *deferred.Task {
	a.n++
	return nil
}

func TestCallbackRouteDispatchesAndWraps(t *testing.T) {
	reg := tg.NewRegistry()
	var handled []string
	_ = reg.RegisterCallback("about", func(c tele.Context) error {
		handled = append(handled, "about")
		return nil
	})
	arms := &armCounter{}
	route := CallbackRoute(reg, CallbackOptions{Wrap: []tele.MiddlewareFunc{middleware.AutoReturnMiddleware(arms)}})
	if route.Endpoint != tele.OnCallback {
		t.Fatalf("endpoint = %v", route.Endpoint)
	}

	c := teletest.NewCallback(1, 7, 9, 100, "about")
	if err := route.Handler(c); err != nil {
		t.Fatal(err)
	}
	if len(handled) != 1 || arms.n != 1 {
		t.Fatalf("handled = %v arms = %d", handled, arms.n)
	}
	if len(c.Responses()) != 1 {
		t.Fatalf("callback must be answered once, got %d", len(c.Responses()))
	}

	unknown := teletest.NewCallback(2, 7, 9, 100, "missing")
	if err := route.Handler(unknown); err != nil {
		t.Fatal(err)
	}
	if arms.n != 1 {
		t.Fatal("unmatched callbacks must not re-arm")
	}
	if len(unknown.Responses()) != 1 {
		t.Fatal("unmatched callback must still be answered")
	}
}

func TestCallbackRoutePropagatesErrors(t *testing.T) {
	reg := tg.NewRegistry()
	boom := errors.New("boom")
	_ = reg.RegisterCallback("services", func(tele.Context) error { return boom })
	route := CallbackRoute(reg, CallbackOptions{})
	if err := route.Handler(teletest.NewCallback(1, 7, 9, 100, "services")); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestCommandRoutesGuardAdmin(t *testing.T) {
	reg := tg.NewRegistry()
	ran := map[string]int{}
	reg.RegisterCommand("/start", commands.Command{Description: "Menu", Aliases: []string{"menu"}, Handler: func(tele.Context) error {
		ran["start"]++
		return nil
	}})
	reg.RegisterCommand("/post", commands.Command{Description: "Post", AdminOnly: true, Hidden: true, Handler: func(tele.Context) error {
		ran["post"]++
		return nil
	}})

	routes := CommandRoutes(reg, CommandRouteOptions{AdminID: 1})
	byEndpoint := map[any]tele.HandlerFunc{}
	for _, r := range routes {
		byEndpoint[r.Endpoint] = r.Handler
	}
	if len(byEndpoint) != 3 {
		t.Fatalf("routes = %d, want /start /menu /post", len(byEndpoint))
	}
	_ = byEndpoint["/menu"](teletest.NewMessage(1, 5, 5, "/menu"))
	_ = byEndpoint["/post"](teletest.NewMessage(2, 5, 5, "/post"))
	_ = byEndpoint["/post"](teletest.NewMessage(3, 1, 1, "/post"))
	if ran["start"] != 1 || ran["post"] != 1 {
		t.Fatalf("ran = %v", ran)
	}
}

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("code = %q", got)
	}
	if deriveErrorCode(nil) != "" {
		t.Fatal("nil error has no code")
	}
}
