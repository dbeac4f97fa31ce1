package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m3rciful/menubot/core/autoreturn"
	"github.com/m3rciful/menubot/core/clock"
	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/telegram/conversation"
)

func testConfig() *coreconfig.Config {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}
	if err := coreconfig.Normalize(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func noLogger(*coreconfig.Config) error { return nil }

func TestRunBuildsLimiterAndScheduler(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	res, err := Run(Options{
		Config:       testConfig(),
		LoggerInit:   noLogger,
		Clock:        clk,
		ReturnAction: func(context.Context, conversation.Ref) error { return nil },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Close()

	if res.Limiter.Window() != 2500*time.Millisecond || res.Limiter.Capacity() != 1000 {
		t.Fatalf("limiter = %v/%d", res.Limiter.Window(), res.Limiter.Capacity())
	}
	if res.AutoReturn.Delay() != 20*time.Second || res.AutoReturn.Scope() != autoreturn.ScopeGlobal {
		t.Fatalf("scheduler = %v/%s", res.AutoReturn.Delay(), res.AutoReturn.Scope())
	}
}

func TestRunWithoutActionSkipsScheduler(t *testing.T) {
	res, err := Run(Options{Config: testConfig(), LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Close()
	if res.AutoReturn != nil {
		t.Fatal("scheduler built without an action")
	}
}

func TestRunPropagatesLoggerFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{Config: testConfig(), LoggerInit: func(*coreconfig.Config) error { return boom }})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Run(Options{}); err == nil {
		t.Fatal("nil config must fail")
	}
}
