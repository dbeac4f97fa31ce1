package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/m3rciful/menubot/core/autoreturn"
	"github.com/m3rciful/menubot/core/clock"
	coreconfig "github.com/m3rciful/menubot/core/config"
	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/throttle"
)

// Options control the shared bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	// Clock defaults to the system clock.
	Clock clock.Clock
	// ReturnAction is run by the auto-return scheduler. When nil no
	// scheduler is built.
	ReturnAction autoreturn.Action
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Clock      clock.Clock
	Limiter    *throttle.Limiter
	AutoReturn *autoreturn.Scheduler
}

// Close tears down everything Run created.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	if r.AutoReturn != nil {
		r.AutoReturn.Close()
	}
	if r.Limiter != nil {
		r.Limiter.Close()
	}
	return nil
}

// Run initializes the logger, the cooldown limiter and the auto-return scheduler.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}
	res := &Result{Clock: clk}

	rl := opts.Config.RateLimit
	limiter, err := throttle.New(throttle.Options{
		Window:   time.Duration(rl.IntervalMS) * time.Millisecond,
		Capacity: rl.Capacity,
		Clock:    clk,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: rate limiter: %w", err)
	}
	res.Limiter = limiter

	if opts.ReturnAction != nil {
		ar := opts.Config.AutoReturn
		sched, err := autoreturn.New(autoreturn.Options{
			Delay:  time.Duration(ar.DelayMS) * time.Millisecond,
			Scope:  autoreturn.Scope(ar.Scope),
			Clock:  clk,
			Action: opts.ReturnAction,
		})
		if err != nil {
			return nil, errors.Join(fmt.Errorf("bootstrap: auto-return: %w", err), res.Close())
		}
		res.AutoReturn = sched
	}
	return res, nil
}
