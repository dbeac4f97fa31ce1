// Package autoreturn restores the main menu after a period of inactivity.
//
// Every handled interaction re-arms a debounced timer; when the timer fires
// without being superseded, the configured Action runs. By default a single
// slot is shared by every conversation, so activity anywhere postpones the
// return everywhere and only the most recent menu is restored. ScopeChat
// keeps one slot per menu message instead.
package autoreturn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/menubot/core/clock"
	"github.com/m3rciful/menubot/core/deferred"
	"github.com/m3rciful/menubot/core/logger"
	"github.com/m3rciful/menubot/core/telegram/conversation"
)

// DefaultDelay is the inactivity period before the main menu comes back.
const DefaultDelay = 20 * time.Second

// Scope selects how pending returns are keyed.
type Scope string

const (
	// ScopeGlobal shares one slot across all conversations.
	ScopeGlobal Scope = "global"
	// ScopeChat keeps a slot per menu message.
	ScopeChat Scope = "chat"

	globalSlot = "return_menu"
)

var (
	// ErrInvalidDelay is returned for a negative delay.
	ErrInvalidDelay = errors.New("autoreturn: delay must be >= 0")
	// ErrInvalidScope is returned for an unknown scope.
	ErrInvalidScope = errors.New("autoreturn: unknown scope")
	// ErrNilAction is returned when no Action is configured.
	ErrNilAction = errors.New("autoreturn: action is required")
)

// Action renders the main menu into ref.
type Action func(ctx context.Context, ref conversation.Ref) error

// Options configures a Scheduler.
type Options struct {
	// Delay defaults to DefaultDelay when zero.
	Delay  time.Duration
	Scope  Scope
	Clock  clock.Clock
	Action Action
}

// Scheduler owns the pending auto-return tasks.
type Scheduler struct {
	delay  time.Duration
	scope  Scope
	clock  clock.Clock
	action Action
	log    *slog.Logger

	mu     sync.Mutex
	slots  map[string]*deferred.Task
	closed bool
}

// New validates opts and returns an idle Scheduler.
func New(opts Options) (*Scheduler, error) {
	switch {
	case opts.Delay < 0:
		return nil, ErrInvalidDelay
	case opts.Delay == 0:
		opts.Delay = DefaultDelay
	}
	switch opts.Scope {
	case "":
		opts.Scope = ScopeGlobal
	case ScopeGlobal, ScopeChat:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, opts.Scope)
	}
	if opts.Action == nil {
		return nil, ErrNilAction
	}
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	return &Scheduler{
		delay:  opts.Delay,
		scope:  opts.Scope,
		clock:  opts.Clock,
		action: opts.Action,
		log:    logger.AutoReturn,
		slots:  make(map[string]*deferred.Task),
	}, nil
}

// Delay returns the configured inactivity period.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Scope returns the configured slot scope.
func (s *Scheduler) Scope() Scope { return s.scope }

// OnHandled records an interaction with the menu at ref. Any pending return
// in the same slot is cancelled and a new one is armed. It returns nil once
// the scheduler is closed.
func (s *Scheduler) OnHandled(ctx context.Context, ref conversation.Ref) *deferred.Task {
	if ctx == nil {
		ctx = context.Background()
	}
	// The interaction's context ends with the update; the return must outlive it.
	fireCtx := context.WithoutCancel(ctx)
	key := s.slot(ref)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	replaced := s.slots[key].Cancel()

	var task *deferred.Task
	task = deferred.Schedule(s.clock, s.delay, func() {
		s.mu.Lock()
		current := s.slots[key] == task
		if current {
			delete(s.slots, key)
		}
		s.mu.Unlock()
		if current {
			s.fire(fireCtx, ref, task)
		}
	})
	s.slots[key] = task

	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, s.log, slog.LevelDebug, "autoreturn.armed",
			slog.String("task_id", task.ID()),
			slog.String("scope", string(s.scope)),
			slog.String("slot", key),
			slog.Duration("delay", s.delay),
			slog.Bool("changed", replaced),
		)
	}
	return task
}

func (s *Scheduler) fire(ctx context.Context, ref conversation.Ref, task *deferred.Task) {
	start := time.Now()
	err := s.runAction(ctx, ref)
	attrs := []slog.Attr{
		slog.String("task_id", task.ID()),
		slog.String("scope", string(s.scope)),
		slog.Int64("chat_id", ref.ChatID),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.LogEvent(ctx, s.log, slog.LevelWarn, "autoreturn.failed",
			append(attrs, slog.String("outcome", "fail"), slog.String("err", err.Error()))...)
		return
	}
	logger.LogEvent(ctx, s.log, slog.LevelInfo, "autoreturn.fired",
		append(attrs, slog.String("outcome", "ok"))...)
}

// runAction shields the timer goroutine from a panicking action.
func (s *Scheduler) runAction(ctx context.Context, ref conversation.Ref) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("autoreturn: action panic: %v", r)
		}
	}()
	return s.action(ctx, ref)
}

// Pending returns the armed task for the slot ref maps to, or nil.
func (s *Scheduler) Pending(ref conversation.Ref) *deferred.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[s.slot(ref)]
}

// PendingCount returns the number of armed slots.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Close cancels every pending return. Later OnHandled calls are ignored.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.slots
	s.slots = make(map[string]*deferred.Task)
	s.mu.Unlock()

	cancelled := 0
	for _, t := range pending {
		if t.Cancel() {
			cancelled++
		}
	}
	logger.LogEvent(context.Background(), s.log, slog.LevelInfo, "autoreturn.closed",
		slog.Int("pending", cancelled),
	)
}

func (s *Scheduler) slot(ref conversation.Ref) string {
	if s.scope == ScopeChat {
		return ref.Key()
	}
	return globalSlot
}
