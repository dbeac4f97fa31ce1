// Package deferred provides a cancellable "wait, then act unless cancelled"
// handle.
package deferred

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/menubot/core/clock"
)

// State is the lifecycle position of a Task.
type State int

const (
	// Armed means the delay has not elapsed and the task was not cancelled.
	Armed State = iota
	// Fired means the task passed its cancellation check and ran.
	Fired
	// Cancelled means Cancel won the race against the timer.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Task is a single delayed call of a function.
type Task struct {
	id       string
	deadline time.Time

	mu    sync.Mutex
	state State
	timer clock.Timer
	done  chan struct{}
}

// Schedule arms fn to run once after delay on clk.
func Schedule(clk clock.Clock, delay time.Duration, fn func()) *Task {
	if clk == nil {
		clk = clock.System()
	}
	t := &Task{
		id:       uuid.NewString(),
		deadline: clk.Now().Add(delay),
		done:     make(chan struct{}),
	}
	// Hold the lock while arming so an immediate fire cannot observe a nil timer.
	t.mu.Lock()
	t.timer = clk.AfterFunc(delay, func() { t.fire(fn) })
	t.mu.Unlock()
	return t
}

func (t *Task) fire(fn func()) {
	t.mu.Lock()
	if t.state != Armed {
		t.mu.Unlock()
		return
	}
	t.state = Fired
	t.mu.Unlock()

	defer close(t.done)
	if fn != nil {
		fn()
	}
}

// Cancel prevents the task from running. It reports whether it did so;
// cancelling a task that already fired or was cancelled is a no-op.
func (t *Task) Cancel() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Armed {
		return false
	}
	t.state = Cancelled
	if t.timer != nil {
		t.timer.Stop()
	}
	close(t.done)
	return true
}

// Done is closed once the task is cancelled or its function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ID returns the unique task identifier.
func (t *Task) ID() string {
	return t.id
}

// Deadline returns the time the task is due to fire.
func (t *Task) Deadline() time.Time {
	return t.deadline
}
