package throttle

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/menubot/core/clock"
)

type mapStore struct {
	mu   sync.Mutex
	m    map[int64]time.Time
	sets int
}

func newMapStore() *mapStore {
	return &mapStore{m: make(map[int64]time.Time)}
}

func (s *mapStore) Get(id int64) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	return v, ok
}

func (s *mapStore) Set(id int64, until time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = until
	s.sets++
	return true
}

func (s *mapStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *mapStore) Capacity() int { return 1 << 30 }
func (s *mapStore) Close()        {}

func newTestLimiter(t *testing.T) (*Limiter, *clock.Manual, *mapStore) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	store := newMapStore()
	l, err := New(Options{Window: 2500 * time.Millisecond, Capacity: 10, Clock: clk, Store: store})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	return l, clk, store
}

func TestAdmitRejectsWithinWindow(t *testing.T) {
	l, clk, _ := newTestLimiter(t)
	if !l.Admit(1) {
		t.Fatal("first interaction must be admitted")
	}
	clk.Advance(time.Second)
	if l.Admit(1) {
		t.Fatal("second interaction within window must be rejected")
	}
	if !l.Admit(2) {
		t.Fatal("other users are not affected")
	}
}

func TestAdmitAfterWindow(t *testing.T) {
	l, clk, _ := newTestLimiter(t)
	if !l.Admit(7) {
		t.Fatal("first interaction must be admitted")
	}
	clk.Advance(2600 * time.Millisecond)
	if !l.Admit(7) {
		t.Fatal("interaction after the window must be admitted")
	}
}

func TestRejectionDoesNotExtendCooldown(t *testing.T) {
	l, clk, store := newTestLimiter(t)
	start := clk.Now()

	// t=0 admitted, t=1s rejected, t=3s admitted again.
	if !l.Admit(42) {
		t.Fatal("t=0 must be admitted")
	}
	clk.Advance(time.Second)
	if l.Admit(42) {
		t.Fatal("t=1s must be rejected")
	}
	if store.sets != 1 {
		t.Fatalf("rejected call wrote to the store (%d sets)", store.sets)
	}
	until, _ := store.Get(42)
	if want := start.Add(2500 * time.Millisecond); !until.Equal(want) {
		t.Fatalf("cooldown expiry moved to %v, want %v", until, want)
	}
	clk.Advance(2 * time.Second)
	if !l.Admit(42) {
		t.Fatal("t=3s must be admitted")
	}
}

func TestRemaining(t *testing.T) {
	l, clk, _ := newTestLimiter(t)
	if got := l.Remaining(5); got != 0 {
		t.Fatalf("remaining for unknown user = %v", got)
	}
	l.Admit(5)
	clk.Advance(time.Second)
	if got := l.Remaining(5); got != 1500*time.Millisecond {
		t.Fatalf("remaining = %v, want 1.5s", got)
	}
	clk.Advance(2 * time.Second)
	if got := l.Remaining(5); got != 0 {
		t.Fatalf("remaining after window = %v", got)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Window: -time.Second}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("err = %v, want ErrInvalidWindow", err)
	}
	if _, err := New(Options{Capacity: -1}); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("err = %v, want ErrInvalidCapacity", err)
	}
	l, err := New(Options{Store: newMapStore()})
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if l.Window() != DefaultWindow {
		t.Fatalf("window = %v", l.Window())
	}
}

func TestCacheStoreStaysBounded(t *testing.T) {
	const capacity = 100
	l, err := New(Options{Window: time.Minute, Capacity: capacity})
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	defer l.Close()

	const users = 5000
	for id := int64(1); id <= users; id++ {
		if !l.Admit(id) {
			t.Fatalf("first interaction of user %d rejected", id)
		}
	}

	// Eviction is applied asynchronously by the cache; give it a moment.
	deadline := time.Now().Add(3 * time.Second)
	for l.Size() > l.Capacity() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if size := l.Size(); size > l.Capacity() {
		t.Fatalf("store size %d exceeds capacity %d", size, l.Capacity())
	}
	if l.Size() >= users {
		t.Fatalf("store did not evict: size %d", l.Size())
	}
}
