// Package throttle implements a per-user cooldown limiter backed by a
// capacity-bounded cache.
package throttle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/maypok86/otter"

	"github.com/m3rciful/menubot/core/clock"
)

const (
	// DefaultWindow is the cooldown applied after an admitted interaction.
	DefaultWindow = 2500 * time.Millisecond
	// DefaultCapacity bounds the number of tracked users.
	DefaultCapacity = 1000

	// reclaimSlack keeps entries in the cache slightly longer than the
	// window; admission itself compares the stored expiry to the clock.
	reclaimSlack = time.Second
)

var (
	// ErrInvalidWindow is returned for a non-positive cooldown window.
	ErrInvalidWindow = errors.New("throttle: window must be > 0")
	// ErrInvalidCapacity is returned for a non-positive store capacity.
	ErrInvalidCapacity = errors.New("throttle: capacity must be > 0")
)

// Store keeps cooldown expiries keyed by user ID.
type Store interface {
	Get(userID int64) (time.Time, bool)
	Set(userID int64, until time.Time) bool
	Size() int
	Capacity() int
	Close()
}

// Options configures a Limiter.
type Options struct {
	Window   time.Duration
	Capacity int
	Clock    clock.Clock
	// Store overrides the otter-backed store; tests use it to observe writes.
	Store Store
}

// Limiter admits at most one interaction per user per window.
type Limiter struct {
	mu     sync.Mutex
	store  Store
	window time.Duration
	clock  clock.Clock
}

// New builds a Limiter. Zero Window and Capacity fall back to defaults;
// negative values are rejected.
func New(opts Options) (*Limiter, error) {
	if opts.Window == 0 {
		opts.Window = DefaultWindow
	}
	if opts.Capacity == 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Window < 0 {
		return nil, ErrInvalidWindow
	}
	if opts.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	if opts.Clock == nil {
		opts.Clock = clock.System()
	}
	store := opts.Store
	if store == nil {
		s, err := NewCacheStore(opts.Capacity, opts.Window+reclaimSlack)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return &Limiter{
		store:  store,
		window: opts.Window,
		clock:  opts.Clock,
	}, nil
}

// Admit reports whether userID may proceed. An admitted call starts a new
// cooldown; a rejected call leaves the existing cooldown untouched.
func (l *Limiter) Admit(userID int64) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if until, ok := l.store.Get(userID); ok && now.Before(until) {
		return false
	}
	l.store.Set(userID, now.Add(l.window))
	return true
}

// Remaining returns how long userID still has to wait, or 0.
func (l *Limiter) Remaining(userID int64) time.Duration {
	now := l.clock.Now()
	l.mu.Lock()
	until, ok := l.store.Get(userID)
	l.mu.Unlock()
	if !ok || !now.Before(until) {
		return 0
	}
	return until.Sub(now)
}

// Window returns the configured cooldown window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Size returns the number of tracked users.
func (l *Limiter) Size() int {
	return l.store.Size()
}

// Capacity returns the maximum number of tracked users.
func (l *Limiter) Capacity() int {
	return l.store.Capacity()
}

// Close releases the store's background resources.
func (l *Limiter) Close() {
	l.store.Close()
}

type cacheStore struct {
	cache otter.Cache[int64, time.Time]
}

// NewCacheStore returns an otter-backed Store bounded by capacity whose
// entries are reclaimed after ttl.
func NewCacheStore(capacity int, ttl time.Duration) (Store, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	c, err := otter.MustBuilder[int64, time.Time](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("throttle: build cooldown cache (capacity %d): %w", capacity, err)
	}
	return &cacheStore{cache: c}, nil
}

func (s *cacheStore) Get(userID int64) (time.Time, bool) {
	return s.cache.Get(userID)
}

func (s *cacheStore) Set(userID int64, until time.Time) bool {
	return s.cache.Set(userID, until)
}

func (s *cacheStore) Size() int {
	return s.cache.Size()
}

func (s *cacheStore) Capacity() int {
	return s.cache.Capacity()
}

func (s *cacheStore) Close() {
	s.cache.Close()
}
