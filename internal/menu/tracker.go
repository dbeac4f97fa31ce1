package menu

import (
	"fmt"

	"github.com/maypok86/otter"
)

// Tracker remembers the view currently shown in each chat. It is bounded;
// a chat that was evicted or never rendered reads as MainMenu.
type Tracker struct {
	views otter.Cache[int64, View]
}

// NewTracker returns a Tracker holding up to capacity chats.
func NewTracker(capacity int) (*Tracker, error) {
	if capacity <= 0 {
		capacity = defaultTrackedChats
	}
	cache, err := otter.MustBuilder[int64, View](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("menu: build tracker: %w", err)
	}
	return &Tracker{views: cache}, nil
}

// Current returns the view shown in chatID.
func (t *Tracker) Current(chatID int64) View {
	if v, ok := t.views.Get(chatID); ok {
		return v
	}
	return MainMenu
}

// Set records that chatID now shows v.
func (t *Tracker) Set(chatID int64, v View) {
	t.views.Set(chatID, v)
}

// Close releases the cache's background resources.
func (t *Tracker) Close() {
	t.views.Close()
}
