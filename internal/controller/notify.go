package controller

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient, user-visible message.
type Notification struct {
	ID      uuid.UUID
	Level   Level
	Message string
	Created time.Time
}

// Notifier holds notifications until they expire or are dismissed.
// A ttl of zero keeps them until dismissed.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []Notification
}

func NewNotifier(ttl time.Duration, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{ttl: ttl, now: now}
}

// Push records a notification and returns it.
func (n *Notifier) Push(level Level, message string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	note := Notification{
		ID:      uuid.New(),
		Level:   level,
		Message: message,
		Created: n.now(),
	}
	n.items = append(n.items, note)
	return note
}

// Active returns the unexpired notifications, oldest first, dropping expired ones.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ttl > 0 {
		now := n.now()
		kept := n.items[:0]
		for _, note := range n.items {
			if now.Sub(note.Created) < n.ttl {
				kept = append(kept, note)
			}
		}
		n.items = kept
	}
	out := make([]Notification, len(n.items))
	copy(out, n.items)
	return out
}

// Dismiss removes the notification with the given id. It reports whether
// one was removed.
func (n *Notifier) Dismiss(id uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, note := range n.items {
		if note.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return true
		}
	}
	return false
}

// TTL is how long a notification stays active.
func (n *Notifier) TTL() time.Duration { return n.ttl }
