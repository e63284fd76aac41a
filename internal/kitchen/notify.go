package kitchen

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

type Notification struct {
	ID        string     `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Notifier is a FIFO of toasts that expire on their own. It never blocks
// the caller.
type Notifier struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	queue []Notification
}

func NewNotifier(ttl time.Duration, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{ttl: ttl, now: now}
}

func (n *Notifier) Push(kind NoticeKind, msg string) Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := n.now()
	note := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   msg,
		CreatedAt: t,
		ExpiresAt: t.Add(n.ttl),
	}
	n.queue = append(n.queue, note)
	return note
}

// Active drops expired notifications and returns the rest, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	t := n.now()
	kept := n.queue[:0]
	for _, note := range n.queue {
		if t.Before(note.ExpiresAt) {
			kept = append(kept, note)
		}
	}
	n.queue = kept
	return append([]Notification(nil), kept...)
}

func (n *Notifier) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, note := range n.queue {
		if note.ID == id {
			n.queue = append(n.queue[:i], n.queue[i+1:]...)
			return
		}
	}
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	n.queue = nil
	n.mu.Unlock()
}
