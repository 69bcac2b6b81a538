package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

// Notification is one user-facing error raised by the adapter.
type Notification struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationLog keeps the most recent notifications in a ring buffer so a
// host UI can poll and display them. It implements tts.Notifier.
type NotificationLog struct {
	mu    sync.Mutex
	items []Notification
	next  int
	full  bool
	total int
	fwd   tts.Notifier
}

// NewNotificationLog creates a log holding up to size entries. Every
// notification is also passed to forward when it is non-nil.
func NewNotificationLog(size int, forward tts.Notifier) *NotificationLog {
	if size < 1 {
		size = 1
	}
	return &NotificationLog{
		items: make([]Notification, size),
		fwd:   forward,
	}
}

// NotifyError records a notification.
func (l *NotificationLog) NotifyError(ctx context.Context, title, message string) {
	l.mu.Lock()
	l.items[l.next] = Notification{Title: title, Message: message, Timestamp: time.Now()}
	l.next = (l.next + 1) % len(l.items)
	if l.next == 0 {
		l.full = true
	}
	l.total++
	l.mu.Unlock()

	if l.fwd != nil {
		l.fwd.NotifyError(ctx, title, message)
	}
}

// Recent returns the buffered notifications, oldest first.
func (l *NotificationLog) Recent() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.full {
		out := make([]Notification, l.next)
		copy(out, l.items[:l.next])
		return out
	}
	out := make([]Notification, 0, len(l.items))
	out = append(out, l.items[l.next:]...)
	out = append(out, l.items[:l.next]...)
	return out
}

// Total returns how many notifications were recorded, including evicted ones.
func (l *NotificationLog) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
