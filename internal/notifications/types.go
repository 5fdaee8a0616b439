package notifications

import (
	"context"
	"sync"
	"time"
)

// Variant selects how a notification is styled
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a user-visible toast message
type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
	Timestamp   int64   `json:"timestamp"`
	Workspace   string  `json:"workspace,omitempty"`
}

// New creates a default-styled notification
func New(title, description string) Notification {
	return Notification{
		Title:       title,
		Description: description,
		Variant:     VariantDefault,
		Timestamp:   time.Now().UnixMilli(),
	}
}

// Destructive creates a failure-styled notification
func Destructive(title, description string) Notification {
	n := New(title, description)
	n.Variant = VariantDestructive
	return n
}

// Notifier delivers notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n)
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// Multi fans a notification out to several notifiers in order
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// ForWorkspace stamps every notification with the workspace id before
// handing it to next
func ForWorkspace(workspace string, next Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, n Notification) {
		n.Workspace = workspace
		next.Notify(ctx, n)
	})
}

// Recorder keeps every notification it receives, in order
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Notifier
func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets everything recorded so far
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.items = nil
	r.mu.Unlock()
}
