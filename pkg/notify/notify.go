package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a plain function into a Notifier.
type Func func(kind Kind, message string)

// Notify calls fn.
func (fn Func) Notify(kind Kind, message string) {
	if fn != nil {
		fn(kind, message)
	}
}

// Nop discards every notification.
var Nop Notifier = Func(func(Kind, string) {})

// Entry is a recorded notification.
type Entry struct {
	Kind    Kind
	Message string
}

// Recorder keeps notifications in memory. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Notify appends the notification.
func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Kind: kind, Message: message})
	r.mu.Unlock()
}

// Entries returns a copy of the recorded notifications in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.entries[len(r.entries)-1], true
}

// Drain returns the recorded notifications and clears the recorder.
func (r *Recorder) Drain() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.entries
	r.entries = nil
	return out
}

// Log returns a Notifier that writes notifications to logger. Errors are
// logged at warn level since they describe user-facing failures, not faults.
func Log(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Func(func(kind Kind, message string) {
		switch kind {
		case KindError:
			logger.Warn("notification", zap.String("kind", string(kind)), zap.String("message", message))
		default:
			logger.Info("notification", zap.String("kind", string(kind)), zap.String("message", message))
		}
	})
}

// Multi fans a notification out to every non-nil notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	targets := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			targets = append(targets, n)
		}
	}
	return Func(func(kind Kind, message string) {
		for _, n := range targets {
			n.Notify(kind, message)
		}
	})
}
