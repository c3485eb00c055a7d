package notify

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Sanitize strips markup from message and returns plain text. Collaborator
// messages may carry HTML fragments that a terminal or toast must not render.
func Sanitize(message string) string {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return ""
	}
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(trimmed)))
}

// Sanitized wraps n so every message passes through Sanitize. Notifications
// that sanitize to an empty string are dropped.
func Sanitized(n Notifier) Notifier {
	if n == nil {
		return Nop
	}
	return Func(func(kind Kind, message string) {
		clean := Sanitize(message)
		if clean == "" {
			return
		}
		n.Notify(kind, clean)
	})
}
