// Package notify delivers side-channel user notifications (the toast messages
// of a form host). Notifiers are fire-and-forget: they never return errors and
// must not block the caller for long.
package notify
