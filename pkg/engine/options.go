package engine

import (
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/notify"
	"github.com/goliatone/go-authflow/pkg/rules"
)

// DefaultCooldownSeconds is the wait imposed after a verification code was
// sent.
const DefaultCooldownSeconds = 60

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Engines log with zap.NewNop by default.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock injects the clock driving the cooldown ticker and the completion
// delay.
func WithClock(c clock.WithTicker) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithNotifier sets the side-channel notifier. Messages are sanitized before
// they reach it.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithOnComplete registers the callback invoked once when the flow completes.
func WithOnComplete(fn func()) Option {
	return func(e *Engine) {
		e.onComplete = fn
	}
}

// WithCooldown overrides the verification code cooldown in whole seconds.
// Non-positive values are ignored.
func WithCooldown(seconds int) Option {
	return func(e *Engine) {
		if seconds > 0 {
			e.cooldownSeconds = seconds
		}
	}
}

// WithCompletionDelay defers the completion callback by d. The delay is
// cancelled by Close.
func WithCompletionDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.completionDelay = d
		}
	}
}

// WithLocalizer sets the localizer used for validation and notification
// messages.
func WithLocalizer(l i18n.Localizer) Option {
	return func(e *Engine) {
		e.localizer = l
	}
}

// WithObserver registers an Observer for engine events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithRegistry compiles the flow rules against registry instead of the
// built-in one.
func WithRegistry(registry *rules.Registry) Option {
	return func(e *Engine) {
		e.registry = registry
	}
}

// WithInitialForm seeds the form state.
func WithInitialForm(form model.FormState) Option {
	return func(e *Engine) {
		for k, v := range form {
			e.form[k] = v
		}
	}
}

// WithID overrides the generated engine id used in logs.
func WithID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.id = id
		}
	}
}
