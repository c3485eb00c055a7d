package i18n

import (
	"errors"
	"strings"
)

// ErrMissingTranslator is reported to MissingTranslationHandler when a
// Localizer has no translator configured.
var ErrMissingTranslator = errors.New("i18n: translator is not configured")

// MissingTranslationHandler decides the text used when a key cannot be
// translated. The returned string is used verbatim.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

// Localizer resolves message keys for a single locale. The zero value falls
// back to the built-in catalog.
type Localizer struct {
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
}

// NewLocalizer returns a Localizer using the default catalog for locale.
func NewLocalizer(locale string) Localizer {
	return Localizer{Locale: locale, Translator: Default()}
}

// Message translates key. Resolution order is the configured translator, the
// built-in catalog, then the handler (or the key itself).
func (l Localizer) Message(key string, args ...any) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	locale := l.Locale
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}

	var err error
	if l.Translator != nil {
		var msg string
		msg, err = l.Translator.Translate(locale, key, args...)
		if err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	} else {
		err = ErrMissingTranslator
	}

	if msg, fallbackErr := builtin.Translate(locale, key, args...); fallbackErr == nil {
		return msg
	}

	if l.OnMissing != nil {
		return l.OnMissing(locale, key, args, err)
	}
	return key
}

var builtin = Default()
