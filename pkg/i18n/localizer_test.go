package i18n_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-authflow/pkg/i18n"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestLocalizer_PrefersTranslator(t *testing.T) {
	l := i18n.Localizer{
		Locale:     "es",
		Translator: stubTranslator{i18n.KeyPhoneInvalid: "Teléfono no válido"},
	}

	if got := l.Message(i18n.KeyPhoneInvalid); got != "Teléfono no válido" {
		t.Fatalf("expected translated message, got %q", got)
	}
}

func TestLocalizer_FallsBackToBuiltinCatalog(t *testing.T) {
	l := i18n.Localizer{Locale: "es", Translator: stubTranslator{}}

	if got := l.Message(i18n.KeyCodeRejected); got != "验证码错误或已过期" {
		t.Fatalf("expected default locale fallback, got %q", got)
	}
}

func TestLocalizer_MissingHandler(t *testing.T) {
	var gotErr error
	l := i18n.Localizer{
		Locale: "en",
		OnMissing: func(locale, key string, _ []any, err error) string {
			gotErr = err
			return "missing:" + locale + ":" + key
		},
	}

	if got := l.Message("unknown.key"); got != "missing:en:unknown.key" {
		t.Fatalf("unexpected missing output %q", got)
	}
	if !errors.Is(gotErr, i18n.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
}

func TestLocalizer_UnknownKeyReturnsKey(t *testing.T) {
	l := i18n.NewLocalizer(i18n.LocaleEn)
	if got := l.Message("nope"); got != "nope" {
		t.Fatalf("expected key echo, got %q", got)
	}
}

func TestCatalog_LocaleChain(t *testing.T) {
	catalog := i18n.Default()

	cases := []struct {
		name   string
		locale string
		expect string
	}{
		{name: "exact", locale: "en", expect: "Verification code sent"},
		{name: "region falls back to language", locale: "en-GB", expect: "Verification code sent"},
		{name: "unknown falls back to default", locale: "fr", expect: "验证码已发送"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := catalog.Translate(tc.locale, i18n.KeyCodeSent)
			if err != nil {
				t.Fatalf("translate: %v", err)
			}
			if got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestCatalog_Merge(t *testing.T) {
	merged := i18n.Default().Merge(i18n.Catalog{
		i18n.LocaleEn: {i18n.KeyCodeSent: "Code on its way"},
		"de":          {i18n.KeyCodeSent: "Code gesendet"},
	})

	if got, _ := merged.Translate("en", i18n.KeyCodeSent); got != "Code on its way" {
		t.Fatalf("expected override, got %q", got)
	}
	if got, _ := merged.Translate("de", i18n.KeyCodeSent); got != "Code gesendet" {
		t.Fatalf("expected new locale, got %q", got)
	}
	if got, _ := i18n.Default().Translate("en", i18n.KeyCodeSent); got != "Verification code sent" {
		t.Fatalf("merge mutated the source catalog: %q", got)
	}
}
