package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
)

// Password character sets. CharsetAny is used by the password reset flow,
// CharsetAlnumSymbols by registration. CharsetAlnum is the default when a flow
// names none. A value of the form "extra:<chars>" allows letters, digits and
// the listed characters.
const (
	CharsetAlnum        = "alnum"
	CharsetAlnumSymbols = "alnum-symbols"
	CharsetAny          = "any"

	charsetExtraPrefix = "extra:"

	// PasswordSymbols are the punctuation characters accepted by
	// CharsetAlnumSymbols.
	PasswordSymbols = `!@#$%^&*()_+-=[]{};':",.<>/?`

	MinPasswordLength = 8
	DefaultCodeLength = 6
	MinCompanyName    = 2
	MaxCompanyName    = 60
)

var (
	phonePattern    = regexp.MustCompile(`^1[3-9][0-9]{9}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,20}$`)
	usccPattern     = regexp.MustCompile(`^[0-9A-Z]{18}$`)
	permitPattern   = regexp.MustCompile(`^[A-Z0-9-]{10,25}$`)
)

func (r *Registry) registerBuiltins() {
	r.Register(model.RuleKindRequired, func(model.FieldSpec, model.FlowDefinition) (Rule, error) {
		return Rule{
			Key:   i18n.KeyRequired,
			Check: func(string, model.FormState) bool { return true },
		}, nil
	})

	r.Register(model.RuleKindPhone, patternFactory(phonePattern, i18n.KeyPhoneInvalid))
	r.Register(model.RuleKindUsername, patternFactory(usernamePattern, i18n.KeyUsernameInvalid))
	r.Register(model.RuleKindUSCC, patternFactory(usccPattern, i18n.KeyUSCCInvalid))
	r.Register(model.RuleKindPermit, patternFactory(permitPattern, i18n.KeyPermitInvalid))

	r.Register(model.RuleKindCode, func(spec model.FieldSpec, _ model.FlowDefinition) (Rule, error) {
		length := DefaultCodeLength
		if raw := spec.Param(model.ParamLength); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return Rule{}, fmt.Errorf("invalid code length %q", raw)
			}
			length = n
		}
		return Rule{
			Key: i18n.KeyCodeInvalid,
			Check: func(value string, _ model.FormState) bool {
				return IsCode(value, length)
			},
		}, nil
	})

	r.Register(model.RuleKindPassword, func(spec model.FieldSpec, flow model.FlowDefinition) (Rule, error) {
		charset := spec.Param(model.ParamCharset)
		if charset == "" {
			charset = strings.TrimSpace(flow.PasswordCharset)
		}
		allowed, err := CharsetPredicate(charset)
		if err != nil {
			return Rule{}, err
		}
		return Rule{
			Key: i18n.KeyPasswordInvalid,
			Check: func(value string, _ model.FormState) bool {
				return IsPassword(value, allowed)
			},
		}, nil
	})

	r.Register(model.RuleKindConfirm, func(spec model.FieldSpec, flow model.FlowDefinition) (Rule, error) {
		target := spec.Param(model.ParamConfirmOf)
		if target == "" {
			return Rule{}, fmt.Errorf("confirm rule requires the %q param", model.ParamConfirmOf)
		}
		if _, ok := flow.Field(target); !ok {
			return Rule{}, fmt.Errorf("confirm target %q is not declared", target)
		}
		return Rule{
			Key:        i18n.KeyConfirmMismatch,
			AllowEmpty: true,
			Check: func(value string, form model.FormState) bool {
				return value == form.Get(target)
			},
		}, nil
	})

	r.Register(model.RuleKindCompanyName, func(model.FieldSpec, model.FlowDefinition) (Rule, error) {
		return Rule{
			Key: i18n.KeyCompanyNameInvalid,
			Check: func(value string, _ model.FormState) bool {
				n := utf8.RuneCountInString(value)
				return n >= MinCompanyName && n <= MaxCompanyName
			},
		}, nil
	})
}

func patternFactory(re *regexp.Regexp, key string) Factory {
	return func(model.FieldSpec, model.FlowDefinition) (Rule, error) {
		return Rule{
			Key: key,
			Check: func(value string, _ model.FormState) bool {
				return re.MatchString(value)
			},
		}, nil
	}
}

// IsPhone reports whether value is an 11-digit mainland mobile number.
func IsPhone(value string) bool {
	return phonePattern.MatchString(value)
}

// IsCode reports whether value is exactly length ASCII digits.
func IsCode(value string, length int) bool {
	if len(value) != length {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

// IsPassword reports whether value has at least MinPasswordLength characters,
// one ASCII letter and one digit, and only characters accepted by allowed. A
// nil allowed accepts any character.
func IsPassword(value string, allowed func(rune) bool) bool {
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return false
	}
	var letter, digit bool
	for _, r := range value {
		switch {
		case isASCIILetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
		if allowed != nil && !allowed(r) {
			return false
		}
	}
	return letter && digit
}

// CharsetPredicate resolves a charset name to a rune filter. An empty name
// selects CharsetAlnum; CharsetAny yields nil.
func CharsetPredicate(name string) (func(rune) bool, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "" || name == CharsetAlnum:
		return isASCIIAlnum, nil
	case name == CharsetAlnumSymbols:
		return withExtra(PasswordSymbols), nil
	case name == CharsetAny:
		return nil, nil
	case strings.HasPrefix(name, charsetExtraPrefix):
		extra := strings.TrimPrefix(name, charsetExtraPrefix)
		if extra == "" {
			return nil, fmt.Errorf("charset %q lists no extra characters", name)
		}
		return withExtra(extra), nil
	default:
		return nil, fmt.Errorf("unknown password charset %q", name)
	}
}

func withExtra(extra string) func(rune) bool {
	return func(r rune) bool {
		return isASCIIAlnum(r) || strings.ContainsRune(extra, r)
	}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isASCIIAlnum(r rune) bool {
	return isASCIILetter(r) || (r >= '0' && r <= '9')
}
