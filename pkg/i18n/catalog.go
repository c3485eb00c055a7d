package i18n

import (
	"errors"
	"fmt"
	"strings"
)

// Locales shipped with the default catalog.
const (
	LocaleZhCN = "zh-CN"
	LocaleEn   = "en"

	DefaultLocale = LocaleZhCN
)

// Message keys reported by rules, the engine and the simulated backend.
const (
	KeyRequired           = "validation.required"
	KeyPhoneInvalid       = "validation.phone"
	KeyPasswordInvalid    = "validation.password"
	KeyConfirmMismatch    = "validation.confirm"
	KeyCodeInvalid        = "validation.code"
	KeyUsernameInvalid    = "validation.username"
	KeyUSCCInvalid        = "validation.uscc"
	KeyPermitInvalid      = "validation.permit"
	KeyCompanyNameInvalid = "validation.companyName"

	KeyCodeRejected   = "operation.code.rejected"
	KeyCodeSent       = "operation.code.sent"
	KeyCodeSendFailed = "operation.code.sendFailed"
	KeyCodeVerified   = "operation.code.verified"
	KeyResetSuccess   = "operation.reset.success"
	KeyResetFailed    = "operation.reset.failed"
	KeyRegisterOK     = "operation.register.success"
	KeyRegisterFailed = "operation.register.failed"
	KeyLoginOK        = "operation.login.success"
	KeyLoginFailed    = "operation.login.failed"
	KeyOperationError = "operation.failed"
	KeyPhoneTaken     = "operation.register.phoneTaken"
	KeyUSCCTaken      = "operation.register.usccTaken"
	KeyAccountMissing = "operation.account.missing"

	KeyDeactivateOK     = "operation.deactivate.success"
	KeyDeactivateFailed = "operation.deactivate.failed"

	KeyPromptSendCode   = "prompt.code.send"
	KeyPromptResendIn   = "prompt.code.resendIn"
	KeyPromptChooseFlow = "prompt.flow.choose"
	KeyPromptStep       = "prompt.step"
	KeyPromptRetry      = "prompt.retry"
	KeyPromptPhone      = "prompt.phone"
	KeyPromptPassword   = "prompt.password"
	KeyPromptDeactivate = "prompt.deactivate"

	KeyStrengthWeak   = "strength.weak"
	KeyStrengthFair   = "strength.fair"
	KeyStrengthGood   = "strength.good"
	KeyStrengthStrong = "strength.strong"
)

// ErrMissingTranslation is returned when neither the locale nor the default
// locale define a key.
var ErrMissingTranslation = errors.New("i18n: missing translation")

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorFunc adapts a function into a Translator.
type TranslatorFunc func(locale, key string, args ...any) (string, error)

// Translate delegates to the underlying function.
func (fn TranslatorFunc) Translate(locale, key string, args ...any) (string, error) {
	return fn(locale, key, args...)
}

// Catalog is a static locale → key → message table. Messages containing
// format verbs are rendered with the supplied args.
type Catalog map[string]map[string]string

// Translate implements Translator. Unknown locales fall back to the default
// locale before reporting ErrMissingTranslation.
func (c Catalog) Translate(locale, key string, args ...any) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrMissingTranslation
	}
	for _, candidate := range localeChain(locale) {
		messages, ok := c[candidate]
		if !ok {
			continue
		}
		if msg, ok := messages[key]; ok && strings.TrimSpace(msg) != "" {
			if len(args) > 0 {
				return fmt.Sprintf(msg, args...), nil
			}
			return msg, nil
		}
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

// Merge returns a catalog with overrides layered over c.
func (c Catalog) Merge(overrides Catalog) Catalog {
	out := make(Catalog, len(c)+len(overrides))
	for locale, messages := range c {
		out[locale] = cloneMessages(messages)
	}
	for locale, messages := range overrides {
		dst, ok := out[locale]
		if !ok {
			dst = make(map[string]string, len(messages))
			out[locale] = dst
		}
		for k, v := range messages {
			dst[k] = v
		}
	}
	return out
}

func localeChain(locale string) []string {
	locale = strings.TrimSpace(locale)
	chain := make([]string, 0, 3)
	if locale != "" {
		chain = append(chain, locale)
		if idx := strings.IndexAny(locale, "-_"); idx > 0 {
			chain = append(chain, locale[:idx])
		}
	}
	if locale != DefaultLocale {
		chain = append(chain, DefaultLocale)
	}
	return chain
}

func cloneMessages(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Default returns the built-in catalog (simplified Chinese and English).
func Default() Catalog {
	return Catalog{
		LocaleZhCN: {
			KeyRequired:           "此项为必填项",
			KeyPhoneInvalid:       "请输入有效的手机号码",
			KeyPasswordInvalid:    "密码至少8位，需包含字母与数字",
			KeyConfirmMismatch:    "两次输入的密码不一致",
			KeyCodeInvalid:        "请输入6位数字验证码",
			KeyUsernameInvalid:    "仅支持字母、数字或下划线，长度4-20位",
			KeyUSCCInvalid:        "格式应为18位大写字母或数字",
			KeyPermitInvalid:      "格式应为10-25位大写字母、数字或横线",
			KeyCompanyNameInvalid: "企业名称长度应为2-60位",

			KeyCodeRejected:   "验证码错误或已过期",
			KeyCodeSent:       "验证码已发送",
			KeyCodeSendFailed: "发送验证码失败，请稍后重试",
			KeyCodeVerified:   "手机验证成功",
			KeyResetSuccess:   "密码已重置，请使用新密码登录",
			KeyResetFailed:    "重置密码失败，请重试",
			KeyRegisterOK:     "注册成功，正在为您登录...",
			KeyRegisterFailed: "注册失败，请重试",
			KeyLoginOK:        "登录成功",
			KeyLoginFailed:    "登录失败，请检查手机号码或密码",
			KeyOperationError: "操作失败，请稍后重试",
			KeyPhoneTaken:     "该手机号码已注册",
			KeyUSCCTaken:      "该统一社会信用代码已注册",
			KeyAccountMissing: "该手机号码尚未注册",

			KeyDeactivateOK:     "账号已成功注销",
			KeyDeactivateFailed: "注销失败，请稍后重试",

			KeyPromptSendCode:   "发送验证码至 %s？",
			KeyPromptResendIn:   "%d 秒后可重新发送",
			KeyPromptChooseFlow: "请选择操作",
			KeyPromptStep:       "第 %d/%d 步：%s",
			KeyPromptRetry:      "请修改后重试",
			KeyPromptPhone:      "手机号码",
			KeyPromptPassword:   "密码",
			KeyPromptDeactivate: "注销账号确认：注销 %s 后，账号信息将被永久删除且无法恢复。确认注销？",

			KeyStrengthWeak:   "弱",
			KeyStrengthFair:   "一般",
			KeyStrengthGood:   "良好",
			KeyStrengthStrong: "强",
		},
		LocaleEn: {
			KeyRequired:           "This field is required",
			KeyPhoneInvalid:       "Enter a valid mobile phone number",
			KeyPasswordInvalid:    "At least 8 characters, including letters and digits",
			KeyConfirmMismatch:    "The passwords do not match",
			KeyCodeInvalid:        "Enter the 6-digit verification code",
			KeyUsernameInvalid:    "4-20 characters: letters, digits or underscore",
			KeyUSCCInvalid:        "Must be 18 uppercase letters or digits",
			KeyPermitInvalid:      "Must be 10-25 uppercase letters, digits or hyphens",
			KeyCompanyNameInvalid: "Company name must be 2-60 characters",

			KeyCodeRejected:   "The verification code is wrong or has expired",
			KeyCodeSent:       "Verification code sent",
			KeyCodeSendFailed: "Could not send the verification code, try again later",
			KeyCodeVerified:   "Phone verified",
			KeyResetSuccess:   "Password reset, sign in with the new password",
			KeyResetFailed:    "Password reset failed, try again",
			KeyRegisterOK:     "Registration complete, signing you in...",
			KeyRegisterFailed: "Registration failed, try again",
			KeyLoginOK:        "Signed in",
			KeyLoginFailed:    "Sign in failed, check the phone number or password",
			KeyOperationError: "The operation failed, try again later",
			KeyPhoneTaken:     "This phone number is already registered",
			KeyUSCCTaken:      "This business registration number is already registered",
			KeyAccountMissing: "No account is registered for this phone number",

			KeyDeactivateOK:     "Account deactivated",
			KeyDeactivateFailed: "Deactivation failed, try again later",

			KeyPromptSendCode:   "Send a verification code to %s?",
			KeyPromptResendIn:   "You can resend in %d s",
			KeyPromptChooseFlow: "Choose a flow",
			KeyPromptStep:       "Step %d/%d: %s",
			KeyPromptRetry:      "Correct the fields and try again",
			KeyPromptPhone:      "Phone number",
			KeyPromptPassword:   "Password",
			KeyPromptDeactivate: "Deactivate the account for %s? Its data is deleted permanently.",

			KeyStrengthWeak:   "weak",
			KeyStrengthFair:   "fair",
			KeyStrengthGood:   "good",
			KeyStrengthStrong: "strong",
		},
	}
}
