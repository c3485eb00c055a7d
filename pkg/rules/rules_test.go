package rules

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
)

func testFlow(charset string) model.FlowDefinition {
	return model.FlowDefinition{
		ID:              "test",
		PasswordCharset: charset,
		Fields: []model.FieldSpec{
			{Name: "phone", Rule: model.RuleKindPhone},
			{Name: "code", Rule: model.RuleKindCode},
			{Name: "password", Rule: model.RuleKindPassword},
			{Name: "confirmPassword", Rule: model.RuleKindConfirm, Params: map[string]string{"of": "password"}},
			{Name: "username", Rule: model.RuleKindUsername},
			{Name: "uscc", Rule: model.RuleKindUSCC},
			{Name: "permitNo", Rule: model.RuleKindPermit, Optional: true},
			{Name: "companyName", Rule: model.RuleKindCompanyName},
			{Name: "secret", Rule: model.RuleKindRequired},
		},
		Steps: []model.StepDefinition{{Name: "only", Fields: []string{"phone"}, Action: model.ActionAdvance}},
	}
}

func mustCompile(t *testing.T, flow model.FlowDefinition) *Table {
	t.Helper()
	table, err := Compile(flow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return table.WithLocalizer(i18n.NewLocalizer(i18n.LocaleEn))
}

func TestValidateField_Phone(t *testing.T) {
	table := mustCompile(t, testFlow(""))

	for second := '0'; second <= '9'; second++ {
		phone := "1" + string(second) + "800138000"
		fe := table.ValidateField("phone", phone, nil)
		if second >= '3' && fe != nil {
			t.Fatalf("expected %s to pass, got %v", phone, fe)
		}
		if second < '3' && fe == nil {
			t.Fatalf("expected %s to fail", phone)
		}
	}

	invalid := []string{
		"",
		"1380013800",
		"138001380000",
		"23800138000",
		"1380013800a",
		" 13800138000",
		"+8613800138000",
		"１3800138000",
	}
	for _, phone := range invalid {
		if fe := table.ValidateField("phone", phone, nil); fe == nil {
			t.Fatalf("expected %q to fail phone validation", phone)
		}
	}
}

func TestValidateField_PhoneExhaustiveSuffix(t *testing.T) {
	table := mustCompile(t, testFlow(""))
	for i := 0; i < 1000; i++ {
		phone := fmt.Sprintf("15%09d", i*997)
		if fe := table.ValidateField("phone", phone, nil); fe != nil {
			t.Fatalf("expected %s to pass: %v", phone, fe)
		}
	}
}

func TestValidateField_RequiredMessage(t *testing.T) {
	table := mustCompile(t, testFlow(""))

	fe := table.ValidateField("phone", "", nil)
	if fe == nil {
		t.Fatalf("expected empty phone to fail")
	}
	if fe.Key != i18n.KeyRequired {
		t.Fatalf("expected required key, got %q", fe.Key)
	}
	if fe.Message != "This field is required" {
		t.Fatalf("unexpected message %q", fe.Message)
	}

	if fe := table.ValidateField("secret", "  ", nil); fe == nil || fe.Key != i18n.KeyRequired {
		t.Fatalf("expected blank required field to fail, got %v", fe)
	}
	if fe := table.ValidateField("secret", "x", nil); fe != nil {
		t.Fatalf("expected non-empty required field to pass, got %v", fe)
	}
}

func TestValidateField_Password(t *testing.T) {
	table := mustCompile(t, testFlow(CharsetAlnum))

	cases := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "boundary length 8", value: "abcdefg1", ok: true},
		{name: "one letter seven digits", value: "a1234567", ok: true},
		{name: "too short", value: "abc1234", ok: false},
		{name: "no digit", value: "abcdefgh", ok: false},
		{name: "no letter", value: "12345678", ok: false},
		{name: "symbol not allowed in alnum", value: "abc12345!", ok: false},
		{name: "long", value: "Abcdefgh12345678", ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fe := table.ValidateField("password", tc.value, nil)
			if tc.ok && fe != nil {
				t.Fatalf("expected pass, got %v", fe)
			}
			if !tc.ok && fe == nil {
				t.Fatalf("expected failure for %q", tc.value)
			}
		})
	}
}

func TestValidateField_PasswordCharsets(t *testing.T) {
	symbols := mustCompile(t, testFlow(CharsetAlnumSymbols))
	if fe := symbols.ValidateField("password", "abc123!@#", nil); fe != nil {
		t.Fatalf("expected symbols to be accepted, got %v", fe)
	}
	if fe := symbols.ValidateField("password", "abc123 ~~", nil); fe == nil {
		t.Fatalf("expected space and tilde to be rejected")
	}

	anything := mustCompile(t, testFlow(CharsetAny))
	if fe := anything.ValidateField("password", "abc123 ~~", nil); fe != nil {
		t.Fatalf("expected any charset to accept, got %v", fe)
	}

	extra := mustCompile(t, testFlow("extra:~"))
	if fe := extra.ValidateField("password", "abc123~~", nil); fe != nil {
		t.Fatalf("expected extra charset to accept tilde, got %v", fe)
	}
	if fe := extra.ValidateField("password", "abc123!!", nil); fe == nil {
		t.Fatalf("expected extra charset to reject bang")
	}
}

func TestValidateField_PasswordExhaustiveShort(t *testing.T) {
	table := mustCompile(t, testFlow(CharsetAny))
	for n := 0; n < MinPasswordLength; n++ {
		value := strings.Repeat("a1", 8)[:n]
		if fe := table.ValidateField("password", value, nil); fe == nil {
			t.Fatalf("expected length %d to fail", n)
		}
	}
}

func TestValidateField_Confirm(t *testing.T) {
	table := mustCompile(t, testFlow(""))

	pairs := []struct {
		password string
		confirm  string
	}{
		{"", ""},
		{"abc12345", "abc12345"},
		{"abc12345", "abc12346"},
		{"abc12345", ""},
		{"", "abc12345"},
		{"Abc12345", "abc12345"},
	}
	for _, pair := range pairs {
		form := model.FormState{"password": pair.password, "confirmPassword": pair.confirm}
		fe := table.ValidateField("confirmPassword", pair.confirm, form)
		equal := pair.password == pair.confirm
		if equal && fe != nil {
			t.Fatalf("expected %q/%q to pass, got %v", pair.password, pair.confirm, fe)
		}
		if !equal && fe == nil {
			t.Fatalf("expected %q/%q to fail", pair.password, pair.confirm)
		}
		if !equal && fe.Key != i18n.KeyConfirmMismatch {
			t.Fatalf("expected mismatch key, got %q", fe.Key)
		}
	}
}

func TestValidateField_RegistrationFields(t *testing.T) {
	table := mustCompile(t, testFlow(""))

	cases := []struct {
		field string
		value string
		ok    bool
	}{
		{"uscc", "12345678901234567A", true},
		{"uscc", "12345678901234567AB", false},
		{"uscc", "12345678901234567a", false},
		{"uscc", "1234567890123456", false},
		{"username", "abcd", true},
		{"username", "user_name_2024", true},
		{"username", "abc", false},
		{"username", "abcdefghijklmnopqrstu", false},
		{"username", "bad-name", false},
		{"permitNo", "", true},
		{"permitNo", "   ", false},
		{"permitNo", "AB-1234567", true},
		{"permitNo", "ab-1234567", false},
		{"permitNo", "AB-123", false},
		{"companyName", "危司", true},
		{"companyName", "危", false},
		{"companyName", strings.Repeat("厂", 60), true},
		{"companyName", strings.Repeat("厂", 61), false},
		{"code", "123456", true},
		{"code", "12345", false},
		{"code", "12345a", false},
	}
	for _, tc := range cases {
		fe := table.ValidateField(tc.field, tc.value, nil)
		if tc.ok && fe != nil {
			t.Fatalf("%s=%q: expected pass, got %v", tc.field, tc.value, fe)
		}
		if !tc.ok && fe == nil {
			t.Fatalf("%s=%q: expected failure", tc.field, tc.value)
		}
	}
}

func TestValidateField_USCCTrimmedPasses(t *testing.T) {
	table := mustCompile(t, testFlow(""))

	long := "12345678901234567A"
	if len(long) != 18 {
		t.Fatalf("fixture length %d", len(long))
	}
	if fe := table.ValidateField("uscc", long+"B", nil); fe == nil {
		t.Fatalf("expected 19 characters to fail")
	}
	if fe := table.ValidateField("uscc", long, nil); fe != nil {
		t.Fatalf("expected 18 characters to pass, got %v", fe)
	}
}

func TestValidateField_UnknownFieldPasses(t *testing.T) {
	table := mustCompile(t, testFlow(""))
	if fe := table.ValidateField("nickname", "", nil); fe != nil {
		t.Fatalf("expected unknown field to pass, got %v", fe)
	}
}

func TestValidateFields_ReturnsAllViolations(t *testing.T) {
	table := mustCompile(t, testFlow(""))
	form := model.FormState{
		"phone":           "123",
		"password":        "short",
		"confirmPassword": "other",
	}

	got := table.ValidateFields([]string{"phone", "code", "password", "confirmPassword"}, form)
	want := model.ErrorMap{
		"phone":           "Enter a valid mobile phone number",
		"code":            "This field is required",
		"password":        "At least 8 characters, including letters and digits",
		"confirmPassword": "The passwords do not match",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name   string
		fields []model.FieldSpec
		expect string
	}{
		{
			name:   "unknown rule",
			fields: []model.FieldSpec{{Name: "x", Rule: "nope"}},
			expect: "unknown rule",
		},
		{
			name:   "confirm without target",
			fields: []model.FieldSpec{{Name: "x", Rule: model.RuleKindConfirm}},
			expect: "requires",
		},
		{
			name: "confirm target missing",
			fields: []model.FieldSpec{
				{Name: "x", Rule: model.RuleKindConfirm, Params: map[string]string{"of": "password"}},
			},
			expect: "not declared",
		},
		{
			name: "duplicate field",
			fields: []model.FieldSpec{
				{Name: "x", Rule: model.RuleKindPhone},
				{Name: "x", Rule: model.RuleKindPhone},
			},
			expect: "twice",
		},
		{
			name:   "bad code length",
			fields: []model.FieldSpec{{Name: "x", Rule: model.RuleKindCode, Params: map[string]string{"length": "zero"}}},
			expect: "invalid code length",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(model.FlowDefinition{ID: "bad", Fields: tc.fields})
			if err == nil {
				t.Fatalf("expected compile error")
			}
			if !strings.Contains(err.Error(), tc.expect) {
				t.Fatalf("expected error containing %q, got %v", tc.expect, err)
			}
		})
	}

	if _, err := Compile(model.FlowDefinition{
		ID:              "bad-charset",
		PasswordCharset: "klingon",
		Fields:          []model.FieldSpec{{Name: "p", Rule: model.RuleKindPassword}},
	}); err == nil {
		t.Fatalf("expected unknown charset to fail")
	}
}

func TestRegistry_CustomRule(t *testing.T) {
	reg := NewRegistry()
	reg.Register("even-length", func(model.FieldSpec, model.FlowDefinition) (Rule, error) {
		return Rule{
			Key: "validation.even",
			Check: func(value string, _ model.FormState) bool {
				return len(value)%2 == 0
			},
		}, nil
	})

	table, err := reg.Compile(model.FlowDefinition{
		ID:     "custom",
		Fields: []model.FieldSpec{{Name: "token", Rule: "even-length"}},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	fe := table.ValidateField("token", "abc", nil)
	if fe == nil {
		t.Fatalf("expected odd length to fail")
	}
	if fe.Message != "validation.even" {
		t.Fatalf("expected key echo for unknown message, got %q", fe.Message)
	}

	kinds := reg.Kinds()
	if kinds[len(kinds)-1] != "even-length" {
		t.Fatalf("expected custom kind last, got %v", kinds)
	}
}

func TestRegistry_ReplaceKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	before := reg.Kinds()
	reg.Register(model.RuleKindPhone, patternFactory(usccPattern, i18n.KeyPhoneInvalid))
	after := reg.Kinds()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("kinds changed order (-before +after):\n%s", diff)
	}
}

func TestFieldSpec_MessageOverride(t *testing.T) {
	flow := testFlow("")
	flow.Fields[0].Message = i18n.KeyCodeRejected
	table := mustCompile(t, flow)

	fe := table.ValidateField("phone", "123", nil)
	if fe == nil || fe.Key != i18n.KeyCodeRejected {
		t.Fatalf("expected overridden key, got %v", fe)
	}
}
