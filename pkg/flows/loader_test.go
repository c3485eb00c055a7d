package flows_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-authflow/pkg/flows"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/rules"
)

func TestDefault_EmbeddedFlows(t *testing.T) {
	store, err := flows.Default()
	if err != nil {
		t.Fatalf("load default flows: %v", err)
	}

	if diff := cmp.Diff([]string{"login", "register", "reset-password"}, store.IDs()); diff != "" {
		t.Fatalf("flow ids mismatch (-want +got):\n%s", diff)
	}

	reset, ok := store.Flow(flows.FlowResetPassword)
	if !ok {
		t.Fatalf("reset-password flow missing")
	}
	if reset.StepCount() != 2 {
		t.Fatalf("expected 2 reset steps, got %d", reset.StepCount())
	}
	if got := reset.Steps[0].Action; got != model.ActionVerifyCode {
		t.Fatalf("expected first reset action verify-code, got %q", got)
	}
	if got := reset.Steps[0].ErrorField; got != "verifyCode" {
		t.Fatalf("expected verifyCode error field, got %q", got)
	}
	if reset.PasswordCharset != rules.CharsetAny {
		t.Fatalf("expected reset charset %q, got %q", rules.CharsetAny, reset.PasswordCharset)
	}
	resetRules, err := rules.Compile(reset)
	if err != nil {
		t.Fatalf("compile reset: %v", err)
	}
	if fe := resetRules.ValidateField("newPassword", "abc12345!", nil); fe != nil {
		t.Fatalf("expected reset to accept punctuation, got %v", fe)
	}

	register, ok := store.Flow(flows.FlowRegister)
	if !ok {
		t.Fatalf("register flow missing")
	}
	var names []string
	for _, step := range register.Steps {
		names = append(names, step.Name)
	}
	if diff := cmp.Diff([]string{"basic", "contact", "company"}, names); diff != "" {
		t.Fatalf("register steps mismatch (-want +got):\n%s", diff)
	}
	if contact := register.Steps[1]; contact.Action != model.ActionVerifyCode || contact.ErrorField != "smsCode" {
		t.Fatalf("expected contact step to verify smsCode, got %#v", contact)
	}
	permit, ok := register.Field("permitNo")
	if !ok || !permit.Optional {
		t.Fatalf("expected optional permitNo field, got %#v", permit)
	}
	if register.PasswordCharset != rules.CharsetAlnumSymbols {
		t.Fatalf("expected registration charset %q, got %q", rules.CharsetAlnumSymbols, register.PasswordCharset)
	}

	login, ok := store.Flow(flows.FlowLogin)
	if !ok {
		t.Fatalf("login flow missing")
	}
	if login.Source != "login.json" {
		t.Fatalf("expected source login.json, got %q", login.Source)
	}
}

func TestStore_Resolve(t *testing.T) {
	store, err := flows.Default()
	if err != nil {
		t.Fatalf("load default flows: %v", err)
	}

	cases := []struct {
		path   string
		expect string
	}{
		{"/", "login"},
		{"", "login"},
		{"/login", "login"},
		{"/LOGIN", "login"},
		{"/register", "register"},
		{"/register/step-2", "register"},
		{"/reset-password?from=login", "reset-password"},
		{"/unknown", "login"},
		{"/registered", "login"},
	}
	for _, tc := range cases {
		flow, ok := store.Resolve(tc.path)
		if !ok {
			t.Fatalf("%q: expected a flow", tc.path)
		}
		if flow.ID != tc.expect {
			t.Fatalf("%q: expected %s, got %s", tc.path, tc.expect, flow.ID)
		}
	}
}

func TestLoadFS_YAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"custom/verify.yml": {Data: []byte(`
id: verify-only
route: /verify
fields:
  - name: phone
    rule: phone
  - name: code
    rule: code
    params:
      length: "4"
steps:
  - name: verify
    fields: [phone, code]
    action: verify-code
    errorField: code
`)},
		"notes.txt": {Data: []byte("ignored")},
	}

	store, err := flows.LoadFS(fsys, flows.WithFallbackFlow("verify-only"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	flow, ok := store.Resolve("/nowhere")
	if !ok || flow.ID != "verify-only" {
		t.Fatalf("expected fallback flow, got %#v (ok=%v)", flow.ID, ok)
	}

	table, err := rules.Compile(flow)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if fe := table.ValidateField("code", "1234", nil); fe != nil {
		t.Fatalf("expected 4-digit code to pass, got %v", fe)
	}
}

func TestLoadFS_ValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		expect string
	}{
		{
			name:   "empty file",
			body:   "  ",
			expect: "is empty",
		},
		{
			name: "missing steps",
			body: `{"id":"x","fields":[{"name":"phone","rule":"phone"}]}`,
			expect: "Steps",
		},
		{
			name: "undeclared step field",
			body: `{"id":"x","fields":[{"name":"phone","rule":"phone"}],
				"steps":[{"name":"s","fields":["phone","code"],"action":"advance"}]}`,
			expect: `field "code" is not declared`,
		},
		{
			name: "undeclared error field",
			body: `{"id":"x","fields":[{"name":"phone","rule":"phone"}],
				"steps":[{"name":"s","fields":["phone"],"action":"advance","errorField":"code"}]}`,
			expect: `error field "code"`,
		},
		{
			name: "duplicate step",
			body: `{"id":"x","fields":[{"name":"phone","rule":"phone"}],
				"steps":[{"name":"s","fields":["phone"],"action":"advance"},{"name":"s","fields":["phone"],"action":"advance"}]}`,
			expect: "duplicate step",
		},
		{
			name: "unknown rule",
			body: `{"id":"x","fields":[{"name":"phone","rule":"telepathy"}],
				"steps":[{"name":"s","fields":["phone"],"action":"advance"}]}`,
			expect: "unknown rule",
		},
		{
			name: "relative route",
			body: `{"id":"x","route":"login","fields":[{"name":"phone","rule":"phone"}],
				"steps":[{"name":"s","fields":["phone"],"action":"advance"}]}`,
			expect: "must start with /",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := flows.LoadFS(fstest.MapFS{"flow.json": {Data: []byte(tc.body)}})
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.expect) {
				t.Fatalf("expected error containing %q, got %v", tc.expect, err)
			}
		})
	}
}

func TestLoadFS_Duplicates(t *testing.T) {
	body := []byte(`{"id":"x","fields":[{"name":"phone","rule":"phone"}],"steps":[{"name":"s","fields":["phone"],"action":"advance"}]}`)
	fsys := fstest.MapFS{
		"a.json": {Data: body},
		"b.json": {Data: body},
	}

	if _, err := flows.LoadFS(fsys); err == nil || !strings.Contains(err.Error(), "duplicate flow") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	store, err := flows.LoadFS(fsys, flows.WithOverrides())
	if err != nil {
		t.Fatalf("expected overrides to succeed: %v", err)
	}
	flow, _ := store.Flow("x")
	if flow.Source != "b.json" {
		t.Fatalf("expected later file to win, got %q", flow.Source)
	}
}

func TestStore_MustFlow(t *testing.T) {
	store, err := flows.LoadFS(nil)
	if err != nil {
		t.Fatalf("load nil fs: %v", err)
	}
	if !store.Empty() {
		t.Fatalf("expected empty store")
	}
	if _, err := store.MustFlow("missing"); !errors.Is(err, flows.ErrUnknownFlow) {
		t.Fatalf("expected ErrUnknownFlow, got %v", err)
	}
}
