package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authflow/pkg/backend"
	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/prompt"
)

type scriptedDriver struct {
	inputs    []string
	passwords []string
	confirm   []bool
	selectIdx []int
	info      []string
}

func (s *scriptedDriver) Input(context.Context, prompt.InputConfig) (string, error) {
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	return val, nil
}

func (s *scriptedDriver) Password(context.Context, prompt.InputConfig) (string, error) {
	if len(s.passwords) == 0 {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[0]
	s.passwords = s.passwords[1:]
	return val, nil
}

func (s *scriptedDriver) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) {
	if len(s.confirm) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[0]
	s.confirm = s.confirm[1:]
	return val, nil
}

func (s *scriptedDriver) Select(context.Context, prompt.SelectConfig) (int, error) {
	if len(s.selectIdx) == 0 {
		return -1, prompt.ErrAborted
	}
	val := s.selectIdx[0]
	s.selectIdx = s.selectIdx[1:]
	return val, nil
}

func (s *scriptedDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

const testConfig = `
locale: en
log:
  level: error
completion_delay: 0s
backend:
  send_delay: 0s
  verify_delay: 0s
  submit_delay: 0s
  deactivate_delay: 0s
  fixed_code: "246810"
  demo_phone: "13800138000"
  demo_password: oldpass123
`

var en = i18n.NewLocalizer(i18n.LocaleEn)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func useDriver(t *testing.T, d prompt.PromptDriver) {
	t.Helper()
	prev := promptDriver
	promptDriver = d
	t.Cleanup(func() { promptDriver = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", writeConfig(t), "--env-file", ""}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand_ResetPasswordWithMetrics(t *testing.T) {
	driver := &scriptedDriver{
		inputs:    []string{"13800138000", "246810"},
		passwords: []string{"newpass123", "newpass123"},
		confirm:   []bool{true},
	}
	useDriver(t, driver)

	out, err := execute(t, "run", "reset-password", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, driver.info, "✓ "+en.Message(i18n.KeyCodeSent))
	assert.Contains(t, driver.info, "✓ "+en.Message(i18n.KeyResetSuccess))
	assert.Contains(t, out, `authflow_code_requests_total{flow="reset-password",outcome="sent"} 1`)
	assert.Contains(t, out, `authflow_step_submissions_total{flow="reset-password",outcome="completed",step="new-password"} 1`)
	assert.Contains(t, out, `authflow_flow_completions_total{flow="reset-password"} 1`)
}

func TestRunCommand_RouteLoginRetry(t *testing.T) {
	driver := &scriptedDriver{
		inputs:    []string{"13800138000", "13800138000"},
		passwords: []string{"wrongpass1", "oldpass123"},
	}
	useDriver(t, driver)

	out, err := execute(t, "run", "/login?next=/home")
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Contains(t, driver.info, "✗ "+en.Message(i18n.KeyLoginFailed))
	assert.Contains(t, driver.info, "› "+en.Message(i18n.KeyPromptRetry))
	assert.Equal(t, "✓ "+en.Message(i18n.KeyLoginOK), driver.info[len(driver.info)-1])
}

func TestRunCommand_ChooseFlowAborted(t *testing.T) {
	useDriver(t, &scriptedDriver{})

	_, err := execute(t, "run")
	require.Error(t, err)
	assert.ErrorIs(t, err, prompt.ErrAborted)
}

func TestRunCommand_ChooseFlow(t *testing.T) {
	driver := &scriptedDriver{
		selectIdx: []int{0},
		inputs:    []string{"13800138000"},
		passwords: []string{"oldpass123"},
	}
	useDriver(t, driver)

	_, err := execute(t, "run")
	require.NoError(t, err)
	assert.Equal(t, "登录", driver.info[0])
}

func TestRunCommand_UnknownFlow(t *testing.T) {
	useDriver(t, &scriptedDriver{})

	_, err := execute(t, "run", "signup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flow")
}

func TestFlowsCommand(t *testing.T) {
	out, err := execute(t, "flows")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "/login")
	assert.Contains(t, lines[2], "basic → contact → company")
	assert.Contains(t, lines[3], "/reset-password")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "register", "uscc", "91350100M000100Y43")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)

	out, err = execute(t, "validate", "register", "phone", "1380013800")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, out, en.Message(i18n.KeyPhoneInvalid))

	out, err = execute(t, "validate", "reset-password", "confirmPassword", "abc12345", "--set", "newPassword=abc12346")
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, out, en.Message(i18n.KeyConfirmMismatch))

	_, err = execute(t, "validate", "login", "nickname", "x")
	assert.ErrorContains(t, err, `no field "nickname"`)
}

func TestStrengthCommand(t *testing.T) {
	out, err := execute(t, "strength", "Abc12345!xyz")
	require.NoError(t, err)
	assert.Equal(t, "strong (4/4)\n", out)

	out, err = execute(t, "strength", "abc", "--locale", "zh-CN")
	require.NoError(t, err)
	assert.Equal(t, "弱 (1/4)\n", out)
}

func TestRootCommand_InvalidConfig(t *testing.T) {
	_, err := execute(t, "flows", "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Level")
}

func TestLoadStore_FlowsDir(t *testing.T) {
	dir := t.TempDir()
	_, err := loadStore(dir)
	assert.ErrorContains(t, err, "no flow definitions")

	body := `{"id":"otp","route":"/otp","fields":[{"name":"phone","rule":"phone"}],"steps":[{"name":"s","fields":["phone"],"action":"advance"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "otp.json"), []byte(body), 0o600))
	store, err := loadStore(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"otp"}, store.IDs())
}

func TestDeactivateCommand(t *testing.T) {
	driver := &scriptedDriver{
		inputs:    []string{" 13800138000 "},
		passwords: []string{"oldpass123"},
		confirm:   []bool{true},
	}
	useDriver(t, driver)

	_, err := execute(t, "deactivate")
	require.NoError(t, err)
	assert.Equal(t, []string{"✓ " + en.Message(i18n.KeyDeactivateOK)}, driver.info)
}

func TestDeactivateCommand_WrongPassword(t *testing.T) {
	driver := &scriptedDriver{
		inputs:    []string{"13800138000"},
		passwords: []string{"wrongpass1"},
		confirm:   []bool{true},
	}
	useDriver(t, driver)

	_, err := execute(t, "deactivate")
	require.ErrorIs(t, err, backend.ErrInvalidCredentials)
	assert.Equal(t, []string{"✗ " + en.Message(i18n.KeyDeactivateFailed)}, driver.info)
}

func TestDeactivateCommand_Declined(t *testing.T) {
	driver := &scriptedDriver{
		inputs:    []string{"13800138000"},
		passwords: []string{"oldpass123"},
		confirm:   []bool{false},
	}
	useDriver(t, driver)

	_, err := execute(t, "deactivate")
	require.NoError(t, err)
	assert.Empty(t, driver.info)
	assert.Empty(t, driver.confirm)
}

func TestDeactivateCommand_InvalidPhone(t *testing.T) {
	driver := &scriptedDriver{inputs: []string{"12345"}}
	useDriver(t, driver)

	_, err := execute(t, "deactivate")
	require.ErrorIs(t, err, backend.ErrInvalidPhone)
	assert.Equal(t, []string{"✗ " + en.Message(i18n.KeyPhoneInvalid)}, driver.info)
}
