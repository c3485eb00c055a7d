package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/goliatone/go-authflow/pkg/errmap"
	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/notify"
	"github.com/goliatone/go-authflow/pkg/rules"
)

// ActionKind identifies an asynchronous action for mutual exclusion.
type ActionKind string

const (
	ActionSendCode ActionKind = "send-code"
	ActionSubmit   ActionKind = "submit"
)

// Status is the lifecycle of an asynchronous action.
type Status int

const (
	StatusIdle Status = iota
	StatusInFlight
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusInFlight:
		return "in-flight"
	case StatusSettled:
		return "settled"
	default:
		return "idle"
	}
}

const defaultPhoneField = "phone"

// Engine drives one instance of a flow. It is safe for concurrent use.
// Collaborators are called without internal locks held, so field edits are
// accepted while an action is in flight.
type Engine struct {
	id              string
	flow            model.FlowDefinition
	table           *rules.Table
	registry        *rules.Registry
	collab          Collaborators
	logger          *zap.Logger
	clock           clock.WithTicker
	notifier        notify.Notifier
	observer        Observer
	localizer       i18n.Localizer
	onComplete      func()
	cooldownSeconds int
	completionDelay time.Duration
	phoneField      string

	mu        sync.Mutex
	form      model.FormState
	errors    model.ErrorMap
	step      int
	completed bool
	closed    bool
	cooldown  int
	ticking   bool
	status    map[ActionKind]Status

	done         chan struct{}
	wg           sync.WaitGroup
	completeOnce sync.Once
}

// New builds an engine for flow. The flow rules are compiled up front and
// every step action must have a matching collaborator.
func New(flow model.FlowDefinition, collab Collaborators, options ...Option) (*Engine, error) {
	if flow.StepCount() == 0 {
		return nil, fmt.Errorf("engine: flow %q has no steps", flow.ID)
	}
	e := &Engine{
		id:              uuid.NewString(),
		flow:            flow,
		collab:          collab,
		logger:          zap.NewNop(),
		clock:           clock.RealClock{},
		notifier:        notify.Nop,
		observer:        nopObserver{},
		localizer:       i18n.NewLocalizer(i18n.DefaultLocale),
		cooldownSeconds: DefaultCooldownSeconds,
		form:            make(model.FormState),
		errors:          make(model.ErrorMap),
		status:          make(map[ActionKind]Status),
		done:            make(chan struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	var (
		table *rules.Table
		err   error
	)
	if e.registry != nil {
		table, err = e.registry.Compile(flow)
	} else {
		table, err = rules.Compile(flow)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: compile flow %q: %w", flow.ID, err)
	}
	if err := collab.check(flow); err != nil {
		return nil, err
	}

	e.table = table.WithLocalizer(e.localizer)
	e.notifier = notify.Sanitized(e.notifier)
	e.phoneField = fieldByRule(flow, nil, model.RuleKindPhone, defaultPhoneField)
	e.logger = e.logger.With(zap.String("engine", e.id), zap.String("flow", flow.ID))
	e.logger.Debug("engine created", zap.Int("steps", flow.StepCount()))
	return e, nil
}

// ID returns the engine id used in log entries.
func (e *Engine) ID() string {
	return e.id
}

// Flow returns the flow definition driven by the engine.
func (e *Engine) Flow() model.FlowDefinition {
	return e.flow
}

// ValidateField applies the rule registered for name to value.
func (e *Engine) ValidateField(name, value string, form model.FormState) *rules.FieldError {
	return e.table.ValidateField(name, value, form)
}

// ValidateStep validates exactly the fields of step against form and returns
// every violation. It panics when step is out of range.
func (e *Engine) ValidateStep(step int, form model.FormState) model.ErrorMap {
	def := e.stepDefinition(step)
	return e.table.ValidateFields(def.Fields, form)
}

// IsFinalStep reports whether the current step is the last one.
func (e *Engine) IsFinalStep() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.completed && e.step == e.flow.StepCount()-1
}

// AdvanceStep computes the transition out of the current step without
// applying it: next is the following index, or the step count together with
// completed=true when the current step is the final one.
func (e *Engine) AdvanceStep() (next int, completed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.completed {
		return e.flow.StepCount(), true
	}
	return nextStep(e.step, e.flow.StepCount())
}

func nextStep(step, count int) (int, bool) {
	if step+1 >= count {
		return count, true
	}
	return step + 1, false
}

// SetField stores value in the form state. Edits never trigger validation.
func (e *Engine) SetField(name, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.form[name] = value
	return nil
}

// SetFields stores several values at once.
func (e *Engine) SetFields(values model.FormState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	for k, v := range values {
		e.form[k] = v
	}
	return nil
}

// Form returns a copy of the form state.
func (e *Engine) Form() model.FormState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Clone()
}

// Errors returns a copy of the active field errors.
func (e *Engine) Errors() model.ErrorMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errors.Clone()
}

// Step returns the current step index. After completion it equals the step
// count.
func (e *Engine) Step() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.completed {
		return e.flow.StepCount()
	}
	return e.step
}

// Completed reports whether the final step succeeded.
func (e *Engine) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completed
}

// Cooldown returns the remaining verification code cooldown in seconds.
func (e *Engine) Cooldown() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cooldown
}

// Status returns the status of an action kind.
func (e *Engine) Status(kind ActionKind) Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status[kind]
}

// CanSendCode reports whether RequestVerificationCode would reach the sender
// for a well-formed phone.
func (e *Engine) CanSendCode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && e.collab.Sender != nil && e.cooldown == 0 && e.status[ActionSendCode] != StatusInFlight
}

// RequestVerificationCode asks the sender to deliver a code to phone. A
// malformed phone is reported on the phone field without contacting the
// sender; so is any request made while a send is in flight or the cooldown is
// running. A successful send starts the cooldown and clears the phone error.
func (e *Engine) RequestVerificationCode(ctx context.Context, phone string) Result {
	e.mu.Lock()
	if res, rejected := e.guardLocked(ActionSendCode); rejected {
		e.mu.Unlock()
		e.observer.CodeRequested(e.flow.ID, res.Outcome)
		return res
	}
	if e.collab.Sender == nil {
		step := e.step
		e.mu.Unlock()
		return Result{Outcome: OutcomeRejected, Step: step, Err: fmt.Errorf("%w: code sender", ErrMissingCollaborator)}
	}
	if msg := e.phoneViolation(phone); msg != "" {
		e.errors[e.phoneField] = msg
		res := Result{Outcome: OutcomeInvalid, Step: e.step, Errors: model.ErrorMap{e.phoneField: msg}}
		e.mu.Unlock()
		e.observer.CodeRequested(e.flow.ID, res.Outcome)
		return res
	}
	if e.cooldown > 0 {
		res := Result{Outcome: OutcomeRejected, Step: e.step, Err: ErrCooldownActive}
		remaining := e.cooldown
		e.mu.Unlock()
		e.logger.Debug("code request rejected", zap.Int("cooldown", remaining))
		e.observer.CodeRequested(e.flow.ID, res.Outcome)
		return res
	}
	e.status[ActionSendCode] = StatusInFlight
	e.mu.Unlock()

	err := e.call(ActionSendCode, func() error {
		return e.collab.Sender.SendVerificationCode(ctx, phone)
	})

	e.mu.Lock()
	e.status[ActionSendCode] = StatusSettled
	if e.closed {
		e.mu.Unlock()
		return Result{Outcome: OutcomeRejected, Err: ErrClosed}
	}
	step := e.step
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn("send verification code failed", zap.Error(err))
		e.notifier.Notify(notify.KindError, e.localizer.Message(i18n.KeyCodeSendFailed))
		e.observer.CodeRequested(e.flow.ID, OutcomeFailed)
		return Result{Outcome: OutcomeFailed, Step: step, Err: err}
	}
	delete(e.errors, e.phoneField)
	e.startCooldownLocked()
	e.mu.Unlock()

	e.logger.Info("verification code sent", zap.Int("cooldown", e.cooldownSeconds))
	e.notifier.Notify(notify.KindSuccess, e.localizer.Message(i18n.KeyCodeSent))
	e.observer.CodeRequested(e.flow.ID, OutcomeSent)
	return Result{Outcome: OutcomeSent, Step: step}
}

// SubmitStep validates the current form state for step and, when it passes,
// performs the step action. Violations replace the error map and no
// collaborator is called. A successful action advances the engine or, on the
// final step, completes the flow. Collaborator failures are attributed to a
// field (the step's error field by default) or notified. SubmitStep panics
// when step is out of range and rejects any step other than the current one.
func (e *Engine) SubmitStep(ctx context.Context, step int) Result {
	def := e.stepDefinition(step)

	e.mu.Lock()
	if res, rejected := e.guardLocked(ActionSubmit); rejected {
		e.mu.Unlock()
		e.observer.StepSubmitted(e.flow.ID, def.Name, res.Outcome)
		return res
	}
	if e.completed {
		e.mu.Unlock()
		return Result{Outcome: OutcomeRejected, Step: e.flow.StepCount(), Err: ErrCompleted}
	}
	if step != e.step {
		current := e.step
		e.mu.Unlock()
		return Result{Outcome: OutcomeRejected, Step: current, Err: fmt.Errorf("%w: submitted %d, current %d", ErrStepMismatch, step, current)}
	}
	form := e.form.Clone()
	violations := e.table.ValidateFields(def.Fields, form)
	if !violations.Empty() {
		e.errors = violations.Clone()
		e.mu.Unlock()
		e.logger.Debug("step validation failed", zap.String("step", def.Name), zap.Strings("fields", violations.Fields()))
		e.observer.StepSubmitted(e.flow.ID, def.Name, OutcomeInvalid)
		return Result{Outcome: OutcomeInvalid, Step: step, Errors: violations}
	}
	e.status[ActionSubmit] = StatusInFlight
	e.mu.Unlock()

	err := e.call(ActionSubmit, func() error {
		return e.perform(ctx, def, form)
	})

	e.mu.Lock()
	e.status[ActionSubmit] = StatusSettled
	if e.closed {
		e.mu.Unlock()
		return Result{Outcome: OutcomeRejected, Err: ErrClosed}
	}
	if err != nil {
		attributed := errmap.Attribute(err, e.fieldNames(), def.ErrorField, failureKey(def.Action))
		fieldErrors := make(model.ErrorMap, len(attributed.Fields))
		for field, msg := range attributed.Fields {
			fieldErrors[field] = notify.Sanitize(e.localizer.Message(msg))
		}
		e.errors = fieldErrors.Clone()
		e.mu.Unlock()

		e.logger.Warn("step action failed", zap.String("step", def.Name), zap.String("action", def.Action), zap.Error(err))
		for _, msg := range attributed.Form {
			e.notifier.Notify(notify.KindError, e.localizer.Message(msg))
		}
		e.observer.StepSubmitted(e.flow.ID, def.Name, OutcomeFailed)
		return Result{Outcome: OutcomeFailed, Step: step, Errors: fieldErrors, Err: err}
	}

	e.errors = make(model.ErrorMap)
	next, completed := nextStep(step, e.flow.StepCount())
	if completed {
		e.completed = true
	} else {
		e.step = next
	}
	e.mu.Unlock()

	if key := successKey(def.Action); key != "" {
		e.notifier.Notify(notify.KindSuccess, e.localizer.Message(key))
	}
	if !completed {
		e.logger.Info("step advanced", zap.String("step", def.Name), zap.Int("next", next))
		e.observer.StepSubmitted(e.flow.ID, def.Name, OutcomeAdvanced)
		return Result{Outcome: OutcomeAdvanced, Step: next}
	}

	e.logger.Info("flow completed", zap.String("step", def.Name))
	e.observer.StepSubmitted(e.flow.ID, def.Name, OutcomeCompleted)
	e.observer.FlowCompleted(e.flow.ID)
	e.scheduleCompletion()
	return Result{Outcome: OutcomeCompleted, Step: next}
}

// Close tears the engine down: the cooldown ticker and any pending completion
// callback are stopped and Close waits for them to exit. No state changes are
// observable after Close returns. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Debug("engine closed")
	return nil
}

// guardLocked rejects calls on a closed engine and calls whose action kind is
// already in flight.
func (e *Engine) guardLocked(kind ActionKind) (Result, bool) {
	if e.closed {
		return Result{Outcome: OutcomeRejected, Step: e.step, Err: ErrClosed}, true
	}
	if e.status[kind] == StatusInFlight {
		e.logger.Debug("action already in flight", zap.String("action", string(kind)))
		return Result{Outcome: OutcomeRejected, Step: e.step, Err: ErrInFlight}, true
	}
	return Result{}, false
}

// call runs fn without the lock held. When fn panics the in-flight flag is
// cleared before the panic propagates.
func (e *Engine) call(kind ActionKind, fn func() error) error {
	settled := false
	defer func() {
		if !settled {
			e.mu.Lock()
			e.status[kind] = StatusSettled
			e.mu.Unlock()
		}
	}()
	err := fn()
	settled = true
	return err
}

func (e *Engine) perform(ctx context.Context, step model.StepDefinition, form model.FormState) error {
	switch step.Action {
	case model.ActionAdvance:
		return nil
	case model.ActionVerifyCode:
		codeField := fieldByRule(e.flow, step.Fields, model.RuleKindCode, step.ErrorField)
		ok, err := e.collab.Verifier.VerifyCode(ctx, form.Get(e.phoneField), form.Get(codeField))
		if err != nil {
			return err
		}
		if !ok {
			return errmap.FieldError(codeField, i18n.KeyCodeRejected, ErrCodeRejected)
		}
		return nil
	case model.ActionSubmitRegistration:
		return e.collab.Registration.SubmitRegistration(ctx, form)
	case model.ActionSubmitPasswordReset:
		return e.collab.PasswordReset.SubmitPasswordReset(ctx, form)
	case model.ActionLogin:
		return e.collab.Auth.Login(ctx, form.Get(e.phoneField), form.Get(secretField(e.flow, step.Fields)))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, step.Action)
	}
}

func (e *Engine) stepDefinition(step int) model.StepDefinition {
	if step < 0 || step >= e.flow.StepCount() {
		panic(stepOutOfRange(step, e.flow.StepCount()))
	}
	return e.flow.Steps[step]
}

func (e *Engine) phoneViolation(phone string) string {
	if e.table.Has(e.phoneField) {
		if fe := e.table.ValidateField(e.phoneField, phone, e.form); fe != nil {
			return fe.Message
		}
		return ""
	}
	if !rules.IsPhone(phone) {
		return e.localizer.Message(i18n.KeyPhoneInvalid)
	}
	return ""
}

func (e *Engine) fieldNames() []string {
	out := make([]string, 0, len(e.flow.Fields))
	for _, field := range e.flow.Fields {
		out = append(out, field.Name)
	}
	return out
}

// fieldByRule returns the first field using kind, searching names first and
// then every field of flow.
func fieldByRule(flow model.FlowDefinition, names []string, kind, fallback string) string {
	for _, name := range names {
		if spec, ok := flow.Field(name); ok && spec.Rule == kind {
			return name
		}
	}
	for _, spec := range flow.Fields {
		if spec.Rule == kind {
			return spec.Name
		}
	}
	return fallback
}

func secretField(flow model.FlowDefinition, names []string) string {
	for _, name := range names {
		if spec, ok := flow.Field(name); ok && (spec.Secret || spec.Rule == model.RuleKindPassword) {
			return name
		}
	}
	return "password"
}

func failureKey(action string) string {
	switch action {
	case model.ActionVerifyCode:
		return i18n.KeyCodeRejected
	case model.ActionSubmitPasswordReset:
		return i18n.KeyResetFailed
	case model.ActionSubmitRegistration:
		return i18n.KeyRegisterFailed
	case model.ActionLogin:
		return i18n.KeyLoginFailed
	default:
		return i18n.KeyOperationError
	}
}

func successKey(action string) string {
	switch action {
	case model.ActionVerifyCode:
		return i18n.KeyCodeVerified
	case model.ActionSubmitPasswordReset:
		return i18n.KeyResetSuccess
	case model.ActionSubmitRegistration:
		return i18n.KeyRegisterOK
	case model.ActionLogin:
		return i18n.KeyLoginOK
	default:
		return ""
	}
}
