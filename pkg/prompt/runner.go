package prompt

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/goliatone/go-authflow/pkg/engine"
	"github.com/goliatone/go-authflow/pkg/flows"
	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/notify"
	"github.com/goliatone/go-authflow/pkg/rules"
)

// Runner drives an engine through a PromptDriver.
type Runner struct {
	engine      *engine.Engine
	driver      PromptDriver
	localizer   i18n.Localizer
	logger      *zap.Logger
	theme       Theme
	maxAttempts int
}

// NewRunner returns a runner for e. The survey driver is used unless
// WithPromptDriver is given.
func NewRunner(e *engine.Engine, options ...Option) *Runner {
	r := &Runner{
		engine:    e,
		localizer: i18n.NewLocalizer(i18n.DefaultLocale),
		logger:    zap.NewNop(),
		theme:     DefaultTheme,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	return r
}

// Notifier returns a notifier printing through driver with theme prefixes.
// Hosts pass it to the engine so notifications appear inline.
func Notifier(ctx context.Context, driver PromptDriver, theme Theme) notify.Notifier {
	return notify.Func(func(kind notify.Kind, message string) {
		prefix := theme.SuccessPrefix
		if kind == notify.KindError {
			prefix = theme.ErrorPrefix
		}
		_ = driver.Info(ctx, joinPrefix(prefix, message))
	})
}

// ChooseFlow lets the user pick one of the flows in store.
func ChooseFlow(ctx context.Context, driver PromptDriver, store *flows.Store, l i18n.Localizer) (model.FlowDefinition, error) {
	ids := store.IDs()
	options := make([]string, 0, len(ids))
	for _, id := range ids {
		flow, _ := store.Flow(id)
		label := id
		if flow.Title != "" {
			label = flow.Title + " (" + id + ")"
		}
		options = append(options, label)
	}
	idx, err := driver.Select(ctx, SelectConfig{Message: l.Message(i18n.KeyPromptChooseFlow), Options: options})
	if err != nil {
		return model.FlowDefinition{}, err
	}
	if idx < 0 || idx >= len(ids) {
		return model.FlowDefinition{}, fmt.Errorf("%w: selection %d", flows.ErrUnknownFlow, idx)
	}
	return store.MustFlow(ids[idx])
}

// Run prompts until the flow completes, the user aborts or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	flow := r.engine.Flow()
	if flow.Title != "" {
		if err := r.driver.Info(ctx, flow.Title); err != nil {
			return err
		}
	}

	var retry []string
	attempts := 0
	lastStep := -1
	for !r.engine.Completed() {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := r.engine.Step()
		def := flow.Steps[step]
		if step != lastStep {
			lastStep, attempts, retry = step, 0, nil
			header := r.localizer.Message(i18n.KeyPromptStep, step+1, flow.StepCount(), stepTitle(def))
			if err := r.driver.Info(ctx, joinPrefix(r.theme.InfoPrefix, header)); err != nil {
				return err
			}
		}

		fields := def.Fields
		if retry != nil {
			fields = retry
		}
		for _, name := range fields {
			if err := r.promptField(ctx, flow, name); err != nil {
				return err
			}
		}

		res := r.engine.SubmitStep(ctx, step)
		r.logger.Debug("step submitted", zap.String("step", def.Name), zap.String("outcome", string(res.Outcome)))
		switch res.Outcome {
		case engine.OutcomeAdvanced, engine.OutcomeCompleted:
			continue
		case engine.OutcomeRejected:
			return res.Err
		}

		attempts++
		if r.maxAttempts > 0 && attempts >= r.maxAttempts {
			return fmt.Errorf("%w: step %q", ErrTooManyAttempts, def.Name)
		}
		if err := r.printErrors(ctx, flow, res.Errors); err != nil {
			return err
		}
		retry = retryFields(flow, def, res.Errors)
	}
	return nil
}

func (r *Runner) promptField(ctx context.Context, flow model.FlowDefinition, name string) error {
	spec, _ := flow.Field(name)
	label := spec.Label
	if label == "" {
		label = name
	}

	if spec.Rule == model.RuleKindCode {
		if err := r.offerCode(ctx, flow); err != nil {
			return err
		}
	}

	current := r.engine.Form().Get(name)
	var (
		value string
		err   error
	)
	if spec.Secret {
		value, err = r.driver.Password(ctx, InputConfig{Message: label})
	} else {
		value, err = r.driver.Input(ctx, InputConfig{Message: label, Default: current})
	}
	if err != nil {
		return err
	}

	if spec.Rule == model.RuleKindCode {
		value = rules.NormalizeCode(value, codeLength(spec))
	}
	return r.engine.SetField(name, value)
}

func (r *Runner) offerCode(ctx context.Context, flow model.FlowDefinition) error {
	phone := r.engine.Form().Get(phoneField(flow))
	if !r.engine.CanSendCode() {
		if remaining := r.engine.Cooldown(); remaining > 0 {
			return r.driver.Info(ctx, joinPrefix(r.theme.InfoPrefix, r.localizer.Message(i18n.KeyPromptResendIn, remaining)))
		}
		return nil
	}
	send, err := r.driver.Confirm(ctx, ConfirmConfig{Message: r.localizer.Message(i18n.KeyPromptSendCode, phone), Default: true})
	if err != nil || !send {
		return err
	}
	res := r.engine.RequestVerificationCode(ctx, phone)
	if res.Outcome == engine.OutcomeInvalid {
		return r.printErrors(ctx, flow, res.Errors)
	}
	return nil
}

func (r *Runner) printErrors(ctx context.Context, flow model.FlowDefinition, errs model.ErrorMap) error {
	if errs.Empty() {
		return r.driver.Info(ctx, joinPrefix(r.theme.InfoPrefix, r.localizer.Message(i18n.KeyPromptRetry)))
	}
	for _, name := range errs.Fields() {
		label := name
		if spec, ok := flow.Field(name); ok && spec.Label != "" {
			label = spec.Label
		}
		if err := r.driver.Info(ctx, joinPrefix(r.theme.ErrorPrefix, label+": "+errs[name])); err != nil {
			return err
		}
	}
	return nil
}

// retryFields returns the fields to prompt again: the failing fields of the
// step in step order, then failing fields declared by earlier steps in flow
// order. It returns nil to prompt the whole step when no error names a
// field of the flow.
func retryFields(flow model.FlowDefinition, def model.StepDefinition, errs model.ErrorMap) []string {
	var out []string
	inStep := make(map[string]struct{}, len(def.Fields))
	for _, name := range def.Fields {
		inStep[name] = struct{}{}
		if _, failed := errs[name]; failed {
			out = append(out, name)
		}
	}
	for _, spec := range flow.Fields {
		if _, ok := inStep[spec.Name]; ok {
			continue
		}
		if _, failed := errs[spec.Name]; failed {
			out = append(out, spec.Name)
		}
	}
	return out
}

func stepTitle(def model.StepDefinition) string {
	if def.Title != "" {
		return def.Title
	}
	return def.Name
}

func phoneField(flow model.FlowDefinition) string {
	for _, spec := range flow.Fields {
		if spec.Rule == model.RuleKindPhone {
			return spec.Name
		}
	}
	return "phone"
}

func codeLength(spec model.FieldSpec) int {
	if n, err := strconv.Atoi(spec.Param(model.ParamLength)); err == nil && n > 0 {
		return n
	}
	return rules.DefaultCodeLength
}

func joinPrefix(prefix, msg string) string {
	if prefix == "" {
		return msg
	}
	return prefix + " " + msg
}
