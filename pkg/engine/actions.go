package engine

import (
	"context"
	"fmt"

	"github.com/goliatone/go-authflow/pkg/model"
)

// CodeSender delivers a verification code to phone.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, phone string) error
}

// CodeVerifier checks a verification code previously sent to phone.
type CodeVerifier interface {
	VerifyCode(ctx context.Context, phone, code string) (bool, error)
}

// RegistrationSubmitter receives the completed registration form.
type RegistrationSubmitter interface {
	SubmitRegistration(ctx context.Context, form model.FormState) error
}

// PasswordResetSubmitter receives the completed password reset form.
type PasswordResetSubmitter interface {
	SubmitPasswordReset(ctx context.Context, form model.FormState) error
}

// Authenticator checks login credentials.
type Authenticator interface {
	Login(ctx context.Context, phone, password string) error
}

// Collaborators groups the external operations an engine may call. Only the
// collaborators needed by the flow's step actions are required; Sender is
// required when the flow declares a verification code field.
type Collaborators struct {
	Sender        CodeSender
	Verifier      CodeVerifier
	Registration  RegistrationSubmitter
	PasswordReset PasswordResetSubmitter
	Auth          Authenticator
}

// check verifies every step action of flow can be performed.
func (c Collaborators) check(flow model.FlowDefinition) error {
	for _, step := range flow.Steps {
		var missing bool
		switch step.Action {
		case model.ActionAdvance:
		case model.ActionVerifyCode:
			missing = c.Verifier == nil
		case model.ActionSubmitRegistration:
			missing = c.Registration == nil
		case model.ActionSubmitPasswordReset:
			missing = c.PasswordReset == nil
		case model.ActionLogin:
			missing = c.Auth == nil
		default:
			return fmt.Errorf("%w: step %q uses %q", ErrUnknownAction, step.Name, step.Action)
		}
		if missing {
			return fmt.Errorf("%w: step %q action %q", ErrMissingCollaborator, step.Name, step.Action)
		}
	}
	for _, field := range flow.Fields {
		if field.Rule == model.RuleKindCode && c.Sender == nil {
			return fmt.Errorf("%w: flow %q declares code field %q without a code sender", ErrMissingCollaborator, flow.ID, field.Name)
		}
	}
	return nil
}
