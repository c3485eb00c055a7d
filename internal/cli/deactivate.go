package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-authflow/pkg/backend"
	"github.com/goliatone/go-authflow/pkg/errmap"
	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/notify"
	"github.com/goliatone/go-authflow/pkg/prompt"
	"github.com/goliatone/go-authflow/pkg/rules"
)

func newDeactivateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Delete an account from the simulated backend",
		Long: `Asks for the phone number and password of an account and, after a
confirmation, deletes it. Only the seeded demo account exists when the
command starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			driver := promptDriver
			if driver == nil {
				driver = prompt.NewSurveyDriver(cmd.OutOrStdout())
			}
			return a.deactivate(ctx, driver)
		},
	}
}

func (a *app) deactivate(ctx context.Context, driver prompt.PromptDriver) error {
	sim, err := a.newBackend()
	if err != nil {
		return err
	}
	notifier := notify.Sanitized(notify.Multi(
		prompt.Notifier(ctx, driver, prompt.DefaultTheme),
		notify.Log(a.logger.Named("notify")),
	))

	phone, err := driver.Input(ctx, prompt.InputConfig{Message: a.localizer.Message(i18n.KeyPromptPhone)})
	if err != nil {
		return a.swallowAbort(err)
	}
	phone = strings.TrimSpace(phone)
	if !rules.IsPhone(phone) {
		notifier.Notify(notify.KindError, a.localizer.Message(i18n.KeyPhoneInvalid))
		return fmt.Errorf("%w: %q", backend.ErrInvalidPhone, phone)
	}
	password, err := driver.Password(ctx, prompt.InputConfig{Message: a.localizer.Message(i18n.KeyPromptPassword)})
	if err != nil {
		return a.swallowAbort(err)
	}
	ok, err := driver.Confirm(ctx, prompt.ConfirmConfig{Message: a.localizer.Message(i18n.KeyPromptDeactivate, phone)})
	if err != nil {
		return a.swallowAbort(err)
	}
	if !ok {
		a.logger.Info("deactivation cancelled", zap.String("phone", phone))
		return nil
	}

	if err := sim.Deactivate(ctx, phone, password); err != nil {
		key := i18n.KeyDeactivateFailed
		var opErr *errmap.OperationError
		if errors.As(err, &opErr) && opErr.Message != "" {
			key = opErr.Message
		}
		notifier.Notify(notify.KindError, a.localizer.Message(key))
		return err
	}
	notifier.Notify(notify.KindSuccess, a.localizer.Message(i18n.KeyDeactivateOK))
	return nil
}

func (a *app) swallowAbort(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		a.logger.Info("deactivation aborted")
		return nil
	}
	return err
}
