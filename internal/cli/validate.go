package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/rules"
	pkgerrors "github.com/pkg/errors"
)

// ErrInvalidValue is returned by the validate command when the value fails
// its rule, so the process exits non-zero.
var ErrInvalidValue = errors.New("invalid value")

func newValidateCommand(a *app) *cobra.Command {
	var form map[string]string

	cmd := &cobra.Command{
		Use:   "validate <flow> <field> <value>",
		Short: "Check a value against a flow field rule",
		Long: `Validates a single value with the rule declared for the field. Other
form values (for example the password a confirmation must match) can be
supplied with --set.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.store.MustFlow(args[0])
			if err != nil {
				return err
			}
			table, err := rules.Compile(flow)
			if err != nil {
				return pkgerrors.Wrapf(err, "compile flow %s", flow.ID)
			}
			if !table.Has(args[1]) {
				return fmt.Errorf("flow %s has no field %q", flow.ID, args[1])
			}

			state := model.FormState(form).Clone()
			state[args[1]] = args[2]
			if fe := table.WithLocalizer(a.localizer).ValidateField(args[1], args[2], state); fe != nil {
				fmt.Fprintln(cmd.OutOrStdout(), fe.Message)
				return fmt.Errorf("%w: %s", ErrInvalidValue, args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringToStringVar(&form, "set", nil, "other form values as name=value")
	return cmd
}
