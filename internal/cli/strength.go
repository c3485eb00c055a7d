package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-authflow/pkg/rules"
)

func newStrengthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "strength <password>",
		Short: "Score a password the way the registration form does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := rules.PasswordStrength(args[0])
			label := s.Level.String()
			if key := s.Level.Key(); key != "" {
				label = a.localizer.Message(key)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%d/%d)\n", label, s.Score, rules.MaxStrengthScore)
			return err
		},
	}
}
