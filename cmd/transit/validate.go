package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/transit/pkg/logger"
	"github.com/dmitrymomot/transit/pkg/validator"
)

var errInvalidDefinitions = errors.New("definitions are invalid")

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [machine...]",
		Short: "Check machine definitions for consistency",
		Long: `Reports undeclared initial states, duplicate states, and transitions that
reference undeclared states. Checks every machine when none are named.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			set, err := a.load(ctx)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				names = set.Names()
			}

			out := cmd.OutOrStdout()
			failed := false
			for _, name := range names {
				m, err := set.Get(name)
				if err != nil {
					return err
				}
				verrs := validator.ExtractValidationErrors(m.Validate())
				if verrs.IsEmpty() {
					fmt.Fprintf(out, "%s: ok\n", name)
					continue
				}
				failed = true
				for _, e := range verrs {
					fmt.Fprintf(out, "%s: %s: %s\n", name, e.Field, e.Message)
				}
				a.log.WarnContext(ctx, "invalid machine definition", logger.Machine(name), logger.Error(verrs))
			}

			if failed {
				return errInvalidDefinitions
			}
			return nil
		},
	}
}
