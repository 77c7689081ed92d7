package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/transit/pkg/logger"
	"github.com/dmitrymomot/transit/pkg/statemachine"
)

func newCheckCmd(a *app) *cobra.Command {
	var (
		from   string
		fields []string
	)

	cmd := &cobra.Command{
		Use:   "check <machine> <target>",
		Short: "Decide whether an entity may transition to target",
		Long: `Builds an entity from --from and --set, runs the transition against the named
machine, and prints the decision. Exits non-zero when the transition is rejected.`,
		Example: `  transit check order shipped --from paid
  transit check order paid --set customer=acme`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			set, err := a.load(ctx)
			if err != nil {
				return err
			}
			m, err := set.Get(args[0])
			if err != nil {
				return err
			}

			entity := make(map[string]any, len(fields)+1)
			for _, kv := range fields {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --set %q: expected key=value", kv)
				}
				entity[k] = v
			}
			if from != "" {
				entity[m.Field()] = from
			}

			res := statemachine.Transition(ctx, entity, m, statemachine.State(args[1]))
			a.log.InfoContext(ctx, "transition checked",
				logger.Machine(m.Name()),
				logger.Transition(res.From, res.To),
				logger.Accepted(res.Accepted()),
				logger.Reason(res.Reason()),
			)

			out := cmd.OutOrStdout()
			if !res.Accepted() {
				fmt.Fprintf(out, "rejected: %s\n", res.Message())
				return errRejected
			}
			fmt.Fprintf(out, "accepted: %s -> %s\n", res.From, res.To)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "current state (default: the machine's initial state)")
	cmd.Flags().StringArrayVar(&fields, "set", nil, "extra entity field as key=value (repeatable)")
	return cmd
}
