package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/transit/pkg/statemachine"
)

func newCandidatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <machine> [state]",
		Short: "List the states reachable from a state",
		Long:  `Prints every state reachable in one step, one per line. The state defaults to the machine's initial state.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			m, err := set.Get(args[0])
			if err != nil {
				return err
			}

			current := m.Initial()
			if len(args) == 2 {
				current = statemachine.State(args[1])
			}

			reachable := m.Candidates(current)
			slices.Sort(reachable)
			for _, s := range slices.Compact(reachable) {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}
