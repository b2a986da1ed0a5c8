package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStepsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "列出已注册的步骤",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, e := range a.newRunner("").Registry().List() {
				desc := e.Step.Description()
				if target := e.Step.Name(); target != e.Name {
					desc = fmt.Sprintf("%s (alias of %s)", desc, target)
				}
				fmt.Fprintf(out, "%-12s %s\n", e.Name, desc)
			}
			return nil
		},
	}
}
