package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only prompt a human. Piped and scripted invocations run
			// straight through, with or without --force.
			if !force && stdinIsTerminal(cmd) {
				ok, err := confirm(cmd, "remove all stash entries?")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
					return nil
				}
			}
			n, err := a.store.Clear()
			if err != nil {
				return err
			}
			noun := "entries"
			if n == 1 {
				noun = "entry"
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "removed %d %s\n", n, noun)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}

// confirm prompts before a destructive operation and reads one line from
// stdin. Anything but an explicit yes counts as a no.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", prompt)
	var answer string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil {
		return false, nil
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
