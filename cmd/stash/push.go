package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stash/internal/store"
)

func newPushCmd(a *app) *cobra.Command {
	var appendTo bool
	cmd := &cobra.Command{
		Use:     "push [name]",
		Aliases: []string{"store"},
		Short:   "Read stdin into a new entry",
		Long: `Reads stdin to EOF and stores it as the next entry for name, or on
the anonymous stack when no name is given. Existing entries are never
overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if stdinIsTerminal(cmd) {
				fmt.Fprintln(cmd.ErrOrStderr(), "reading from terminal, end with ctrl-d")
			}

			var (
				ent store.Entry
				err error
			)
			if appendTo {
				ent, err = a.store.Append(name, cmd.InOrStdin())
			} else {
				ent, err = a.store.Push(name, cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			logger.Info("stored entry", "id", ent.ID().String(), "bytes", ent.Size)
			return nil
		},
	}
	cmd.Flags().BoolVar(&appendTo, "append", false, "append to the newest entry instead of creating a new one")
	return cmd
}

// stdinIsTerminal reports whether the command reads from an interactive
// terminal. Tests swap stdin for a buffer, which never is one.
func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
