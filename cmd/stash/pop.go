package main

import (
	"errors"

	"github.com/spf13/cobra"

	"stash/internal/store"
)

func newPopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pop [name]",
		Short: "Write the newest entry for name to stdout and remove it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			ent, err := a.store.Pop(name, cmd.OutOrStdout())
			if errors.Is(err, store.ErrNotFound) {
				notFound(cmd)
				return nil
			}
			if err != nil {
				return err
			}
			logger.Info("popped entry", "id", ent.ID().String(), "bytes", ent.Size)
			return nil
		},
	}
}
