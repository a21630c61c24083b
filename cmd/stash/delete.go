package main

import (
	"errors"

	"github.com/spf13/cobra"

	"stash/internal/store"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := store.ParseID(args[0])
			if err != nil {
				return err
			}
			ent, err := a.store.Delete(id)
			if errors.Is(err, store.ErrNotFound) {
				notFound(cmd)
				return nil
			}
			if err != nil {
				return err
			}
			logger.Info("deleted entry", "id", ent.ID().String())
			return nil
		},
	}
}
