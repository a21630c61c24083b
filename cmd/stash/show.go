package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stash/internal/store"
)

func newShowCmd(a *app) *cobra.Command {
	var del bool
	cmd := &cobra.Command{
		Use:     "show [id]",
		Aliases: []string{"get", "cat"},
		Short:   "Write an entry to stdout",
		Long: `Writes the entry's bytes to stdout. The id is "name:index", plain
"name" for the newest entry of that stack, or nothing for the newest
anonymous entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := store.ID{Index: store.Newest}
			if len(args) == 1 {
				var err error
				if id, err = store.ParseID(args[0]); err != nil {
					return err
				}
			}

			ent, rc, err := a.store.Open(id)
			if errors.Is(err, store.ErrNotFound) {
				notFound(cmd)
				return nil
			}
			if err != nil {
				return err
			}

			_, err = io.Copy(cmd.OutOrStdout(), rc)
			if cerr := rc.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("writing entry %s: %w", ent.ID(), err)
			}

			if del {
				// ent.ID() carries the resolved index, so this removes
				// exactly the entry that was just written.
				if _, err := a.store.Delete(ent.ID()); err != nil {
					return err
				}
				logger.Info("deleted entry", "id", ent.ID().String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&del, "delete", false, "delete the entry after writing it")
	return cmd
}
